// Package email sends the account mails of the identity provider.
package email

import (
	"context"
	"fmt"
	"sync"

	"github.com/zfogg/screams/backend/internal/logger"
	"go.uber.org/zap"
)

// Sender delivers account mails
type Sender interface {
	SendVerificationEmail(ctx context.Context, toEmail, link string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, link string) error
}

// Message is a rendered mail
type Message struct {
	Subject string
	HTML    string
	Text    string
}

func verificationMessage(link string) Message {
	return Message{
		Subject: "Verify your email for Screams",
		HTML: fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; line-height: 1.6; color: #333;">
	<h1>Verify your email</h1>
	<p>Follow this link to verify your email address.</p>
	<p><a href="%s">Verify email</a></p>
	<p style="word-break: break-all; color: #666;">%s</p>
	<p>If you didn't ask to verify this address, you can ignore this email.</p>
</body>
</html>`, link, link),
		Text: fmt.Sprintf("Follow this link to verify your email address.\n\n%s\n\nIf you didn't ask to verify this address, you can ignore this email.\n", link),
	}
}

func passwordResetMessage(link string) Message {
	return Message{
		Subject: "Reset your password for Screams",
		HTML: fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; line-height: 1.6; color: #333;">
	<h1>Reset your password</h1>
	<p>Follow this link to reset your password. It expires in 1 hour.</p>
	<p><a href="%s">Reset password</a></p>
	<p style="word-break: break-all; color: #666;">%s</p>
	<p>If you didn't ask to reset your password, you can ignore this email.</p>
</body>
</html>`, link, link),
		Text: fmt.Sprintf("Follow this link to reset your password. It expires in 1 hour.\n\n%s\n\nIf you didn't ask to reset your password, you can ignore this email.\n", link),
	}
}

// SentMail is one mail captured by LogSender
type SentMail struct {
	Kind string
	To   string
	Link string
}

// LogSender logs mails instead of sending them. Used when SES is not configured and in tests.
type LogSender struct {
	mu   sync.Mutex
	Sent []SentMail
}

// NewLogSender creates a LogSender
func NewLogSender() *LogSender {
	return &LogSender{}
}

func (l *LogSender) SendVerificationEmail(_ context.Context, toEmail, link string) error {
	l.record("verify_email", toEmail, link)
	return nil
}

func (l *LogSender) SendPasswordResetEmail(_ context.Context, toEmail, link string) error {
	l.record("reset_password", toEmail, link)
	return nil
}

func (l *LogSender) record(kind, to, link string) {
	l.mu.Lock()
	l.Sent = append(l.Sent, SentMail{Kind: kind, To: to, Link: link})
	l.mu.Unlock()

	logger.Log.Info("Email not sent, no mail transport configured",
		zap.String("kind", kind),
		zap.String("to", to),
		zap.String("link", link),
	)
}

// Last returns the most recent mail, if any
func (l *LogSender) Last() (SentMail, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.Sent) == 0 {
		return SentMail{}, false
	}
	return l.Sent[len(l.Sent)-1], true
}
