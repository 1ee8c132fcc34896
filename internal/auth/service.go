// Package auth is the identity provider: accounts, ID tokens, and the mailed action links
// for email verification and password reset.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/zfogg/screams/backend/internal/email"
	"github.com/zfogg/screams/backend/internal/logger"
	"github.com/zfogg/screams/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailInUse         = errors.New("email already in use")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAlreadyVerified    = errors.New("email already verified")
)

const (
	minPasswordLength = 6
	issuer            = "screams"

	verifyEmailTTL   = 72 * time.Hour
	resetPasswordTTL = time.Hour
)

// Claims are the ID token claims. The subject is the identity uid.
type Claims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// UID returns the identity the token was issued to
func (c *Claims) UID() string {
	return c.Subject
}

// Service implements Provider on top of the identities and action_tokens tables
type Service struct {
	db       *gorm.DB
	secret   []byte
	tokenTTL time.Duration
	mailer   email.Sender
	baseURL  string
	now      func() time.Time
}

// NewService creates the identity provider. baseURL is where mailed links point.
func NewService(db *gorm.DB, secret []byte, tokenTTL time.Duration, mailer email.Sender, baseURL string) *Service {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	if mailer == nil {
		mailer = email.NewLogSender()
	}
	return &Service{
		db:       db,
		secret:   secret,
		tokenTTL: tokenTTL,
		mailer:   mailer,
		baseURL:  strings.TrimRight(baseURL, "/"),
		now:      time.Now,
	}
}

// CreateAccount registers an email/password identity
func (s *Service) CreateAccount(ctx context.Context, emailAddr, password string) (*models.Identity, error) {
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	emailAddr = normalizeEmail(emailAddr)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	identity := &models.Identity{
		Email:        emailAddr,
		PasswordHash: string(hash),
	}
	if err := s.db.WithContext(ctx).Create(identity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return identity, nil
}

// SignIn checks the password and returns a fresh ID token
func (s *Service) SignIn(ctx context.Context, emailAddr, password string) (string, error) {
	var identity models.Identity
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(emailAddr)).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrInvalidCredentials
	} else if err != nil {
		return "", fmt.Errorf("database error: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.IssueToken(&identity)
}

// IssueToken signs an HS256 ID token for identity
func (s *Service) IssueToken(identity *models.Identity) (string, error) {
	now := s.now()
	claims := Claims{
		Email:         identity.Email,
		EmailVerified: identity.EmailVerified,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   identity.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// VerifyToken validates signature, issuer and expiry
func (s *Service) VerifyToken(_ context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// GetIdentity loads an identity by uid
func (s *Service) GetIdentity(ctx context.Context, uid string) (*models.Identity, error) {
	var identity models.Identity
	err := s.db.WithContext(ctx).Where("uid = ?", uid).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &identity, nil
}

// SendEmailVerification mails a verification link to the identity's address
func (s *Service) SendEmailVerification(ctx context.Context, uid string) error {
	identity, err := s.GetIdentity(ctx, uid)
	if err != nil {
		return err
	}
	if identity.EmailVerified {
		return ErrAlreadyVerified
	}

	token, err := s.createActionToken(ctx, uid, models.TokenVerifyEmail, verifyEmailTTL)
	if err != nil {
		return err
	}
	return s.mailer.SendVerificationEmail(ctx, identity.Email, s.link("/verifyEmail", token))
}

// ConfirmEmail redeems a verification token and marks the address verified
func (s *Service) ConfirmEmail(ctx context.Context, token string) (*models.Identity, error) {
	var identity models.Identity
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		at, err := s.redeem(tx, token, models.TokenVerifyEmail)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Identity{}).Where("uid = ?", at.UID).Update("email_verified", true).Error; err != nil {
			return fmt.Errorf("failed to verify email: %w", err)
		}
		return tx.Where("uid = ?", at.UID).First(&identity).Error
	})
	if err != nil {
		return nil, err
	}
	return &identity, nil
}

// SendPasswordReset mails a reset link. Unknown addresses succeed silently.
func (s *Service) SendPasswordReset(ctx context.Context, emailAddr string) error {
	var identity models.Identity
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(emailAddr)).First(&identity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Log.Debug("Password reset requested for unknown email")
		return nil
	} else if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	token, err := s.createActionToken(ctx, identity.UID, models.TokenResetPassword, resetPasswordTTL)
	if err != nil {
		return err
	}
	return s.mailer.SendPasswordResetEmail(ctx, identity.Email, s.link("/resetPassword/confirm", token))
}

// ResetPassword redeems a reset token and replaces the password
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		at, err := s.redeem(tx, token, models.TokenResetPassword)
		if err != nil {
			return err
		}
		if err := tx.Model(&models.Identity{}).Where("uid = ?", at.UID).Update("password_hash", string(hash)).Error; err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
		return nil
	})
}

// DeleteAccount removes an identity and its pending action tokens
func (s *Service) DeleteAccount(ctx context.Context, uid string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("uid = ?", uid).Delete(&models.ActionToken{}).Error; err != nil {
			return fmt.Errorf("failed to delete action tokens: %w", err)
		}
		res := tx.Where("uid = ?", uid).Delete(&models.Identity{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete account: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAccountNotFound
		}
		logger.Log.Info("Deleted identity", zap.String("uid", uid))
		return nil
	})
}

func (s *Service) createActionToken(ctx context.Context, uid, purpose string, ttl time.Duration) (string, error) {
	// 64 hex characters from two UUIDs
	token := strings.ReplaceAll(uuid.New().String()+uuid.New().String(), "-", "")

	at := models.ActionToken{
		Token:     token,
		UID:       uid,
		Purpose:   purpose,
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.db.WithContext(ctx).Create(&at).Error; err != nil {
		return "", fmt.Errorf("failed to create %s token: %w", purpose, err)
	}
	return token, nil
}

// redeem marks a valid token used inside tx
func (s *Service) redeem(tx *gorm.DB, token, purpose string) (*models.ActionToken, error) {
	var at models.ActionToken
	err := tx.Where("token = ? AND purpose = ?", token, purpose).First(&at).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidToken
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !at.IsValid(s.now()) {
		return nil, ErrInvalidToken
	}

	res := tx.Model(&models.ActionToken{}).
		Where("token = ? AND used = ?", token, false).
		Update("used", true)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to redeem token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidToken
	}
	return &at, nil
}

func (s *Service) link(path, token string) string {
	return s.baseURL + path + "?token=" + url.QueryEscape(token)
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
