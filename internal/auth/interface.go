package auth

import (
	"context"

	"github.com/zfogg/screams/backend/internal/models"
)

// Provider is what handlers and the auth gate need from the identity provider.
// It lets tests swap in MockProvider.
type Provider interface {
	CreateAccount(ctx context.Context, email, password string) (*models.Identity, error)
	SignIn(ctx context.Context, email, password string) (string, error)
	IssueToken(identity *models.Identity) (string, error)
	VerifyToken(ctx context.Context, token string) (*Claims, error)

	SendEmailVerification(ctx context.Context, uid string) error
	ConfirmEmail(ctx context.Context, token string) (*models.Identity, error)
	SendPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	DeleteAccount(ctx context.Context, uid string) error
}

// Ensure Service implements Provider
var _ Provider = (*Service)(nil)
