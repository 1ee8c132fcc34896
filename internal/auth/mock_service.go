package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/zfogg/screams/backend/internal/models"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockProvider is an in-memory Provider for tests. Tokens are "mock_token_<uid>".
type MockProvider struct {
	mu sync.Mutex

	Calls []MockCall

	// Configurable function overrides
	CreateAccountFunc         func(ctx context.Context, email, password string) (*models.Identity, error)
	SignInFunc                func(ctx context.Context, email, password string) (string, error)
	VerifyTokenFunc           func(ctx context.Context, token string) (*Claims, error)
	SendEmailVerificationFunc func(ctx context.Context, uid string) error
	SendPasswordResetFunc     func(ctx context.Context, email string) error

	// Identities keyed by email
	Identities map[string]*models.Identity
	passwords  map[string]string
}

// NewMockProvider creates an empty mock provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Calls:      make([]MockCall, 0),
		Identities: make(map[string]*models.Identity),
		passwords:  make(map[string]string),
	}
}

func (m *MockProvider) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCallsForMethod returns calls for a specific method
func (m *MockProvider) GetCallsForMethod(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []MockCall
	for _, call := range m.Calls {
		if call.Method == method {
			result = append(result, call)
		}
	}
	return result
}

// AssertCalled checks if a method was called at least once
func (m *MockProvider) AssertCalled(method string) bool {
	return len(m.GetCallsForMethod(method)) > 0
}

// AddIdentity registers an identity with a password
func (m *MockProvider) AddIdentity(identity *models.Identity, password string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if identity.UID == "" {
		identity.UID = uuid.New().String()
	}
	m.Identities[identity.Email] = identity
	m.passwords[identity.Email] = password
}

// TokenFor returns the token VerifyToken accepts for uid
func (m *MockProvider) TokenFor(uid string) string {
	return "mock_token_" + uid
}

func (m *MockProvider) byUID(uid string) *models.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, identity := range m.Identities {
		if identity.UID == uid {
			return identity
		}
	}
	return nil
}

func (m *MockProvider) CreateAccount(ctx context.Context, email, password string) (*models.Identity, error) {
	m.recordCall("CreateAccount", email)
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(ctx, email, password)
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	m.mu.Lock()
	_, exists := m.Identities[email]
	m.mu.Unlock()
	if exists {
		return nil, ErrEmailInUse
	}

	identity := &models.Identity{Email: email}
	m.AddIdentity(identity, password)
	return identity, nil
}

func (m *MockProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	m.recordCall("SignIn", email)
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, email, password)
	}

	m.mu.Lock()
	identity, ok := m.Identities[email]
	stored := m.passwords[email]
	m.mu.Unlock()
	if !ok || stored != password {
		return "", ErrInvalidCredentials
	}
	return m.TokenFor(identity.UID), nil
}

func (m *MockProvider) IssueToken(identity *models.Identity) (string, error) {
	m.recordCall("IssueToken", identity.UID)
	return m.TokenFor(identity.UID), nil
}

func (m *MockProvider) VerifyToken(ctx context.Context, token string) (*Claims, error) {
	m.recordCall("VerifyToken", token)
	if m.VerifyTokenFunc != nil {
		return m.VerifyTokenFunc(ctx, token)
	}

	const prefix = "mock_token_"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return nil, ErrInvalidToken
	}
	identity := m.byUID(token[len(prefix):])
	if identity == nil {
		return nil, ErrInvalidToken
	}

	claims := &Claims{Email: identity.Email, EmailVerified: identity.EmailVerified}
	claims.Subject = identity.UID
	return claims, nil
}

func (m *MockProvider) SendEmailVerification(ctx context.Context, uid string) error {
	m.recordCall("SendEmailVerification", uid)
	if m.SendEmailVerificationFunc != nil {
		return m.SendEmailVerificationFunc(ctx, uid)
	}
	if m.byUID(uid) == nil {
		return ErrAccountNotFound
	}
	return nil
}

func (m *MockProvider) ConfirmEmail(ctx context.Context, token string) (*models.Identity, error) {
	m.recordCall("ConfirmEmail", token)
	identity := m.byUID(token)
	if identity == nil {
		return nil, ErrInvalidToken
	}
	m.mu.Lock()
	identity.EmailVerified = true
	m.mu.Unlock()
	return identity, nil
}

func (m *MockProvider) SendPasswordReset(ctx context.Context, email string) error {
	m.recordCall("SendPasswordReset", email)
	if m.SendPasswordResetFunc != nil {
		return m.SendPasswordResetFunc(ctx, email)
	}
	return nil
}

func (m *MockProvider) ResetPassword(ctx context.Context, token, newPassword string) error {
	m.recordCall("ResetPassword", token)
	identity := m.byUID(token)
	if identity == nil {
		return ErrInvalidToken
	}
	m.mu.Lock()
	m.passwords[identity.Email] = newPassword
	m.mu.Unlock()
	return nil
}

func (m *MockProvider) DeleteAccount(ctx context.Context, uid string) error {
	m.recordCall("DeleteAccount", uid)
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, identity := range m.Identities {
		if identity.UID == uid {
			delete(m.Identities, email)
			delete(m.passwords, email)
			return nil
		}
	}
	return ErrAccountNotFound
}

// Ensure MockProvider implements Provider
var _ Provider = (*MockProvider)(nil)
