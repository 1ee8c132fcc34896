package auth

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/zfogg/screams/backend/internal/database"
	"github.com/zfogg/screams/backend/internal/email"
)

// AuthServiceTestSuite runs the identity provider against in-memory sqlite
type AuthServiceTestSuite struct {
	suite.Suite
	service *Service
	mailer  *email.LogSender
	ctx     context.Context
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) SetupTest() {
	db, err := database.OpenSQLite(":memory:")
	require.NoError(suite.T(), err)

	suite.mailer = email.NewLogSender()
	suite.service = NewService(db, []byte("test-secret"), time.Hour, suite.mailer, "http://localhost:8787/")
	suite.ctx = context.Background()
}

// tokenFromLink pulls the token query parameter out of a mailed link
func tokenFromLink(t *testing.T, link string) string {
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func (suite *AuthServiceTestSuite) TestCreateAccountAndSignIn() {
	t := suite.T()

	identity, err := suite.service.CreateAccount(suite.ctx, "Alice@Example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, identity.UID)
	assert.Equal(t, "alice@example.com", identity.Email)
	assert.NotEqual(t, "secret123", identity.PasswordHash)

	token, err := suite.service.SignIn(suite.ctx, "alice@example.com", "secret123")
	require.NoError(t, err)

	claims, err := suite.service.VerifyToken(suite.ctx, token)
	require.NoError(t, err)
	assert.Equal(t, identity.UID, claims.UID())
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.False(t, claims.EmailVerified)
}

func (suite *AuthServiceTestSuite) TestCreateAccountRejectsDuplicatesAndWeakPasswords() {
	t := suite.T()

	_, err := suite.service.CreateAccount(suite.ctx, "bob@example.com", "secret123")
	require.NoError(t, err)

	_, err = suite.service.CreateAccount(suite.ctx, "BOB@example.com", "secret123")
	assert.ErrorIs(t, err, ErrEmailInUse)

	_, err = suite.service.CreateAccount(suite.ctx, "carol@example.com", "123")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func (suite *AuthServiceTestSuite) TestSignInWrongCredentials() {
	t := suite.T()

	_, err := suite.service.CreateAccount(suite.ctx, "dave@example.com", "secret123")
	require.NoError(t, err)

	_, err = suite.service.SignIn(suite.ctx, "dave@example.com", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = suite.service.SignIn(suite.ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func (suite *AuthServiceTestSuite) TestVerifyTokenRejectsTampering() {
	t := suite.T()

	identity, err := suite.service.CreateAccount(suite.ctx, "eve@example.com", "secret123")
	require.NoError(t, err)
	token, err := suite.service.IssueToken(identity)
	require.NoError(t, err)

	_, err = suite.service.VerifyToken(suite.ctx, token+"x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewService(nil, []byte("other-secret"), time.Hour, nil, "")
	_, err = other.VerifyToken(suite.ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Expired
	suite.service.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = suite.service.VerifyToken(suite.ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestEmailVerificationFlow() {
	t := suite.T()

	identity, err := suite.service.CreateAccount(suite.ctx, "frank@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, suite.service.SendEmailVerification(suite.ctx, identity.UID))
	mail, ok := suite.mailer.Last()
	require.True(t, ok)
	assert.Equal(t, "frank@example.com", mail.To)
	assert.Contains(t, mail.Link, "http://localhost:8787/verifyEmail?token=")

	token := tokenFromLink(t, mail.Link)
	verified, err := suite.service.ConfirmEmail(suite.ctx, token)
	require.NoError(t, err)
	assert.True(t, verified.EmailVerified)

	// Single use
	_, err = suite.service.ConfirmEmail(suite.ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.ErrorIs(t, suite.service.SendEmailVerification(suite.ctx, identity.UID), ErrAlreadyVerified)
}

func (suite *AuthServiceTestSuite) TestPasswordResetFlow() {
	t := suite.T()

	_, err := suite.service.CreateAccount(suite.ctx, "gina@example.com", "secret123")
	require.NoError(t, err)

	// Unknown address is silent
	require.NoError(t, suite.service.SendPasswordReset(suite.ctx, "nobody@example.com"))
	assert.Empty(t, suite.mailer.Sent)

	require.NoError(t, suite.service.SendPasswordReset(suite.ctx, "gina@example.com"))
	mail, ok := suite.mailer.Last()
	require.True(t, ok)
	token := tokenFromLink(t, mail.Link)

	// A verification token cannot reset a password
	_, err = suite.service.ConfirmEmail(suite.ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, suite.service.ResetPassword(suite.ctx, token, "newsecret"))
	_, err = suite.service.SignIn(suite.ctx, "gina@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = suite.service.SignIn(suite.ctx, "gina@example.com", "newsecret")
	assert.NoError(t, err)

	assert.ErrorIs(t, suite.service.ResetPassword(suite.ctx, token, "another1"), ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestExpiredActionToken() {
	t := suite.T()

	_, err := suite.service.CreateAccount(suite.ctx, "hank@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, suite.service.SendPasswordReset(suite.ctx, "hank@example.com"))
	mail, _ := suite.mailer.Last()

	suite.service.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.ErrorIs(t, suite.service.ResetPassword(suite.ctx, tokenFromLink(t, mail.Link), "newsecret"), ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestDeleteAccount() {
	t := suite.T()

	identity, err := suite.service.CreateAccount(suite.ctx, "ivy@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, suite.service.DeleteAccount(suite.ctx, identity.UID))
	_, err = suite.service.GetIdentity(suite.ctx, identity.UID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.ErrorIs(t, suite.service.DeleteAccount(suite.ctx, identity.UID), ErrAccountNotFound)

	// Email is free again
	_, err = suite.service.CreateAccount(suite.ctx, "ivy@example.com", "secret123")
	assert.NoError(t, err)
}

func TestMockProviderRoundTrip(t *testing.T) {
	m := NewMockProvider()
	identity, err := m.CreateAccount(context.Background(), "a@example.com", "secret123")
	require.NoError(t, err)

	token, err := m.SignIn(context.Background(), "a@example.com", "secret123")
	require.NoError(t, err)

	claims, err := m.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, identity.UID, claims.UID())
	assert.True(t, m.AssertCalled("VerifyToken"))

	_, err = m.VerifyToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

}
