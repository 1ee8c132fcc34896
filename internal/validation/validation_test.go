package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/screams/backend/internal/models"
)

func TestValidateSignup(t *testing.T) {
	tests := []struct {
		name     string
		req      SignupRequest
		expected map[string]string
	}{
		{
			name:     "valid",
			req:      SignupRequest{Email: "a@example.com", Password: "secret", ConfirmPassword: "secret", Handle: "alice"},
			expected: map[string]string{},
		},
		{
			name: "all empty",
			req:  SignupRequest{},
			expected: map[string]string{
				"email":    MsgEmpty,
				"password": MsgEmpty,
				"handle":   MsgEmpty,
			},
		},
		{
			name: "bad email and mismatch",
			req:  SignupRequest{Email: "nope", Password: "secret", ConfirmPassword: "other", Handle: "alice"},
			expected: map[string]string{
				"email":           MsgInvalidEmail,
				"confirmPassword": MsgPasswordsMatch,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSignup(tt.req))
		})
	}
}

func TestValidateLogin(t *testing.T) {
	assert.Empty(t, ValidateLogin(LoginRequest{Email: "a@example.com", Password: "x"}))
	assert.Equal(t, map[string]string{"email": MsgEmpty, "password": MsgEmpty}, ValidateLogin(LoginRequest{Email: "  "}))
}

func TestBindingTagsReportJSONFieldNames(t *testing.T) {
	err := binding.Validator.ValidateStruct(ResetPasswordRequest{Token: "\t", Password: "x", ConfirmPassword: "y"})
	fields, ok := FieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"token": MsgEmpty, "confirmPassword": MsgPasswordsMatch}, fields)

	_, ok = FieldErrors(errors.New("unexpected EOF"))
	assert.False(t, ok)

	assert.NoError(t, binding.Validator.ValidateStruct(BodyRequest{Body: "hi"}))
	fields, ok = FieldErrors(binding.Validator.ValidateStruct(BodyRequest{Body: "  "}))
	require.True(t, ok)
	assert.Equal(t, map[string]string{"body": MsgEmpty}, fields)

	fields, ok = FieldErrors(binding.Validator.ValidateStruct(RecoverPasswordRequest{Email: "nope"}))
	require.True(t, ok)
	assert.Equal(t, map[string]string{"email": MsgInvalidEmail}, fields)
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("user@example.com"))
	assert.True(t, IsEmail("first.last@sub.example.co"))
	assert.False(t, IsEmail("user@"))
	assert.False(t, IsEmail("user@example"))
	assert.False(t, IsEmail("@example.com"))
}

func TestReduceUserDetails(t *testing.T) {
	got := ReduceUserDetails(models.UserDetails{Bio: " hi ", Website: "example.com", Location: ""})
	assert.Equal(t, models.UserDetails{Bio: "hi", Website: "http://example.com"}, got)

	got = ReduceUserDetails(models.UserDetails{Website: "https://example.com"})
	assert.Equal(t, "https://example.com", got.Website)

	assert.Empty(t, ReduceUserDetails(models.UserDetails{Bio: "   "}).Updates())
}

func TestServiceValidator(t *testing.T) {
	t.Setenv("SCREAMS_REQUIRE_REDIS", "true")
	t.Setenv("SCREAMS_REQUIRE_S3", "")

	calls := map[string]int{}
	sv := NewServiceValidator().
		Register("redis", func(ctx context.Context) error { calls["redis"]++; return nil }).
		Register("s3", func(ctx context.Context) error { calls["s3"]++; return nil }).
		Register("database", func(ctx context.Context) error { calls["database"]++; return nil }).
		Require("database")

	assert.Equal(t, []string{"database", "redis"}, sv.RequiredServices())
	require.NoError(t, sv.ValidateServices(context.Background()))
	assert.Equal(t, map[string]int{"redis": 1, "database": 1}, calls)

	sv.Register("redis", func(ctx context.Context) error { return errors.New("down") })
	assert.Error(t, sv.ValidateServices(context.Background()))

	assert.Error(t, NewServiceValidator().Require("ghost").ValidateServices(context.Background()))
}
