package handlers

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/screams/backend/internal/auth"
	"github.com/zfogg/screams/backend/internal/errors"
	"github.com/zfogg/screams/backend/internal/logger"
	"github.com/zfogg/screams/backend/internal/metrics"
	"github.com/zfogg/screams/backend/internal/models"
	"github.com/zfogg/screams/backend/internal/repository"
	"github.com/zfogg/screams/backend/internal/storage"
	"github.com/zfogg/screams/backend/internal/util"
	"github.com/zfogg/screams/backend/internal/validation"
	"go.uber.org/zap"
)

const msgTryLater = "Something went wrong, please try again later!"

// mailResult is the body of the endpoints that hand a mail to the identity provider
type mailResult struct {
	Success bool    `json:"success"`
	Err     *string `json:"err"`
}

func mailOutcome(err error) mailResult {
	if err == nil {
		return mailResult{Success: true}
	}
	msg := err.Error()
	return mailResult{Success: false, Err: &msg}
}

// respondBindError answers a failed ShouldBindJSON: a field map for validation failures,
// a plain 400 for anything else
func respondBindError(c *gin.Context, err error) {
	if fields, ok := validation.FieldErrors(err); ok {
		util.RespondValidation(c, fields)
		return
	}
	util.RespondBadRequest(c, "Invalid request body")
}

// SignUp creates the identity, then the profile, then mails a verification link
// POST /signup
func (h *Handlers) SignUp(c *gin.Context) {
	ctx := c.Request.Context()
	m := metrics.Get()

	var req validation.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if fields, ok := validation.FieldErrors(err); ok {
			m.SignupsTotal.WithLabelValues("invalid").Inc()
			util.RespondValidation(c, fields)
			return
		}
		util.RespondBadRequest(c, "Invalid request body")
		return
	}

	taken, err := h.store.HandleExists(ctx, req.Handle)
	if err != nil {
		util.RespondWithAPIError(c, errors.Field("general", msgTryLater).WithStatus(http.StatusInternalServerError))
		return
	}
	if taken {
		m.SignupsTotal.WithLabelValues("handle_taken").Inc()
		util.RespondWithAPIError(c, errors.Field("handle", "This handle is already taken"))
		return
	}

	identity, err := h.auth.CreateAccount(ctx, req.Email, req.Password)
	switch {
	case stderrors.Is(err, auth.ErrEmailInUse):
		m.SignupsTotal.WithLabelValues("email_in_use").Inc()
		util.RespondWithAPIError(c, errors.Field("email", "Email already in use"))
		return
	case stderrors.Is(err, auth.ErrWeakPassword):
		m.SignupsTotal.WithLabelValues("invalid").Inc()
		util.RespondWithAPIError(c, errors.Field("password", "Password should be at least 6 characters"))
		return
	case err != nil:
		logger.ErrorWithFields("Failed to create account", err)
		util.RespondWithAPIError(c, errors.Field("general", msgTryLater).WithStatus(http.StatusInternalServerError))
		return
	}

	token, err := h.auth.IssueToken(identity)
	if err != nil {
		h.abandonAccount(ctx, identity.UID)
		util.RespondWithAPIError(c, errors.Field("general", msgTryLater).WithStatus(http.StatusInternalServerError))
		return
	}

	user := &models.User{
		Handle:     req.Handle,
		UserID:     identity.UID,
		Email:      identity.Email,
		ImageURL:   storage.DefaultImageURL(h.imageBaseURL),
		IsVerified: false,
	}
	if err := h.store.CreateUser(ctx, user); err != nil {
		h.abandonAccount(ctx, identity.UID)
		if stderrors.Is(err, repository.ErrDuplicate) {
			// Lost a race for the handle
			m.SignupsTotal.WithLabelValues("handle_taken").Inc()
			util.RespondWithAPIError(c, errors.Field("handle", "This handle is already taken"))
			return
		}
		logger.ErrorWithFields("Failed to create profile", err)
		util.RespondWithAPIError(c, errors.Field("general", msgTryLater).WithStatus(http.StatusInternalServerError))
		return
	}

	if err := h.auth.SendEmailVerification(ctx, identity.UID); err != nil {
		logger.Log.Warn("Failed to send verification email",
			logger.WithHandle(user.Handle),
			zap.Error(err),
		)
	}

	m.SignupsTotal.WithLabelValues("success").Inc()
	logger.Log.Info("User signed up", logger.WithHandle(user.Handle))
	c.JSON(http.StatusCreated, gin.H{"token": token})
}

// abandonAccount deletes an identity whose profile could not be created
func (h *Handlers) abandonAccount(ctx context.Context, uid string) {
	if err := h.auth.DeleteAccount(ctx, uid); err != nil {
		logger.Log.Error("Failed to delete orphaned identity",
			zap.String("uid", uid),
			zap.Error(err),
		)
	}
}

// Login exchanges credentials for an ID token
// POST /login
func (h *Handlers) Login(c *gin.Context) {
	var req validation.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	token, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if stderrors.Is(err, auth.ErrInvalidCredentials) {
		util.RespondWithAPIError(c, errors.Field("general", "Wrong credentials").WithStatus(http.StatusForbidden))
		return
	}
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// RecoverPassword mails a password reset link
// POST /resetPassword
func (h *Handlers) RecoverPassword(c *gin.Context) {
	var req validation.RecoverPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "Must be an email")
		return
	}

	err := h.auth.SendPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		logger.WarnWithFields("Failed to send password reset", err)
	}
	c.JSON(http.StatusOK, mailOutcome(err))
}

// ConfirmPasswordReset redeems a reset token from the mailed link
// POST /resetPassword/confirm
func (h *Handlers) ConfirmPasswordReset(c *gin.Context) {
	var req validation.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password)
	switch {
	case stderrors.Is(err, auth.ErrInvalidToken):
		util.RespondBadRequest(c, "Invalid or expired token")
		return
	case stderrors.Is(err, auth.ErrWeakPassword):
		util.RespondWithAPIError(c, errors.Field("password", "Password should be at least 6 characters"))
		return
	case err != nil:
		util.RespondInternalError(c, err)
		return
	}

	util.RespondMessage(c, http.StatusOK, "Password updated successfully")
}

// ConfirmEmail is where verification links land. It marks the identity and the
// profile verified.
// GET /verifyEmail?token=
func (h *Handlers) ConfirmEmail(c *gin.Context) {
	ctx := c.Request.Context()

	identity, err := h.auth.ConfirmEmail(ctx, c.Query("token"))
	if stderrors.Is(err, auth.ErrInvalidToken) {
		util.RespondBadRequest(c, "Invalid or expired token")
		return
	}
	if err != nil {
		util.RespondInternalError(c, err)
		return
	}

	if _, err := h.store.SetUserVerified(ctx, identity.UID, true); err != nil && !stderrors.Is(err, repository.ErrNotFound) {
		util.RespondInternalError(c, err)
		return
	}

	util.RespondMessage(c, http.StatusOK, "Email verified successfully")
}

// ResendVerificationMail mails a fresh verification link to the caller
// POST /resendVerificationMail
func (h *Handlers) ResendVerificationMail(c *gin.Context) {
	uid, ok := util.GetUIDFromContext(c)
	if !ok {
		return
	}

	err := h.auth.SendEmailVerification(c.Request.Context(), uid)
	if err != nil {
		logger.WarnWithFields("Failed to resend verification email", err)
	}
	c.JSON(http.StatusOK, mailOutcome(err))
}
