package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/screams/backend/internal/errors"
	"github.com/zfogg/screams/backend/internal/logger"
	"github.com/zfogg/screams/backend/internal/metrics"
	"github.com/zfogg/screams/backend/internal/models"
	"github.com/zfogg/screams/backend/internal/repository"
	"github.com/zfogg/screams/backend/internal/util"
	"github.com/zfogg/screams/backend/internal/validation"
	"go.uber.org/zap"
)

// ScreamWithComments is the GET /scream/:screamId body
type ScreamWithComments struct {
	models.Scream
	Comments []models.Comment `json:"comments"`
}

// GetAllScreams lists every scream, newest first
// GET /screams
func (h *Handlers) GetAllScreams(c *gin.Context) {
	screams, err := h.store.ListScreams(c.Request.Context())
	if util.HandleStoreError(c, err, "Scream") {
		return
	}
	c.JSON(http.StatusOK, screams)
}

// PostScream creates a scream carrying the author's image and verification snapshot
// POST /scream
func (h *Handlers) PostScream(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		util.RespondWithAPIError(c, errors.MethodNotAllowed(c.Request.Method))
		return
	}
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req validation.BodyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, errors.Field("body", validation.MsgEmpty))
		return
	}

	scream := &models.Scream{
		UserHandle:     user.Handle,
		Body:           req.Body,
		UserImage:      user.ImageURL,
		IsVerifiedUser: user.IsVerified,
	}
	if err := h.store.CreateScream(c.Request.Context(), scream); err != nil {
		util.RespondInternalError(c, err)
		return
	}

	metrics.Get().ScreamsCreatedTotal.Inc()
	logger.Log.Info("Scream posted",
		logger.WithHandle(user.Handle),
		logger.WithScreamID(scream.ID),
	)
	c.JSON(http.StatusOK, scream)
}

// GetScream returns a scream with its comments, newest first
// GET /scream/:screamId
func (h *Handlers) GetScream(c *gin.Context) {
	ctx := c.Request.Context()
	screamID := c.Param("screamId")

	scream, err := h.store.GetScream(ctx, screamID)
	if util.HandleStoreError(c, err, "Scream") {
		return
	}
	comments, err := h.store.ListComments(ctx, screamID)
	if util.HandleStoreError(c, err, "Comment") {
		return
	}

	c.JSON(http.StatusOK, ScreamWithComments{Scream: *scream, Comments: comments})
}

// DeleteScream deletes the caller's own scream. Its comments, likes and notifications go
// with it through the screams/deleted trigger.
// DELETE /scream/:screamId
func (h *Handlers) DeleteScream(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	screamID := c.Param("screamId")

	scream, err := h.store.GetScream(ctx, screamID)
	if util.HandleStoreError(c, err, "Scream") {
		return
	}
	if scream.UserHandle != user.Handle {
		util.RespondForbidden(c, "You are not authorized to delete someone else's scream")
		return
	}

	if err := h.store.DeleteScream(ctx, screamID); util.HandleStoreError(c, err, "Scream") {
		return
	}

	logger.Log.Info("Scream deleted",
		logger.WithHandle(user.Handle),
		logger.WithScreamID(screamID),
	)
	util.RespondMessage(c, http.StatusOK, "Scream deleted successfully")
}

// CommentOnScream adds a comment and bumps the scream's comment count
// POST /scream/:screamId/comment
func (h *Handlers) CommentOnScream(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req validation.BodyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondWithAPIError(c, errors.Field("comment", validation.MsgEmpty))
		return
	}

	comment := &models.Comment{
		ScreamID:   c.Param("screamId"),
		UserHandle: user.Handle,
		Body:       req.Body,
		UserImage:  user.ImageURL,
		IsVerified: user.IsVerified,
	}
	if _, err := h.store.AddComment(c.Request.Context(), comment); util.HandleStoreError(c, err, "Scream") {
		return
	}

	metrics.Get().CommentsTotal.Inc()
	c.JSON(http.StatusOK, comment)
}

// LikeScream likes a scream once per user and returns it with the new count
// GET /scream/:screamId/like
func (h *Handlers) LikeScream(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	scream, err := h.store.LikeScream(c.Request.Context(), user.Handle, c.Param("screamId"))
	if stderrors.Is(err, repository.ErrAlreadyLiked) {
		util.RespondBadRequest(c, "Scream already liked")
		return
	}
	if util.HandleStoreError(c, err, "Scream") {
		return
	}

	metrics.Get().LikesTotal.WithLabelValues("like").Inc()
	c.JSON(http.StatusOK, scream)
}

// UnlikeScream removes the caller's like and returns the scream with the new count
// GET /scream/:screamId/unlike
func (h *Handlers) UnlikeScream(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	scream, err := h.store.UnlikeScream(c.Request.Context(), user.Handle, c.Param("screamId"))
	if stderrors.Is(err, repository.ErrNotLiked) {
		util.RespondBadRequest(c, "Scream not liked")
		return
	}
	if util.HandleStoreError(c, err, "Scream") {
		return
	}

	metrics.Get().LikesTotal.WithLabelValues("unlike").Inc()
	logger.Log.Debug("Scream unliked", logger.WithHandle(user.Handle), zap.String("scream_id", scream.ID))
	c.JSON(http.StatusOK, scream)
}
