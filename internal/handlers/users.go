package handlers

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/screams/backend/internal/errors"
	"github.com/zfogg/screams/backend/internal/logger"
	"github.com/zfogg/screams/backend/internal/metrics"
	"github.com/zfogg/screams/backend/internal/models"
	"github.com/zfogg/screams/backend/internal/storage"
	"github.com/zfogg/screams/backend/internal/util"
	"github.com/zfogg/screams/backend/internal/validation"
	"go.uber.org/zap"
)

const (
	maxImageSize        = 10 << 20
	notificationsOnPage = 10
)

// AuthenticatedUser is the GET /user body
type AuthenticatedUser struct {
	Credentials   *models.User          `json:"credentials"`
	Likes         []models.Like         `json:"likes"`
	Notifications []models.Notification `json:"notifications"`
}

// UserProfile is the GET /user/:handle body
type UserProfile struct {
	User    *models.User    `json:"user"`
	Screams []models.Scream `json:"screams"`
}

// AddUserDetails updates bio, website and location. Blank fields are left alone.
// POST /user
func (h *Handlers) AddUserDetails(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req models.UserDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "Invalid request body")
		return
	}

	details := validation.ReduceUserDetails(req)
	if _, err := h.store.UpdateUserDetails(c.Request.Context(), user.Handle, details); util.HandleStoreError(c, err, "User") {
		return
	}

	util.RespondMessage(c, http.StatusOK, "Details added successfully")
}

// GetAuthenticatedUser returns the caller's profile, likes and latest notifications
// GET /user
func (h *Handlers) GetAuthenticatedUser(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	credentials, err := h.store.GetUser(ctx, user.Handle)
	if util.HandleStoreError(c, err, "User") {
		return
	}
	likes, err := h.store.ListLikesByHandle(ctx, user.Handle)
	if util.HandleStoreError(c, err, "Like") {
		return
	}
	notifications, err := h.store.ListNotifications(ctx, user.Handle, notificationsOnPage)
	if util.HandleStoreError(c, err, "Notification") {
		return
	}

	c.JSON(http.StatusOK, AuthenticatedUser{
		Credentials:   credentials,
		Likes:         likes,
		Notifications: notifications,
	})
}

// GetUserDetails returns another user's profile and screams
// GET /user/:handle
func (h *Handlers) GetUserDetails(c *gin.Context) {
	ctx := c.Request.Context()
	handle := c.Param("handle")

	user, err := h.store.GetUser(ctx, handle)
	if util.HandleStoreError(c, err, "User") {
		return
	}
	screams, err := h.store.ListScreamsByHandle(ctx, handle)
	if util.HandleStoreError(c, err, "Scream") {
		return
	}

	c.JSON(http.StatusOK, UserProfile{User: user, Screams: screams})
}

// UploadImage stores a new profile image and points the profile at it. The author image
// on the user's screams follows through the users/updated trigger.
// POST /user/image
func (h *Handlers) UploadImage(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	m := metrics.Get()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImageSize)
	header, err := firstFile(c)
	if err != nil {
		util.RespondBadRequest(c, "No image submitted")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !storage.IsAllowedImageType(contentType) {
		m.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		util.RespondBadRequest(c, "Wrong file type submitted")
		return
	}

	data, err := readFile(header)
	if err != nil {
		util.RespondBadRequest(c, "Failed to read image")
		return
	}

	result, err := h.images.UploadImage(c.Request.Context(), data, header.Filename, contentType)
	if err != nil {
		m.ImageUploadsTotal.WithLabelValues("error").Inc()
		logger.Log.Error("Image upload failed", logger.WithHandle(user.Handle), zap.Error(err))
		util.RespondWithAPIError(c, errors.InternalError("Something went wrong"))
		return
	}

	if _, err := h.store.UpdateUserImage(c.Request.Context(), user.Handle, result.URL); util.HandleStoreError(c, err, "User") {
		return
	}

	m.ImageUploadsTotal.WithLabelValues("success").Inc()
	logger.Log.Info("Profile image uploaded",
		logger.WithHandle(user.Handle),
		zap.String("key", result.Key),
		zap.Int64("size", result.Size),
	)
	util.RespondMessage(c, http.StatusCreated, "Image uploaded successfully")
}

// firstFile returns the "image" part if present, otherwise any file part
func firstFile(c *gin.Context) (*multipart.FileHeader, error) {
	if header, err := c.FormFile("image"); err == nil {
		return header, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	for _, files := range form.File {
		if len(files) > 0 {
			return files[0], nil
		}
	}
	return nil, http.ErrMissingFile
}

func readFile(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// MarkNotificationsRead marks the submitted notification ids read. The body is a JSON
// array of ids, all of which must belong to the caller.
// POST /notifications
func (h *Handlers) MarkNotificationsRead(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var ids []string
	if err := c.ShouldBindJSON(&ids); err != nil {
		util.RespondBadRequest(c, "Expected an array of notification ids")
		return
	}

	if _, err := h.store.MarkNotificationsRead(c.Request.Context(), user.Handle, ids); util.HandleStoreError(c, err, "Notification") {
		return
	}

	util.RespondMessage(c, http.StatusOK, "Notification marked read")
}
