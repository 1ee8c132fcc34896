package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/zfogg/screams/backend/internal/middleware"
)

// RouteOptions carries the middleware RegisterRoutes mounts in front of handlers
type RouteOptions struct {
	// Gate authenticates a request, normally middleware.AuthGate
	Gate gin.HandlerFunc
	// AuthLimit throttles signup, login and password reset. Optional.
	AuthLimit gin.HandlerFunc
	// UploadLimit throttles image uploads. Optional.
	UploadLimit gin.HandlerFunc
}

// RegisterRoutes mounts the API on r
func (h *Handlers) RegisterRoutes(r gin.IRouter, opts RouteOptions) {
	gate := opts.Gate
	if gate == nil {
		gate = middleware.AuthGate(h.auth, h.store)
	}
	authLimit := orPassThrough(opts.AuthLimit)
	uploadLimit := orPassThrough(opts.UploadLimit)

	// Screams
	r.GET("/screams", h.GetAllScreams)
	r.POST("/scream", gate, h.PostScream)
	r.GET("/scream/:screamId", h.GetScream)
	r.DELETE("/scream/:screamId", gate, h.DeleteScream)
	r.POST("/scream/:screamId/comment", gate, h.CommentOnScream)
	r.GET("/scream/:screamId/like", gate, h.LikeScream)
	r.GET("/scream/:screamId/unlike", gate, h.UnlikeScream)

	// Accounts
	r.POST("/signup", authLimit, h.SignUp)
	r.POST("/login", authLimit, h.Login)
	r.POST("/resetPassword", authLimit, h.RecoverPassword)
	r.POST("/resetPassword/confirm", authLimit, h.ConfirmPasswordReset)
	r.GET("/verifyEmail", h.ConfirmEmail)
	r.POST("/resendVerificationMail", gate, h.ResendVerificationMail)

	// Users
	r.POST("/user/image", gate, uploadLimit, h.UploadImage)
	r.GET("/user", gate, h.GetAuthenticatedUser)
	r.POST("/user", gate, h.AddUserDetails)
	r.GET("/user/:handle", h.GetUserDetails)
	r.POST("/notifications", gate, h.MarkNotificationsRead)
}

func orPassThrough(mw gin.HandlerFunc) gin.HandlerFunc {
	if mw != nil {
		return mw
	}
	return func(c *gin.Context) { c.Next() }
}
