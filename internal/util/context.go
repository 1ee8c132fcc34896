package util

import (
	"github.com/gin-gonic/gin"
	"github.com/zfogg/screams/backend/internal/models"
)

// Context keys set by the auth gate
const (
	ContextUser   = "user"
	ContextHandle = "handle"
	ContextUID    = "uid"
)

// GetUserFromContext extracts the authenticated profile from the Gin context.
// If the request is not authenticated it responds with 401 and returns false.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextUser)
	if !exists {
		RespondUnauthorized(c)
		return nil, false
	}
	user, ok := value.(*models.User)
	if !ok || user == nil {
		RespondUnauthorized(c)
		return nil, false
	}
	return user, true
}

// GetUIDFromContext returns the verified identity uid
func GetUIDFromContext(c *gin.Context) (string, bool) {
	uid := c.GetString(ContextUID)
	if uid == "" {
		RespondUnauthorized(c)
		return "", false
	}
	return uid, true
}
