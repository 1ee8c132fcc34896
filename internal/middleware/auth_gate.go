package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/screams/backend/internal/auth"
	"github.com/zfogg/screams/backend/internal/logger"
	"github.com/zfogg/screams/backend/internal/models"
	"github.com/zfogg/screams/backend/internal/repository"
	"github.com/zfogg/screams/backend/internal/util"
	"go.uber.org/zap"
)

// ProfileLookup resolves a verified identity to its profile
type ProfileLookup interface {
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
}

// AuthGate requires an "Authorization: Bearer <id token>" header, verifies it with
// the identity provider and attaches the caller's profile to the context.
func AuthGate(provider auth.Provider, users ProfileLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			logger.Log.Debug("No bearer token found", logger.WithIP(c.ClientIP()))
			util.RespondUnauthorized(c)
			return
		}

		claims, err := provider.VerifyToken(c.Request.Context(), token)
		if err != nil {
			logger.Log.Debug("Error while verifying token",
				logger.WithIP(c.ClientIP()),
				zap.Error(err),
			)
			util.RespondUnauthorized(c)
			return
		}

		user, err := users.GetUserByUID(c.Request.Context(), claims.UID())
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			logger.Log.Error("Failed to look up profile",
				zap.String("uid", claims.UID()),
				zap.Error(err),
			)
			util.RespondInternalError(c, err)
			return
		}
		if user == nil {
			// A verified identity without a profile document is not a usable account
			logger.Log.Warn("No profile for verified identity",
				zap.String("uid", claims.UID()),
				zap.Error(err),
			)
			util.RespondUnauthorized(c)
			return
		}

		c.Set(util.ContextUser, user)
		c.Set(util.ContextHandle, user.Handle)
		c.Set(util.ContextUID, claims.UID())
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
