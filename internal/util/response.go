package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/screams/backend/internal/errors"
	"github.com/zfogg/screams/backend/internal/logger"
	"go.uber.org/zap"
)

// RespondWithAPIError logs the error and writes its body
func RespondWithAPIError(c *gin.Context, apiErr *errors.APIError) {
	fields := []zap.Field{
		zap.String("code", string(apiErr.Code)),
		zap.String("message", apiErr.Error()),
		zap.Int("status", apiErr.Status),
		zap.String("path", c.FullPath()),
	}
	if requestID := c.GetString("request_id"); requestID != "" {
		fields = append(fields, logger.WithRequestID(requestID))
	}

	if apiErr.Status >= http.StatusInternalServerError {
		logger.Log.Error("API error", fields...)
	} else if apiErr.Status >= http.StatusBadRequest {
		logger.Log.Warn("API error", fields...)
	}

	c.AbortWithStatusJSON(apiErr.Status, apiErr.Body())
}

// RespondUnauthorized sends a 401 Unauthorized response
func RespondUnauthorized(c *gin.Context, message ...string) {
	msg := "Unauthorized"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, errors.Unauthorized(msg))
}

// RespondNotFound sends a 404 Not Found response
func RespondNotFound(c *gin.Context, resource string) {
	RespondWithAPIError(c, errors.NotFound(resource))
}

// RespondBadRequest sends a 400 Bad Request response
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.BadRequest(message))
}

// RespondForbidden sends a 403 Forbidden response
func RespondForbidden(c *gin.Context, message string) {
	RespondWithAPIError(c, errors.Forbidden(message))
}

// RespondValidation sends the field-keyed 400 body
func RespondValidation(c *gin.Context, fields map[string]string) {
	RespondWithAPIError(c, errors.Validation(fields))
}

// RespondInternalError sends a 500 carrying the underlying error's message
func RespondInternalError(c *gin.Context, err error) {
	msg := "Something went wrong"
	if err != nil {
		msg = err.Error()
	}
	RespondWithAPIError(c, errors.InternalError(msg))
}

// RespondMessage sends {"message": msg}
func RespondMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}
