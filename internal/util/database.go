package util

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/screams/backend/internal/repository"
)

// HandleStoreError sends the response for a store error.
// Returns true if the error was handled (and a response was sent), false otherwise.
func HandleStoreError(c *gin.Context, err error, resourceName string) bool {
	if err == nil {
		return false
	}

	if stderrors.Is(err, repository.ErrNotFound) {
		RespondNotFound(c, resourceName)
		return true
	}

	RespondInternalError(c, err)
	return true
}
