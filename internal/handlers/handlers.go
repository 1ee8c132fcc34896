// Package handlers implements the HTTP API: screams, comments, likes, profiles and
// notifications.
package handlers

import (
	"github.com/zfogg/screams/backend/internal/auth"
	"github.com/zfogg/screams/backend/internal/repository"
	"github.com/zfogg/screams/backend/internal/storage"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	store        *repository.Store
	auth         auth.Provider
	images       storage.ImageUploader
	imageBaseURL string
}

// NewHandlers creates a new handlers instance. imageBaseURL is where the default avatar lives.
func NewHandlers(store *repository.Store, provider auth.Provider, images storage.ImageUploader, imageBaseURL string) *Handlers {
	return &Handlers{
		store:        store,
		auth:         provider,
		images:       images,
		imageBaseURL: imageBaseURL,
	}
}
