package repository

import (
	"context"

	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/models"
	"gorm.io/gorm"
)

// ListComments returns the comments on a scream, newest first
func (s *Store) ListComments(ctx context.Context, screamID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("scream_id = ?", screamID).
		Order("created_at DESC").
		Find(&comments).Error
	return comments, translate(err, "list comments")
}

// AddComment inserts a comment and bumps the scream's comment counter in one transaction.
// Returns ErrNotFound when the scream does not exist.
func (s *Store) AddComment(ctx context.Context, comment *models.Comment) (*models.Scream, error) {
	if comment == nil || comment.ScreamID == "" || comment.UserHandle == "" {
		return nil, ErrInvalidInput
	}

	var scream *models.Scream
	err := s.transact(ctx, func(tx *gorm.DB, changes *changeSet) error {
		var before models.Scream
		if err := tx.Where("id = ?", comment.ScreamID).First(&before).Error; err != nil {
			return translate(err, "get scream")
		}

		after, err := adjustCounter(tx, changes, &before, "comment_count", 1)
		if err != nil {
			return err
		}
		scream = after

		if err := tx.Create(comment).Error; err != nil {
			return translate(err, "create comment")
		}
		return changes.record(events.Created, models.CollectionComments, comment.ID, nil, comment)
	})
	if err != nil {
		return nil, err
	}
	return scream, nil
}
