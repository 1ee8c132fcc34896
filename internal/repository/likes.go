package repository

import (
	"context"
	"errors"

	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/models"
	"gorm.io/gorm"
)

// FindLike returns the like a handle left on a scream
func (s *Store) FindLike(ctx context.Context, handle, screamID string) (*models.Like, error) {
	var like models.Like
	err := s.db.WithContext(ctx).
		Where("user_handle = ? AND scream_id = ?", handle, screamID).
		First(&like).Error
	if err != nil {
		return nil, translate(err, "find like")
	}
	return &like, nil
}

// ListLikesByHandle returns every like a handle has left
func (s *Store) ListLikesByHandle(ctx context.Context, handle string) ([]models.Like, error) {
	var likes []models.Like
	err := s.db.WithContext(ctx).
		Where("user_handle = ?", handle).
		Find(&likes).Error
	return likes, translate(err, "list likes")
}

// LikeScream records a like and increments the counter, returning the updated scream.
// ErrNotFound if the scream is missing, ErrAlreadyLiked if the pair exists.
func (s *Store) LikeScream(ctx context.Context, handle, screamID string) (*models.Scream, error) {
	var scream *models.Scream
	err := s.transact(ctx, func(tx *gorm.DB, changes *changeSet) error {
		var before models.Scream
		if err := tx.Where("id = ?", screamID).First(&before).Error; err != nil {
			return translate(err, "get scream")
		}

		var existing int64
		if err := tx.Model(&models.Like{}).
			Where("user_handle = ? AND scream_id = ?", handle, screamID).
			Count(&existing).Error; err != nil {
			return translate(err, "find like")
		}
		if existing > 0 {
			return ErrAlreadyLiked
		}

		like := &models.Like{UserHandle: handle, ScreamID: screamID}
		if err := tx.Create(like).Error; err != nil {
			// A concurrent like won the unique index
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyLiked
			}
			return translate(err, "create like")
		}
		if err := changes.record(events.Created, models.CollectionLikes, like.ID, nil, like); err != nil {
			return err
		}

		after, err := adjustCounter(tx, changes, &before, "like_count", 1)
		if err != nil {
			return err
		}
		scream = after
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scream, nil
}

// UnlikeScream removes a like and decrements the counter, returning the updated scream.
// ErrNotFound if the scream is missing, ErrNotLiked if there is no like to remove.
func (s *Store) UnlikeScream(ctx context.Context, handle, screamID string) (*models.Scream, error) {
	var scream *models.Scream
	err := s.transact(ctx, func(tx *gorm.DB, changes *changeSet) error {
		var before models.Scream
		if err := tx.Where("id = ?", screamID).First(&before).Error; err != nil {
			return translate(err, "get scream")
		}

		var like models.Like
		err := tx.Where("user_handle = ? AND scream_id = ?", handle, screamID).First(&like).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotLiked
		}
		if err != nil {
			return translate(err, "find like")
		}

		res := tx.Delete(&like)
		if res.Error != nil {
			return translate(res.Error, "delete like")
		}
		if res.RowsAffected == 0 {
			return ErrNotLiked
		}
		if err := changes.record(events.Deleted, models.CollectionLikes, like.ID, &like, nil); err != nil {
			return err
		}

		after, err := adjustCounter(tx, changes, &before, "like_count", -1)
		if err != nil {
			return err
		}
		scream = after
		return nil
	})
	if err != nil {
		return nil, err
	}
	return scream, nil
}
