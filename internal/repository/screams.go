package repository

import (
	"context"

	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/models"
	"gorm.io/gorm"
)

// ListScreams returns every scream, newest first
func (s *Store) ListScreams(ctx context.Context) ([]models.Scream, error) {
	var screams []models.Scream
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&screams).Error
	return screams, translate(err, "list screams")
}

// ListScreamsByHandle returns one author's screams, newest first
func (s *Store) ListScreamsByHandle(ctx context.Context, handle string) ([]models.Scream, error) {
	var screams []models.Scream
	err := s.db.WithContext(ctx).
		Where("user_handle = ?", handle).
		Order("created_at DESC").
		Find(&screams).Error
	return screams, translate(err, "list screams by handle")
}

// GetScream loads one scream
func (s *Store) GetScream(ctx context.Context, id string) (*models.Scream, error) {
	var scream models.Scream
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&scream).Error
	if err != nil {
		return nil, translate(err, "get scream")
	}
	return &scream, nil
}

// CreateScream inserts a scream with zeroed counters
func (s *Store) CreateScream(ctx context.Context, scream *models.Scream) error {
	if scream == nil || scream.UserHandle == "" {
		return ErrInvalidInput
	}
	scream.LikeCount = 0
	scream.CommentCount = 0

	return s.transact(ctx, func(tx *gorm.DB, changes *changeSet) error {
		if err := tx.Create(scream).Error; err != nil {
			return translate(err, "create scream")
		}
		return changes.record(events.Created, models.CollectionScreams, scream.ID, nil, scream)
	})
}

// DeleteScream removes a scream. Its comments, likes and notifications are removed by the
// screams/deleted trigger, not here.
func (s *Store) DeleteScream(ctx context.Context, id string) error {
	return s.transact(ctx, func(tx *gorm.DB, changes *changeSet) error {
		var scream models.Scream
		if err := tx.Where("id = ?", id).First(&scream).Error; err != nil {
			return translate(err, "delete scream")
		}
		if err := tx.Delete(&scream).Error; err != nil {
			return translate(err, "delete scream")
		}
		return changes.record(events.Deleted, models.CollectionScreams, scream.ID, &scream, nil)
	})
}

// UpdateAuthorImage rewrites the author image snapshot on every scream and comment by handle.
// Returns the number of screams updated.
func (s *Store) UpdateAuthorImage(ctx context.Context, handle, imageURL string) (int64, error) {
	var updated int64
	err := s.transact(ctx, func(tx *gorm.DB, changes *changeSet) error {
		var screams []models.Scream
		if err := tx.Where("user_handle = ? AND user_image <> ?", handle, imageURL).Find(&screams).Error; err != nil {
			return translate(err, "find author screams")
		}
		if len(screams) > 0 {
			res := tx.Model(&models.Scream{}).
				Where("user_handle = ?", handle).
				Update("user_image", imageURL)
			if res.Error != nil {
				return translate(res.Error, "update author screams")
			}
			updated = int64(len(screams))
		}
		for i := range screams {
			before := screams[i]
			after := before
			after.UserImage = imageURL
			if err := changes.record(events.Updated, models.CollectionScreams, before.ID, &before, &after); err != nil {
				return err
			}
		}

		var comments []models.Comment
		if err := tx.Where("user_handle = ? AND user_image <> ?", handle, imageURL).Find(&comments).Error; err != nil {
			return translate(err, "find author comments")
		}
		if len(comments) == 0 {
			return nil
		}
		if err := tx.Model(&models.Comment{}).
			Where("user_handle = ?", handle).
			Update("user_image", imageURL).Error; err != nil {
			return translate(err, "update author comments")
		}
		for i := range comments {
			before := comments[i]
			after := before
			after.UserImage = imageURL
			if err := changes.record(events.Updated, models.CollectionComments, before.ID, &before, &after); err != nil {
				return err
			}
		}
		return nil
	})
	return updated, err
}

// adjustCounter applies an atomic col = col + delta and records the scream update
func adjustCounter(tx *gorm.DB, changes *changeSet, before *models.Scream, column string, delta int) (*models.Scream, error) {
	if err := tx.Model(&models.Scream{}).
		Where("id = ?", before.ID).
		Update(column, gorm.Expr(column+" + ?", delta)).Error; err != nil {
		return nil, translate(err, "update "+column)
	}

	var after models.Scream
	if err := tx.Where("id = ?", before.ID).First(&after).Error; err != nil {
		return nil, translate(err, "reload scream")
	}
	if err := changes.record(events.Updated, models.CollectionScreams, after.ID, before, &after); err != nil {
		return nil, err
	}
	return &after, nil
}
