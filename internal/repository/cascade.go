package repository

import (
	"context"

	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/models"
	"gorm.io/gorm"
)

// CascadeResult counts the documents removed by CascadeDeleteScream
type CascadeResult struct {
	Comments      int
	Likes         int
	Notifications int
}

// Total is the number of documents removed
func (r CascadeResult) Total() int {
	return r.Comments + r.Likes + r.Notifications
}

// CascadeDeleteScream removes every comment, like and notification that targets screamID in
// one transaction. Safe to repeat: a second run finds nothing to delete.
func (s *Store) CascadeDeleteScream(ctx context.Context, screamID string) (CascadeResult, error) {
	var result CascadeResult
	err := s.transact(ctx, func(tx *gorm.DB, changes *changeSet) error {
		var comments []models.Comment
		if err := tx.Where("scream_id = ?", screamID).Find(&comments).Error; err != nil {
			return translate(err, "find comments")
		}
		var likes []models.Like
		if err := tx.Where("scream_id = ?", screamID).Find(&likes).Error; err != nil {
			return translate(err, "find likes")
		}
		var notifications []models.Notification
		if err := tx.Where("scream_id = ?", screamID).Find(&notifications).Error; err != nil {
			return translate(err, "find notifications")
		}

		if len(comments) > 0 {
			if err := tx.Where("scream_id = ?", screamID).Delete(&models.Comment{}).Error; err != nil {
				return translate(err, "delete comments")
			}
		}
		if len(likes) > 0 {
			if err := tx.Where("scream_id = ?", screamID).Delete(&models.Like{}).Error; err != nil {
				return translate(err, "delete likes")
			}
		}
		if len(notifications) > 0 {
			if err := tx.Where("scream_id = ?", screamID).Delete(&models.Notification{}).Error; err != nil {
				return translate(err, "delete notifications")
			}
		}

		for i := range comments {
			if err := changes.record(events.Deleted, models.CollectionComments, comments[i].ID, &comments[i], nil); err != nil {
				return err
			}
		}
		for i := range likes {
			if err := changes.record(events.Deleted, models.CollectionLikes, likes[i].ID, &likes[i], nil); err != nil {
				return err
			}
		}
		for i := range notifications {
			if err := changes.record(events.Deleted, models.CollectionNotifications, notifications[i].ID, &notifications[i], nil); err != nil {
				return err
			}
		}

		result = CascadeResult{
			Comments:      len(comments),
			Likes:         len(likes),
			Notifications: len(notifications),
		}
		return nil
	})
	return result, err
}
