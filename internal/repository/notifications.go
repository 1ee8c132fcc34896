package repository

import (
	"context"
	"errors"

	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PutNotification creates a notification under its fixed id. Writing an id that already
// exists is a no-op, so redelivered trigger events do not reset the read flag.
// Reports whether a row was inserted.
func (s *Store) PutNotification(ctx context.Context, n *models.Notification) (bool, error) {
	if n == nil || n.ID == "" || n.Recipient == "" {
		return false, ErrInvalidInput
	}

	var inserted bool
	err := s.transact(ctx, func(tx *gorm.DB, changes *changeSet) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(n)
		if res.Error != nil {
			return translate(res.Error, "create notification")
		}
		if res.RowsAffected == 0 {
			return nil
		}
		inserted = true
		return changes.record(events.Created, models.CollectionNotifications, n.ID, nil, n)
	})
	return inserted, err
}

// GetNotification loads one notification
func (s *Store) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	var n models.Notification
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&n).Error; err != nil {
		return nil, translate(err, "get notification")
	}
	return &n, nil
}

// DeleteNotification removes a notification if it exists. Reports whether one was deleted.
func (s *Store) DeleteNotification(ctx context.Context, id string) (bool, error) {
	var deleted bool
	err := s.transact(ctx, func(tx *gorm.DB, changes *changeSet) error {
		var n models.Notification
		err := tx.Where("id = ?", id).First(&n).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return translate(err, "get notification")
		}
		if err := tx.Delete(&n).Error; err != nil {
			return translate(err, "delete notification")
		}
		deleted = true
		return changes.record(events.Deleted, models.CollectionNotifications, n.ID, &n, nil)
	})
	return deleted, err
}

// ListNotifications returns the newest notifications addressed to recipient
func (s *Store) ListNotifications(ctx context.Context, recipient string, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	q := s.db.WithContext(ctx).
		Where("recipient = ?", recipient).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&notifications).Error
	return notifications, translate(err, "list notifications")
}

// MarkNotificationsRead sets read=true on exactly the given ids, all or nothing.
// Every id must name a notification addressed to recipient, otherwise ErrNotFound and
// nothing changes.
func (s *Store) MarkNotificationsRead(ctx context.Context, recipient string, ids []string) (int, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return 0, nil
	}

	err := s.transact(ctx, func(tx *gorm.DB, changes *changeSet) error {
		var found []models.Notification
		if err := tx.Where("id IN ? AND recipient = ?", unique, recipient).Find(&found).Error; err != nil {
			return translate(err, "find notifications")
		}
		if len(found) != len(unique) {
			return ErrNotFound
		}

		if err := tx.Model(&models.Notification{}).
			Where("id IN ?", unique).
			Update("read", true).Error; err != nil {
			return translate(err, "mark notifications read")
		}

		for i := range found {
			if found[i].Read {
				continue
			}
			before := found[i]
			after := before
			after.Read = true
			if err := changes.record(events.Updated, models.CollectionNotifications, before.ID, &before, &after); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(unique), nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
