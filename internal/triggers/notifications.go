package triggers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/logger"
	"github.com/zfogg/screams/backend/internal/metrics"
	"github.com/zfogg/screams/backend/internal/models"
	"github.com/zfogg/screams/backend/internal/repository"
	"go.uber.org/zap"
)

// OnLikeCreated notifies the scream's author. The notification takes the like's id so
// that unliking can find it and a redelivered event writes the same document.
func (d *Dispatcher) OnLikeCreated(ctx context.Context, e events.Event) (bool, error) {
	var like models.Like
	if err := e.DecodeAfter(&like); err != nil {
		return false, fmt.Errorf("decode like: %w", err)
	}
	return d.notify(ctx, like.ID, like.ScreamID, like.UserHandle, models.NotificationLike, like.CreatedAt)
}

// OnLikeDeleted removes the notification paired with the like
func (d *Dispatcher) OnLikeDeleted(ctx context.Context, e events.Event) (bool, error) {
	deleted, err := d.store.DeleteNotification(ctx, e.DocID)
	if err != nil {
		return false, fmt.Errorf("delete notification: %w", err)
	}
	return deleted, nil
}

// OnCommentCreated notifies the scream's author
func (d *Dispatcher) OnCommentCreated(ctx context.Context, e events.Event) (bool, error) {
	var comment models.Comment
	if err := e.DecodeAfter(&comment); err != nil {
		return false, fmt.Errorf("decode comment: %w", err)
	}
	return d.notify(ctx, comment.ID, comment.ScreamID, comment.UserHandle, models.NotificationComment, comment.CreatedAt)
}

func (d *Dispatcher) notify(ctx context.Context, id, screamID, sender, kind string, createdAt time.Time) (bool, error) {
	scream, err := d.store.GetScream(ctx, screamID)
	if errors.Is(err, repository.ErrNotFound) {
		// Scream deleted before the event was handled
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get scream: %w", err)
	}
	if scream.UserHandle == sender {
		return false, nil
	}

	n := &models.Notification{
		ID:        id,
		Recipient: scream.UserHandle,
		Sender:    sender,
		Type:      kind,
		ScreamID:  screamID,
		Read:      false,
		CreatedAt: createdAt,
	}
	created, err := d.store.PutNotification(ctx, n)
	if err != nil {
		return false, fmt.Errorf("put notification: %w", err)
	}
	if created {
		metrics.Get().NotificationsCreated.WithLabelValues(kind).Inc()
		logger.Log.Debug("Notification created",
			zap.String("notification_id", id),
			zap.String("recipient", n.Recipient),
			zap.String("type", kind),
		)
	}
	return created, nil
}
