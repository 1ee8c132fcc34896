package triggers

import (
	"context"
	"fmt"

	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/logger"
	"github.com/zfogg/screams/backend/internal/metrics"
	"github.com/zfogg/screams/backend/internal/models"
	"go.uber.org/zap"
)

// OnUserImageChanged refreshes the author image snapshot on the user's screams and
// comments. Other profile updates are ignored.
func (d *Dispatcher) OnUserImageChanged(ctx context.Context, e events.Event) (bool, error) {
	var before, after models.User
	if err := e.DecodeBefore(&before); err != nil {
		return false, fmt.Errorf("decode user before: %w", err)
	}
	if err := e.DecodeAfter(&after); err != nil {
		return false, fmt.Errorf("decode user after: %w", err)
	}
	if before.ImageURL == after.ImageURL {
		return false, nil
	}

	updated, err := d.store.UpdateAuthorImage(ctx, after.Handle, after.ImageURL)
	if err != nil {
		return false, fmt.Errorf("update author image: %w", err)
	}

	logger.Log.Info("Author image propagated",
		logger.WithHandle(after.Handle),
		zap.Int64("documents", updated),
	)
	return true, nil
}

// OnScreamDeleted removes the scream's comments, likes and notifications
func (d *Dispatcher) OnScreamDeleted(ctx context.Context, e events.Event) (bool, error) {
	result, err := d.store.CascadeDeleteScream(ctx, e.DocID)
	if err != nil {
		return false, fmt.Errorf("cascade delete: %w", err)
	}

	m := metrics.Get()
	m.CascadeDeletedTotal.WithLabelValues(models.CollectionComments).Add(float64(result.Comments))
	m.CascadeDeletedTotal.WithLabelValues(models.CollectionLikes).Add(float64(result.Likes))
	m.CascadeDeletedTotal.WithLabelValues(models.CollectionNotifications).Add(float64(result.Notifications))

	if result.Total() > 0 {
		logger.Log.Info("Scream cascade deleted",
			logger.WithScreamID(e.DocID),
			zap.Int("comments", result.Comments),
			zap.Int("likes", result.Likes),
			zap.Int("notifications", result.Notifications),
		)
	}
	return result.Total() > 0, nil
}
