// Package triggers keeps derived state consistent by reacting to document change events:
// notifications for likes and comments, author image snapshots, and cascading deletes.
//
// Every handler is safe to run more than once for the same event.
package triggers

import (
	"context"
	"time"

	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/logger"
	"github.com/zfogg/screams/backend/internal/metrics"
	"github.com/zfogg/screams/backend/internal/models"
	"github.com/zfogg/screams/backend/internal/repository"
	"github.com/zfogg/screams/backend/internal/telemetry"
	"go.uber.org/zap"
)

// Store is the part of the document store the triggers write through
type Store interface {
	GetScream(ctx context.Context, id string) (*models.Scream, error)
	PutNotification(ctx context.Context, n *models.Notification) (bool, error)
	DeleteNotification(ctx context.Context, id string) (bool, error)
	UpdateAuthorImage(ctx context.Context, handle, imageURL string) (int64, error)
	CascadeDeleteScream(ctx context.Context, screamID string) (repository.CascadeResult, error)
}

// Outcome of a trigger run, used as the status label
const (
	statusSuccess = "success"
	statusSkipped = "skipped"
	statusError   = "error"
)

type trigger struct {
	name string
	fn   func(ctx context.Context, e events.Event) (applied bool, err error)
}

// Dispatcher routes change events to the trigger registered for their topic
type Dispatcher struct {
	store  Store
	routes map[string]trigger
}

// NewDispatcher registers the consistency triggers
func NewDispatcher(store Store) *Dispatcher {
	d := &Dispatcher{store: store}
	d.routes = map[string]trigger{
		events.Topic(models.CollectionLikes, events.Created):    {"createNotificationOnLike", d.OnLikeCreated},
		events.Topic(models.CollectionLikes, events.Deleted):    {"deleteNotificationOnUnlike", d.OnLikeDeleted},
		events.Topic(models.CollectionComments, events.Created): {"createNotificationOnComment", d.OnCommentCreated},
		events.Topic(models.CollectionUsers, events.Updated):    {"onUserImageChange", d.OnUserImageChanged},
		events.Topic(models.CollectionScreams, events.Deleted):  {"onScreamDelete", d.OnScreamDeleted},
	}
	return d
}

// Topics lists the topics the dispatcher handles
func (d *Dispatcher) Topics() []string {
	topics := make([]string, 0, len(d.routes))
	for topic := range d.routes {
		topics = append(topics, topic)
	}
	return topics
}

// Handle runs the trigger for e. Events nobody listens to are ignored.
// It has the events.Handler signature so it can be passed to any consumer.
func (d *Dispatcher) Handle(ctx context.Context, e events.Event) error {
	t, ok := d.routes[e.Topic()]
	if !ok {
		return nil
	}

	ctx, span := telemetry.StartTriggerSpan(ctx, e.Topic(), e.ID, e.DocID)
	start := time.Now()

	applied, err := t.fn(ctx, e)

	m := metrics.Get()
	m.TriggerDuration.WithLabelValues(t.name).Observe(time.Since(start).Seconds())
	telemetry.EndSpan(span, err)

	switch {
	case err != nil:
		m.TriggerEventsTotal.WithLabelValues(t.name, statusError).Inc()
		logger.Log.Error("Trigger failed",
			zap.String("trigger", t.name),
			logger.WithEventID(e.ID),
			zap.String("doc_id", e.DocID),
			zap.Error(err),
		)
	case applied:
		m.TriggerEventsTotal.WithLabelValues(t.name, statusSuccess).Inc()
	default:
		m.TriggerEventsTotal.WithLabelValues(t.name, statusSkipped).Inc()
		logger.Log.Debug("Trigger skipped",
			zap.String("trigger", t.name),
			logger.WithEventID(e.ID),
		)
	}
	return err
}
