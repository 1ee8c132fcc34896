package events

import (
	"context"
	"sync"

	"github.com/zfogg/screams/backend/internal/logger"
	"go.uber.org/zap"
)

// MemoryBus is an in-process queue used when no Redis is configured.
// The queue grows as needed so Publish never waits on a consumer; triggers publish into
// the same bus they are drained from.
type MemoryBus struct {
	mu      sync.Mutex
	queue   []Event
	ready   chan struct{}
	workers int
}

// NewMemoryBus creates a bus with the given initial capacity and worker count
func NewMemoryBus(capacity, workers int) *MemoryBus {
	if capacity <= 0 {
		capacity = 1024
	}
	if workers <= 0 {
		workers = 1
	}
	return &MemoryBus{
		queue:   make([]Event, 0, capacity),
		ready:   make(chan struct{}, 1),
		workers: workers,
	}
}

// Publish enqueues events
func (b *MemoryBus) Publish(ctx context.Context, evts ...Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(evts) == 0 {
		return nil
	}

	b.mu.Lock()
	b.queue = append(b.queue, evts...)
	b.mu.Unlock()
	b.signal()
	return nil
}

// Pending returns the number of queued events
func (b *MemoryBus) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

func (b *MemoryBus) signal() {
	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// next pops the oldest event, waking another worker if more remain
func (b *MemoryBus) next() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.queue) == 0 {
		return Event{}, false
	}
	e := b.queue[0]
	b.queue[0] = Event{}
	b.queue = b.queue[1:]
	if len(b.queue) > 0 {
		b.signal()
	}
	return e, true
}

// Run starts the workers and blocks until ctx is done
func (b *MemoryBus) Run(ctx context.Context, h Handler) error {
	logger.Log.Info("Starting in-process event bus", zap.Int("workers", b.workers))

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for ctx.Err() == nil {
				e, ok := b.next()
				if !ok {
					select {
					case <-ctx.Done():
						return
					case <-b.ready:
					}
					continue
				}
				if err := h(ctx, e); err != nil {
					logger.Log.Error("Event handler failed",
						logger.WithEventID(e.ID),
						zap.String("topic", e.Topic()),
						zap.Int("worker", workerID),
						zap.Error(err),
					)
				}
			}
		}(i)
	}

	wg.Wait()
	return nil
}
