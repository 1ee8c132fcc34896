package triggers

import (
	"context"
	"sync"

	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/logger"
)

// Worker feeds a consumer's events through a Dispatcher in the background
type Worker struct {
	consumer   events.Consumer
	dispatcher *Dispatcher

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

// NewWorker creates a stopped worker
func NewWorker(consumer events.Consumer, dispatcher *Dispatcher) *Worker {
	return &Worker{
		consumer:   consumer,
		dispatcher: dispatcher,
	}
}

// Start launches the consumer. Calling Start on a running worker does nothing.
func (w *Worker) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		if err := w.consumer.Run(ctx, w.dispatcher.Handle); err != nil {
			logger.ErrorWithFields("Trigger consumer stopped", err)
		}
	}(w.done)
}

// Stop cancels the consumer and waits for in-flight events to finish
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	logger.Log.Info("Trigger worker stopped")
}

// Run blocks until ctx is done; used by the standalone worker binary
func (w *Worker) Run(ctx context.Context) error {
	return w.consumer.Run(ctx, w.dispatcher.Handle)
}
