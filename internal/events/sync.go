package events

import (
	"context"
	"errors"
	"sync"
)

// SyncBus calls its handler inline from Publish. Tests and the Lambda entry use it so
// that a request and all the fan-out it causes complete before Publish returns.
type SyncBus struct {
	mu      sync.RWMutex
	handler Handler
}

// NewSyncBus creates a bus with no handler; events are dropped until SetHandler is called
func NewSyncBus() *SyncBus {
	return &SyncBus{}
}

// SetHandler installs the handler, typically a trigger dispatcher
func (b *SyncBus) SetHandler(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handler = h
}

// Publish runs the handler for each event and joins their errors
func (b *SyncBus) Publish(ctx context.Context, evts ...Event) error {
	b.mu.RLock()
	h := b.handler
	b.mu.RUnlock()
	if h == nil {
		return nil
	}

	var errs []error
	for _, e := range evts {
		if err := h(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
