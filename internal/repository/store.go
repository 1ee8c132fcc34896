// Package repository is the document store. It keeps the five collections in SQL tables
// and reports every committed mutation as a change event, which is what the triggers
// consume.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/zfogg/screams/backend/internal/events"
	"github.com/zfogg/screams/backend/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDuplicate    = errors.New("document already exists")
	ErrAlreadyLiked = errors.New("scream already liked")
	ErrNotLiked     = errors.New("scream not liked")
)

// Store is the gorm-backed document store
type Store struct {
	db     *gorm.DB
	events events.Publisher
}

// New creates a store. A nil publisher drops change events.
func New(db *gorm.DB, publisher events.Publisher) *Store {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Store{db: db, events: publisher}
}

// DB exposes the connection for health checks and tooling
func (s *Store) DB() *gorm.DB {
	return s.db
}

// changeSet collects the events of one transaction; they are published after commit
type changeSet struct {
	events []events.Event
}

func (c *changeSet) record(kind events.Kind, collection, id string, before, after any) error {
	e, err := events.New(kind, collection, id, before, after)
	if err != nil {
		return err
	}
	c.events = append(c.events, e)
	return nil
}

// transact runs fn in a transaction and publishes its change set once committed
func (s *Store) transact(ctx context.Context, fn func(tx *gorm.DB, changes *changeSet) error) error {
	changes := &changeSet{}
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, changes)
	}); err != nil {
		return err
	}
	s.publish(ctx, changes.events...)
	return nil
}

// publish never fails the caller: the write it describes has already committed
func (s *Store) publish(ctx context.Context, evts ...events.Event) {
	if len(evts) == 0 {
		return
	}
	if err := s.events.Publish(ctx, evts...); err != nil {
		logger.Log.Error("Failed to publish change events",
			zap.Int("count", len(evts)),
			zap.String("first_topic", evts[0].Topic()),
			zap.Error(err),
		)
	}
}

// translate maps gorm errors onto the package sentinels
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}
