// Package events carries document change notifications from the store to the triggers.
//
// The repository publishes one Event per document it creates, updates or deletes, after
// the write has committed. Consumers receive events at least once and in no particular
// order, so handlers must tolerate redelivery.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind is the type of mutation
type Kind string

const (
	Created Kind = "created"
	Updated Kind = "updated"
	Deleted Kind = "deleted"
)

// Event is a change record for a single document
type Event struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	Collection string          `json:"collection"`
	DocID      string          `json:"docId"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// New builds an event, snapshotting before/after as JSON. Either may be nil.
func New(kind Kind, collection, docID string, before, after any) (Event, error) {
	e := Event{
		ID:         uuid.New().String(),
		Kind:       kind,
		Collection: collection,
		DocID:      docID,
		OccurredAt: time.Now().UTC(),
	}
	var err error
	if before != nil {
		if e.Before, err = json.Marshal(before); err != nil {
			return Event{}, fmt.Errorf("failed to encode before snapshot: %w", err)
		}
	}
	if after != nil {
		if e.After, err = json.Marshal(after); err != nil {
			return Event{}, fmt.Errorf("failed to encode after snapshot: %w", err)
		}
	}
	return e, nil
}

// Topic is "<collection>/<kind>", the key triggers are registered under
func (e Event) Topic() string {
	return Topic(e.Collection, e.Kind)
}

// Topic builds a routing key
func Topic(collection string, kind Kind) string {
	return collection + "/" + string(kind)
}

// DecodeBefore unmarshals the pre-mutation snapshot
func (e Event) DecodeBefore(v any) error {
	if len(e.Before) == 0 {
		return fmt.Errorf("event %s has no before snapshot", e.ID)
	}
	return json.Unmarshal(e.Before, v)
}

// DecodeAfter unmarshals the post-mutation snapshot
func (e Event) DecodeAfter(v any) error {
	if len(e.After) == 0 {
		return fmt.Errorf("event %s has no after snapshot", e.ID)
	}
	return json.Unmarshal(e.After, v)
}

// DecodeDocument unmarshals the snapshot that describes the document: the new state for
// creates and updates, the last state for deletes
func (e Event) DecodeDocument(v any) error {
	if e.Kind == Deleted {
		return e.DecodeBefore(v)
	}
	return e.DecodeAfter(v)
}

// Handler processes one event
type Handler func(ctx context.Context, e Event) error

// Publisher sends events to whoever consumes them
type Publisher interface {
	Publish(ctx context.Context, evts ...Event) error
}

// Consumer delivers published events to a handler until ctx is done
type Consumer interface {
	Run(ctx context.Context, h Handler) error
}

// Discard is a Publisher that drops everything
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, ...Event) error { return nil }
