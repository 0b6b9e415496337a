// Package eventstore persists the history journal: an append-only log of
// history transitions per layout document, stored in SQLite.
package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, documentID, eventType string, payload []byte, metadata map[string]string) error

	// GetByDocument retrieves all events for a document in append order.
	GetByDocument(ctx context.Context, documentID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}
