// Package journal records which subscribers failed in which dispatch.
//
// A journal is an audit trail: entries are written after a dispatch has
// joined and are never replayed. Publishers write to it when configured
// with multicast.WithJournal.
package journal

import (
	"context"
	"errors"
	"time"
)

// Store persists journal entries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Record appends an entry. A zero Timestamp is set to the current time.
	Record(ctx context.Context, entry Entry) error

	// List returns the entries for one dispatch ordered by handler index.
	// Returns an empty slice (not error) for an unknown dispatch.
	List(ctx context.Context, dispatchID string) ([]Entry, error)

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Entry describes one subscriber that did not succeed.
type Entry struct {
	DispatchID string
	Index      int    // position of the handler in the dispatch snapshot
	Subscriber string // subscription name, or its ID when unnamed
	Outcome    string // "failure" or "cancelled"
	Message    string
	Timestamp  time.Time
}

// ErrStoreClosed indicates the store has been closed.
var ErrStoreClosed = errors.New("journal store closed")
