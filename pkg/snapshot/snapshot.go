// Package snapshot persists laid out grids so they can be fetched or
// hydrated later without measuring again.
//
// Backends:
//   - file: JSON files in a directory (CLI, single server)
//   - mongo: a MongoDB collection (multi-instance servers)
//
// # Usage
//
//	store, err := snapshot.NewFileStore("")  // ~/.local/share/tilegrid/snapshots
//
//	rec := snapshot.New("masonry", docHash, sink.Capture(g), snapshot.DefaultTTL)
//	if err := store.Set(ctx, rec); err != nil {
//	    return err
//	}
//
//	rec, err = store.Get(ctx, id)
//	if rec == nil {
//	    // not found or expired
//	}
//	g.SetStatus(*rec.Layout.Status)
package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/tilegrid/pkg/sink"
)

// ErrInvalidID is returned for IDs that are not UUIDs.
var ErrInvalidID = errors.New("invalid snapshot id")

// DefaultTTL is how long stored snapshots are kept.
const DefaultTTL = 30 * 24 * time.Hour

// Record is one stored layout.
type Record struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	DocHash   string        `json:"doc_hash"`
	Layout    sink.Snapshot `json:"layout"`
	CreatedAt time.Time     `json:"created_at"`
	ExpiresAt time.Time     `json:"expires_at,omitzero"`
}

// New creates a record with a fresh UUID. A zero ttl never expires.
func New(kind, docHash string, layout sink.Snapshot, ttl time.Duration) *Record {
	now := time.Now().UTC()
	rec := &Record{
		ID:        uuid.NewString(),
		Kind:      kind,
		DocHash:   docHash,
		Layout:    layout,
		CreatedAt: now,
	}
	if ttl > 0 {
		rec.ExpiresAt = now.Add(ttl)
	}
	return rec
}

// IsExpired reports whether the record outlived its TTL.
func (r *Record) IsExpired() bool {
	return !r.ExpiresAt.IsZero() && time.Now().After(r.ExpiresAt)
}

// ValidateID rejects IDs that could not have come from [New]. Stores call it
// before touching the backend, so IDs are safe as file names.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// Store is the interface for snapshot storage backends.
type Store interface {
	// Get retrieves a record by ID.
	// Returns nil, nil if the record doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Record, error)

	// Set stores a record, replacing one with the same ID.
	Set(ctx context.Context, rec *Record) error

	// Delete removes a record.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired records.
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
