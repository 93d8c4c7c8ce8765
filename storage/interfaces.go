package storage

import (
	"context"
	"time"

	"github.com/poiesic/chronorag/core"
)

// Snapshot is the full persisted state of the versioned store.
type Snapshot struct {
	// Documents in no particular order.
	Documents []*core.DocumentRecord

	// Chunks in ingest order.
	Chunks []*core.ChunkRecord

	// ExternalIndex maps an external id to the chunk id of its latest version.
	ExternalIndex map[string]string

	// SavedAt is set by the store on save.
	SavedAt time.Time
}

// SnapshotStore persists whole-store snapshots.
// Implementations must be thread-safe.
type SnapshotStore interface {
	// LoadSnapshot returns the last saved snapshot, or ErrSnapshotNotFound.
	LoadSnapshot(ctx context.Context) (*Snapshot, error)

	// SaveSnapshot atomically replaces the stored snapshot.
	SaveSnapshot(ctx context.Context, snap *Snapshot) error

	// Close releases resources held by the store.
	Close() error
}

// Cache is a byte-oriented key/value cache with per-entry expiry.
// Implementations must be thread-safe.
type Cache interface {
	// Set stores value under key. A non-positive ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the value for key, or ErrNotFound when missing or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Clear removes every cached entry.
	Clear(ctx context.Context) error
}
