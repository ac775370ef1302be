package hotel

import (
	"context"
	"encoding/json"
	"time"
)

// Store is the durable Hotel Info cache keyed by (hotel_id, language).
// Implementations must be safe for concurrent use; a Put is atomic with
// respect to concurrent Gets on the same key.
type Store interface {
	// Get returns the cached entry or ErrNotFound on a miss.
	Get(ctx context.Context, hotelID, language string) (*Info, error)

	// Put replaces the payload for (hotelID, language) and advances
	// updated_at. Last writer wins; there are no merge semantics.
	Put(ctx context.Context, hotelID, language string, payload json.RawMessage) error

	// PutBatch upserts a batch of entries inside a single transaction.
	PutBatch(ctx context.Context, infos []Info) error

	// Count returns the number of cached entries across all languages.
	Count(ctx context.Context) (int64, error)

	// LastUpdated returns the newest updated_at in the store, or nil when
	// the store is empty.
	LastUpdated(ctx context.Context) (*time.Time, error)
}
