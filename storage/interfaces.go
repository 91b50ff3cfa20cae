package storage

import (
	"context"

	"github.com/poiesic/searchit/core"
)

// TextStore provides a durable, key-unique mapping from chunk ID to chunk
// text. A single writer populates the store during an ingestion run; the
// serving layer opens a read-only consumer separately. Implementations must
// tolerate one writer and arbitrarily many concurrent readers without
// corruption.
type TextStore interface {
	// Get retrieves the text for a chunk ID.
	// Returns ErrNotFound if the ID is not present.
	Get(ctx context.Context, id core.ID) (string, error)

	// Has reports whether a chunk ID is present.
	Has(ctx context.Context, id core.ID) (bool, error)

	// Count returns the number of entries in the store.
	Count(ctx context.Context) (int, error)

	// ForEachKey iterates over all stored chunk IDs in ascending order.
	// Iteration stops on the first error returned by fn.
	ForEachKey(ctx context.Context, fn func(core.ID) error) error

	// AddBatch upserts entries. All entries are validated before anything
	// is written; an invalid batch writes nothing. Re-adding an existing ID
	// overwrites the previous text rather than duplicating the key, so a
	// partially applied batch is safe to retry.
	AddBatch(ctx context.Context, entries []core.Entry) error

	// Close closes the store and releases resources.
	Close() error
}
