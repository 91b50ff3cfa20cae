package index

import (
	"context"

	"github.com/poiesic/searchit/core"
)

// Engine is an opaque vector index capability: it stores (id, vector) pairs
// and answers nearest-neighbor queries with its own similarity scoring.
// Higher scores are more similar; the exact metric is engine-defined.
// Implementations must support concurrent read-only queries.
type Engine interface {
	// Add commits (id, vector) pairs to the index. ids and vectors must be
	// the same length and positionally aligned. Add is append-only from the
	// caller's perspective within one ingestion run; the first call may
	// trigger the engine's one-time structural initialization.
	Add(ctx context.Context, ids []core.ID, vectors [][]float32) error

	// Query returns the engine's top k nearest entries for the vector, in
	// the engine's own return convention. Callers resolve the shape once
	// via Raw.Normalize and never look at the raw form downstream.
	Query(ctx context.Context, vector []float32, k int) (*Raw, error)

	// Count returns the number of indexed entries.
	Count() (int, error)

	// Close closes the engine and releases resources.
	Close() error
}
