package index

import (
	"context"

	"github.com/poiesic/docingest/core"
)

// VectorIndex stores embedded segments in named collections.
// Implementations must be safe for concurrent use.
type VectorIndex interface {
	// EnsureCollection creates the collection with the given vector
	// dimensionality if it does not already exist. Ensuring an existing
	// collection verifies the recorded dimensionality and fails with
	// core.ErrDimensionMismatch when it disagrees.
	EnsureCollection(ctx context.Context, collection string, dimension int) error

	// Upsert writes records under their keys, overwriting existing
	// entries. Every record vector must match the collection's
	// dimensionality.
	Upsert(ctx context.Context, collection string, records []*core.IndexRecord) error

	// Exists reports, for each given key, whether a record is already
	// stored under it. A collection that does not exist yet yields all
	// false.
	Exists(ctx context.Context, collection string, keys []string) (map[string]bool, error)

	// Close releases resources held by the index.
	Close() error
}
