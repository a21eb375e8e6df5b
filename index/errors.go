package index

import "errors"

var (
	// ErrCollectionNotFound indicates a write to a collection that has not
	// been created.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidDimension indicates a non-positive vector dimensionality.
	ErrInvalidDimension = errors.New("invalid vector dimension")
)
