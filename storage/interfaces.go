package storage

import "context"

// ObjectInfo describes a stored object without its content.
type ObjectInfo struct {
	Key      string
	Size     int64
	Metadata map[string]string
}

// ObjectStore provides access to bucket-organized object storage.
// Implementations must be safe for concurrent use.
type ObjectStore interface {
	// BucketExists reports whether the bucket exists.
	BucketExists(ctx context.Context, bucket string) (bool, error)

	// EnsureBucket creates the bucket if it does not already exist.
	EnsureBucket(ctx context.Context, bucket string) error

	// List returns info for every object under the given prefix, in
	// lexical key order. An empty prefix lists the whole bucket.
	// Returns ErrBucketNotFound for a missing bucket.
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)

	// Get returns the full content of an object.
	// Returns ErrNotFound if the object does not exist.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// Put stores an object with the given content type and user metadata.
	// Existing content under the same key is overwritten.
	Put(ctx context.Context, bucket, key string, data []byte, contentType string, metadata map[string]string) error

	// Stat returns info for a single object without fetching its content.
	// Returns ErrNotFound if the object does not exist.
	Stat(ctx context.Context, bucket, key string) (ObjectInfo, error)
}
