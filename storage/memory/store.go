package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/poiesic/docingest/storage"
)

// object is one stored value with its descriptive metadata.
type object struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

// Store implements storage.ObjectStore entirely in process memory.
// It exists for tests and local experiments; contents vanish with the
// process.
type Store struct {
	mu      sync.RWMutex
	buckets map[string]map[string]object
}

var _ storage.ObjectStore = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		buckets: make(map[string]map[string]object),
	}
}

// BucketExists reports whether the bucket exists.
func (s *Store) BucketExists(ctx context.Context, bucket string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.buckets[bucket]
	return ok, nil
}

// EnsureBucket creates the bucket if it does not already exist.
func (s *Store) EnsureBucket(ctx context.Context, bucket string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.buckets[bucket]; !ok {
		s.buckets[bucket] = make(map[string]object)
	}
	return nil
}

// List returns info for every object under the given prefix in key order.
func (s *Store) List(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
	}

	var infos []storage.ObjectInfo
	for key, obj := range objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		infos = append(infos, storage.ObjectInfo{
			Key:      key,
			Size:     int64(len(obj.data)),
			Metadata: maps.Clone(obj.metadata),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

// Get returns a copy of the object's content.
func (s *Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, err := s.lookup(bucket, key)
	if err != nil {
		return nil, err
	}

	data := make([]byte, len(obj.data))
	copy(data, obj.data)
	return data, nil
}

// Put stores an object, overwriting any existing content under the key.
// The bucket is created implicitly, which keeps test setup short.
func (s *Store) Put(ctx context.Context, bucket, key string, data []byte, contentType string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	objects, ok := s.buckets[bucket]
	if !ok {
		objects = make(map[string]object)
		s.buckets[bucket] = objects
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	objects[key] = object{
		data:        stored,
		contentType: contentType,
		metadata:    maps.Clone(metadata),
	}
	return nil
}

// Stat returns info for a single object without its content.
func (s *Store) Stat(ctx context.Context, bucket, key string) (storage.ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, err := s.lookup(bucket, key)
	if err != nil {
		return storage.ObjectInfo{}, err
	}

	return storage.ObjectInfo{
		Key:      key,
		Size:     int64(len(obj.data)),
		Metadata: maps.Clone(obj.metadata),
	}, nil
}

// ContentType returns the stored content type for an object.
// Test helper; real stores report this through their native stat calls.
func (s *Store) ContentType(bucket, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, err := s.lookup(bucket, key)
	if err != nil {
		return "", err
	}
	return obj.contentType, nil
}

// lookup resolves bucket and key under the caller's lock.
func (s *Store) lookup(bucket, key string) (object, error) {
	objects, ok := s.buckets[bucket]
	if !ok {
		return object{}, fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
	}
	obj, ok := objects[key]
	if !ok {
		return object{}, fmt.Errorf("%w: %s/%s", storage.ErrNotFound, bucket, key)
	}
	return obj, nil
}
