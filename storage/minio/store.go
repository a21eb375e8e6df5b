// Copyright 2026 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/poiesic/docingest/storage"
)

// Config holds connection settings for a MinIO or S3-compatible endpoint.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Secure    bool
}

// Store implements storage.ObjectStore backed by MinIO.
type Store struct {
	client *minio.Client
	logger *slog.Logger
}

var _ storage.ObjectStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates a client for the configured endpoint. The connection is
// lazy; the first operation surfaces reachability problems.
func NewStore(config Config, opts ...Option) (*Store, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint required")
	}

	client, err := minio.New(config.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKey, config.SecretKey, ""),
		Secure: config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	store := &Store{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(store); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// BucketExists reports whether the bucket exists.
func (s *Store) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, fmt.Errorf("failed to check bucket %q: %w", bucket, err)
	}
	return exists, nil
}

// EnsureBucket creates the bucket if it does not already exist.
func (s *Store) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %q: %w", bucket, err)
	}
	if exists {
		return nil
	}

	s.logger.Info("creating bucket", "bucket", bucket)
	if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		// Another writer may have created it between the check and here.
		if resp := minio.ToErrorResponse(err); resp.Code == "BucketAlreadyOwnedByYou" || resp.Code == "BucketAlreadyExists" {
			return nil
		}
		return fmt.Errorf("failed to create bucket %q: %w", bucket, err)
	}
	return nil
}

// List returns info for every object under the given prefix.
func (s *Store) List(ctx context.Context, bucket, prefix string) ([]storage.ObjectInfo, error) {
	var infos []storage.ObjectInfo
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			if isNoSuchBucket(obj.Err) {
				return nil, fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
			}
			return nil, fmt.Errorf("failed to list bucket %q: %w", bucket, obj.Err)
		}
		infos = append(infos, storage.ObjectInfo{
			Key:      obj.Key,
			Size:     obj.Size,
			Metadata: obj.UserMetadata,
		})
	}
	return infos, nil
}

// Get returns the full content of an object.
func (s *Store) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapObjectError(bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapObjectError(bucket, key, err)
	}
	return data, nil
}

// Put stores an object with the given content type and user metadata.
func (s *Store) Put(ctx context.Context, bucket, key string, data []byte, contentType string, metadata map[string]string) error {
	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Stat returns info for a single object without fetching its content.
func (s *Store) Stat(ctx context.Context, bucket, key string) (storage.ObjectInfo, error) {
	info, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return storage.ObjectInfo{}, s.mapObjectError(bucket, key, err)
	}
	return storage.ObjectInfo{
		Key:      info.Key,
		Size:     info.Size,
		Metadata: userMetadata(info),
	}, nil
}

// mapObjectError translates minio error responses to storage sentinels.
// NoSuchBucket must be checked before the status code: bucket errors also
// arrive as 404s.
func (s *Store) mapObjectError(bucket, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchBucket":
		return fmt.Errorf("%w: %s", storage.ErrBucketNotFound, bucket)
	case resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s/%s", storage.ErrNotFound, bucket, key)
	default:
		return fmt.Errorf("failed to read %s/%s: %w", bucket, key, err)
	}
}

func isNoSuchBucket(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchBucket"
}

// userMetadata extracts custom metadata from a stat response. Depending on
// the server, user metadata arrives either in UserMetadata or as
// X-Amz-Meta-* headers, so both are merged.
func userMetadata(info minio.ObjectInfo) map[string]string {
	meta := make(map[string]string, len(info.UserMetadata))
	for k, v := range info.UserMetadata {
		meta[k] = v
	}
	// Header keys arrive canonicalized, so a plain prefix check is enough.
	const headerPrefix = "X-Amz-Meta-"
	for k, values := range info.Metadata {
		if len(values) == 0 || !strings.HasPrefix(k, headerPrefix) {
			continue
		}
		name := strings.TrimPrefix(k, headerPrefix)
		if _, present := meta[name]; !present {
			meta[name] = values[0]
		}
	}
	return meta
}
