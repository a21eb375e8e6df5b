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


package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
)

// Metadata keys attached to cached markdown artifacts.
const (
	// MetaContentHash records the hash of the source bytes the artifact
	// was converted from.
	MetaContentHash = "Content-Hash"

	// MetaPageCount records the source document's page count.
	MetaPageCount = "Page-Count"
)

// markdownContentType is the content type cached artifacts are stored under.
const markdownContentType = "text/markdown"

// Cache wraps a DocumentConverter with artifact reuse against an object
// store. A hit requires the stored artifact's recorded content hash to
// match the source document; anything else falls through to the wrapped
// converter. Store failures degrade to a plain conversion rather than
// failing the document.
type Cache struct {
	inner  DocumentConverter
	store  storage.ObjectStore
	bucket string
	prefix string
	logger *slog.Logger
}

var _ DocumentConverter = (*Cache)(nil)

// CacheOption configures a Cache.
type CacheOption func(*Cache) error

// WithCachePrefix overrides the key prefix markdown artifacts are stored
// under. The default is "markdown/".
func WithCachePrefix(prefix string) CacheOption {
	return func(c *Cache) error {
		c.prefix = prefix
		return nil
	}
}

// WithCacheLogger sets the logger used for cache diagnostics.
func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		c.logger = logger
		return nil
	}
}

// NewCache creates a caching wrapper that stores markdown artifacts in the
// given bucket.
func NewCache(inner DocumentConverter, store storage.ObjectStore, bucket string, opts ...CacheOption) (*Cache, error) {
	if inner == nil {
		return nil, fmt.Errorf("inner converter required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("artifact bucket required")
	}

	c := &Cache{
		inner:  inner,
		store:  store,
		bucket: bucket,
		prefix: "markdown/",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "convert-cache")
	return c, nil
}

// ArtifactKey returns the object key a document's markdown is cached under.
func (c *Cache) ArtifactKey(documentID string) string {
	return c.prefix + documentID + ".md"
}

// Convert returns the cached markdown when the stored artifact matches the
// source document's content hash, converting and storing otherwise.
func (c *Cache) Convert(ctx context.Context, doc *core.Document) (*core.ConvertedDocument, error) {
	key := c.ArtifactKey(doc.ID)

	if cached, ok := c.lookup(ctx, doc, key); ok {
		return cached, nil
	}

	converted, err := c.inner.Convert(ctx, doc)
	if err != nil {
		return nil, err
	}
	c.save(ctx, doc, key, converted)
	return converted, nil
}

// lookup fetches a cached artifact if its recorded hash matches the source
// document.
func (c *Cache) lookup(ctx context.Context, doc *core.Document, key string) (*core.ConvertedDocument, bool) {
	info, err := c.store.Stat(ctx, c.bucket, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) && !errors.Is(err, storage.ErrBucketNotFound) {
			c.logger.Warn("artifact stat failed, reconverting", "key", key, "err", err)
		}
		return nil, false
	}
	if info.Metadata[MetaContentHash] != doc.ContentHash {
		return nil, false
	}
	pageCount, err := strconv.Atoi(info.Metadata[MetaPageCount])
	if err != nil {
		return nil, false
	}

	data, err := c.store.Get(ctx, c.bucket, key)
	if err != nil {
		c.logger.Warn("artifact read failed, reconverting", "key", key, "err", err)
		return nil, false
	}

	c.logger.Debug("conversion cache hit", "document_id", doc.ID, "key", key)
	return &core.ConvertedDocument{
		DocumentID:  doc.ID,
		SourceKey:   doc.Key,
		ContentHash: doc.ContentHash,
		Markdown:    string(data),
		PageCount:   pageCount,
		FromCache:   true,
	}, nil
}

// save uploads freshly converted markdown. Upload failures are logged and
// swallowed: the conversion result is still good.
func (c *Cache) save(ctx context.Context, doc *core.Document, key string, converted *core.ConvertedDocument) {
	if err := c.store.EnsureBucket(ctx, c.bucket); err != nil {
		c.logger.Warn("artifact bucket unavailable, skipping cache write",
			"bucket", c.bucket, "err", err)
		return
	}

	metadata := map[string]string{
		MetaContentHash: doc.ContentHash,
		MetaPageCount:   strconv.Itoa(converted.PageCount),
	}
	if err := c.store.Put(ctx, c.bucket, key, []byte(converted.Markdown), markdownContentType, metadata); err != nil {
		c.logger.Warn("artifact write failed", "key", key, "err", err)
	}
}
