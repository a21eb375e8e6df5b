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


// Package pgvector implements index.VectorIndex on PostgreSQL with the
// pgvector extension. Each collection maps to one table with a typed
// vector column; the vector_collections table records each collection's
// dimensionality.
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvec "github.com/pgvector/pgvector-go"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/index"
)

// Config carries connection settings for the Postgres-backed index.
type Config struct {
	// DSN is a libpq-style connection string or postgres:// URL.
	DSN string
}

// Index implements index.VectorIndex against Postgres + pgvector.
type Index struct {
	pool   *pgxpool.Pool
	logger *slog.Logger

	mu   sync.Mutex
	dims map[string]int
}

var _ index.VectorIndex = (*Index)(nil)

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets the logger for the index.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		i.logger = logger
		return nil
	}
}

// NewIndex connects to Postgres and verifies the connection.
func NewIndex(ctx context.Context, config Config, opts ...Option) (*Index, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("postgres DSN required")
	}

	idx := &Index{
		logger: slog.Default(),
		dims:   make(map[string]int),
	}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}
	idx.logger = idx.logger.With("component", "pgvector-index")

	pool, err := pgxpool.New(ctx, config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	idx.pool = pool

	return idx, nil
}

// Close releases the connection pool.
func (i *Index) Close() error {
	i.pool.Close()
	return nil
}

// Collection names become table names, so they are restricted to
// identifiers Postgres will neither fold nor quote. The length cap leaves
// room for the derived similarity index name within Postgres's 63-byte
// identifier limit.
var collectionNameRE = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

const maxCollectionNameLen = 48

func validateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name required")
	}
	if len(name) > maxCollectionNameLen {
		return fmt.Errorf("collection name %q exceeds %d characters", name, maxCollectionNameLen)
	}
	if !collectionNameRE.MatchString(name) {
		return fmt.Errorf("collection name %q must consist of lowercase letters, digits and underscores", name)
	}
	return nil
}

const createMetaTableSQL = `CREATE TABLE IF NOT EXISTS vector_collections (
    name text PRIMARY KEY,
    dimension integer NOT NULL
)`

func createTableSQL(collection string, dimension int) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    key text PRIMARY KEY,
    document_id text NOT NULL,
    run_id text NOT NULL,
    ordinal integer NOT NULL,
    content text NOT NULL,
    embedding vector(%d) NOT NULL
)`, pgx.Identifier{collection}.Sanitize(), dimension)
}

func createIndexSQL(collection string) string {
	return fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING hnsw (embedding vector_cosine_ops)`,
		pgx.Identifier{collection + "_embedding_idx"}.Sanitize(),
		pgx.Identifier{collection}.Sanitize())
}

func upsertSQL(collection string) string {
	return fmt.Sprintf(`INSERT INTO %s (key, document_id, run_id, ordinal, content, embedding)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (key) DO UPDATE SET
    document_id = EXCLUDED.document_id,
    run_id = EXCLUDED.run_id,
    ordinal = EXCLUDED.ordinal,
    content = EXCLUDED.content,
    embedding = EXCLUDED.embedding`, pgx.Identifier{collection}.Sanitize())
}

func existsSQL(collection string) string {
	return fmt.Sprintf(`SELECT key FROM %s WHERE key = ANY($1)`, pgx.Identifier{collection}.Sanitize())
}

// EnsureCollection enables the pgvector extension, creates the collection
// table and its similarity index on first use, and verifies the recorded
// dimensionality on subsequent calls.
func (i *Index) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if err := validateCollectionName(collection); err != nil {
		return err
	}
	if dimension < 1 {
		return fmt.Errorf("%w: %d", index.ErrInvalidDimension, dimension)
	}

	tx, err := i.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("failed to enable pgvector extension: %w", err)
	}
	if _, err := tx.Exec(ctx, createMetaTableSQL); err != nil {
		return fmt.Errorf("failed to create collection metadata table: %w", err)
	}

	var existing int
	err = tx.QueryRow(ctx, `SELECT dimension FROM vector_collections WHERE name = $1`, collection).Scan(&existing)
	if err == nil {
		if existing != dimension {
			return fmt.Errorf("%w: collection %s has dimension %d, want %d",
				core.ErrDimensionMismatch, collection, existing, dimension)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit transaction: %w", err)
		}
		i.rememberDimension(collection, existing)
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to read collection metadata: %w", err)
	}

	if _, err := tx.Exec(ctx, createTableSQL(collection, dimension)); err != nil {
		return fmt.Errorf("failed to create collection table: %w", err)
	}
	if _, err := tx.Exec(ctx, createIndexSQL(collection)); err != nil {
		return fmt.Errorf("failed to create similarity index: %w", err)
	}
	if _, err := tx.Exec(ctx, `INSERT INTO vector_collections (name, dimension) VALUES ($1, $2)`,
		collection, dimension); err != nil {
		return fmt.Errorf("failed to record collection metadata: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	i.rememberDimension(collection, dimension)
	i.logger.Info("created collection", "collection", collection, "dimension", dimension)
	return nil
}

// Upsert writes records in one transaction, overwriting by key.
func (i *Index) Upsert(ctx context.Context, collection string, records []*core.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	dimension, err := i.collectionDimension(ctx, collection)
	if err != nil {
		return err
	}

	for _, record := range records {
		if err := core.ValidateIndexRecord(record); err != nil {
			return err
		}
		if len(record.Vector) != dimension {
			return fmt.Errorf("%w: record %s has dimension %d, collection %s wants %d",
				core.ErrDimensionMismatch, record.Key, len(record.Vector), collection, dimension)
		}
	}

	tx, err := i.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	sql := upsertSQL(collection)
	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(sql,
			record.Key, record.DocumentID, record.RunID, record.Ordinal,
			record.Text, pgvec.NewVector(record.Vector))
	}

	results := tx.SendBatch(ctx, batch)
	var batchErr error
	for idx := range records {
		if _, err := results.Exec(); err != nil && batchErr == nil {
			batchErr = fmt.Errorf("failed to upsert record at index %d: %w", idx, err)
		}
	}
	if err := results.Close(); err != nil && batchErr == nil {
		batchErr = err
	}
	if batchErr != nil {
		return batchErr
	}

	return tx.Commit(ctx)
}

// Exists reports which keys already have records in the collection. A
// collection that was never ensured reports every key absent.
func (i *Index) Exists(ctx context.Context, collection string, keys []string) (map[string]bool, error) {
	found := make(map[string]bool, len(keys))
	for _, key := range keys {
		found[key] = false
	}
	if len(keys) == 0 {
		return found, nil
	}

	if _, err := i.collectionDimension(ctx, collection); err != nil {
		if errors.Is(err, index.ErrCollectionNotFound) {
			return found, nil
		}
		return nil, err
	}

	rows, err := i.pool.Query(ctx, existsSQL(collection), keys)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		found[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate existing keys: %w", err)
	}

	return found, nil
}

// collectionDimension resolves a collection's recorded dimensionality,
// consulting the local cache before the metadata table.
func (i *Index) collectionDimension(ctx context.Context, collection string) (int, error) {
	i.mu.Lock()
	dimension, ok := i.dims[collection]
	i.mu.Unlock()
	if ok {
		return dimension, nil
	}

	err := i.pool.QueryRow(ctx, `SELECT dimension FROM vector_collections WHERE name = $1`, collection).Scan(&dimension)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", index.ErrCollectionNotFound, collection)
		}
		// 42P01 undefined_table: the metadata table itself does not exist
		// yet, so no collection was ever ensured on this database.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
			return 0, fmt.Errorf("%w: %s", index.ErrCollectionNotFound, collection)
		}
		return 0, fmt.Errorf("failed to read collection metadata: %w", err)
	}

	i.rememberDimension(collection, dimension)
	return dimension, nil
}

func (i *Index) rememberDimension(collection string, dimension int) {
	i.mu.Lock()
	i.dims[collection] = dimension
	i.mu.Unlock()
}
