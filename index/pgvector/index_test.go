package pgvector

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCollectionName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "documents", false},
		{"with digits", "docs_v2", false},
		{"leading underscore", "_staging", false},
		{"empty", "", true},
		{"uppercase", "Documents", true},
		{"dash", "my-docs", true},
		{"dot", "public.docs", true},
		{"space", "my docs", true},
		{"quote", `docs"; DROP TABLE users; --`, true},
		{"too long", strings.Repeat("a", maxCollectionNameLen+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCollectionName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSQLBuilders(t *testing.T) {
	t.Run("create table quotes identifier and types the vector", func(t *testing.T) {
		sql := createTableSQL("documents", 768)
		assert.Contains(t, sql, `CREATE TABLE IF NOT EXISTS "documents"`)
		assert.Contains(t, sql, "embedding vector(768) NOT NULL")
		assert.Contains(t, sql, "key text PRIMARY KEY")
	})

	t.Run("similarity index uses cosine hnsw", func(t *testing.T) {
		sql := createIndexSQL("documents")
		assert.Contains(t, sql, `"documents_embedding_idx"`)
		assert.Contains(t, sql, "USING hnsw (embedding vector_cosine_ops)")
	})

	t.Run("upsert replaces on key conflict", func(t *testing.T) {
		sql := upsertSQL("documents")
		assert.Contains(t, sql, `INSERT INTO "documents"`)
		assert.Contains(t, sql, "ON CONFLICT (key) DO UPDATE SET")
		assert.Contains(t, sql, "embedding = EXCLUDED.embedding")
	})

	t.Run("exists filters by key array", func(t *testing.T) {
		assert.Equal(t, `SELECT key FROM "documents" WHERE key = ANY($1)`, existsSQL("documents"))
	})
}

func TestNewIndex_RequiresDSN(t *testing.T) {
	_, err := NewIndex(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DSN required")
}

func TestNewIndex_NilLogger(t *testing.T) {
	_, err := NewIndex(context.Background(), Config{DSN: "postgres://localhost/x"}, WithLogger(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logger cannot be nil")
}
