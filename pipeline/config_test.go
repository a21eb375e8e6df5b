package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a config that passes Validate, for tests to break
// one field at a time.
func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.RunID = "run-2026-08-22"
	cfg.InputBucket = "docs-in"
	cfg.Collection = "documents"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NotNil(t, cfg)
	assert.Equal(t, "pipeline-runs", cfg.MetadataBucket)
	assert.Equal(t, 32, cfg.EmbedBatchSize)
	assert.Equal(t, 128, cfg.IndexBatchSize)
	assert.GreaterOrEqual(t, cfg.ConvertWorkers, 1)
	assert.GreaterOrEqual(t, cfg.EmbedWorkers, 1)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 1*time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, 30*time.Second, cfg.CallTimeout)
	assert.True(t, cfg.SkipIndexed)

	assert.Error(t, cfg.Validate(), "defaults alone should not validate, run identity is required")
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty run id",
			mutate:  func(c *Config) { c.RunID = "" },
			wantErr: "run id cannot be empty",
		},
		{
			name:    "whitespace run id",
			mutate:  func(c *Config) { c.RunID = "   " },
			wantErr: "run id cannot be empty",
		},
		{
			name:    "missing input bucket",
			mutate:  func(c *Config) { c.InputBucket = "" },
			wantErr: "input bucket is required",
		},
		{
			name:    "missing collection",
			mutate:  func(c *Config) { c.Collection = "" },
			wantErr: "collection is required",
		},
		{
			name:    "missing metadata bucket",
			mutate:  func(c *Config) { c.MetadataBucket = "" },
			wantErr: "metadata bucket is required",
		},
		{
			name:    "zero embed batch size",
			mutate:  func(c *Config) { c.EmbedBatchSize = 0 },
			wantErr: "embed batch size must be at least 1",
		},
		{
			name:    "zero index batch size",
			mutate:  func(c *Config) { c.IndexBatchSize = 0 },
			wantErr: "index batch size must be at least 1",
		},
		{
			name:    "zero convert workers",
			mutate:  func(c *Config) { c.ConvertWorkers = 0 },
			wantErr: "convert workers must be at least 1",
		},
		{
			name:    "negative embed workers",
			mutate:  func(c *Config) { c.EmbedWorkers = -2 },
			wantErr: "embed workers must be at least 1",
		},
		{
			name:    "zero max retries",
			mutate:  func(c *Config) { c.MaxRetries = 0 },
			wantErr: "max retries must be at least 1",
		},
		{
			name:    "zero retry base delay",
			mutate:  func(c *Config) { c.RetryBaseDelay = 0 },
			wantErr: "retry base delay must be positive",
		},
		{
			name:    "negative call timeout",
			mutate:  func(c *Config) { c.CallTimeout = -time.Second },
			wantErr: "call timeout must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Contains(t, err.Error(), "pipeline config")
		})
	}
}
