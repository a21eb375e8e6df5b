package pipeline

import (
	"fmt"
	"runtime"
	"time"

	"github.com/poiesic/docingest/core"
)

// Config holds the settings for one ingestion run.
type Config struct {
	// RunID identifies this run in index records and the stored report.
	RunID string

	// InputBucket is the bucket holding the source PDFs.
	InputBucket string

	// Collection is the vector collection records are written to.
	Collection string

	// MetadataBucket receives the run report artifact.
	MetadataBucket string

	// EmbedBatchSize is the number of segments per embedding request.
	EmbedBatchSize int

	// IndexBatchSize is the number of records per index upsert.
	IndexBatchSize int

	// ConvertWorkers bounds concurrent PDF conversions.
	ConvertWorkers int

	// EmbedWorkers bounds concurrent embedding requests.
	EmbedWorkers int

	// MaxRetries is the maximum number of attempts for remote calls.
	MaxRetries int

	// RetryBaseDelay is the base delay for exponential backoff.
	RetryBaseDelay time.Duration

	// CallTimeout bounds each individual remote call.
	CallTimeout time.Duration

	// SkipIndexed skips documents whose segment keys all exist in the
	// collection already, so an interrupted run can resume cheaply.
	SkipIndexed bool
}

// DefaultConfig returns a Config with sensible defaults. RunID,
// InputBucket and Collection must still be set by the caller.
func DefaultConfig() *Config {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}

	return &Config{
		MetadataBucket: "pipeline-runs",
		EmbedBatchSize: 32,
		IndexBatchSize: 128,
		ConvertWorkers: workers,
		EmbedWorkers:   workers,
		MaxRetries:     3,
		RetryBaseDelay: 1 * time.Second,
		CallTimeout:    30 * time.Second,
		SkipIndexed:    true,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := core.ValidateRunID(c.RunID); err != nil {
		return fmt.Errorf("pipeline config: %w", err)
	}
	if c.InputBucket == "" {
		return fmt.Errorf("pipeline config: input bucket is required")
	}
	if c.Collection == "" {
		return fmt.Errorf("pipeline config: collection is required")
	}
	if c.MetadataBucket == "" {
		return fmt.Errorf("pipeline config: metadata bucket is required")
	}
	if c.EmbedBatchSize < 1 {
		return fmt.Errorf("pipeline config: embed batch size must be at least 1")
	}
	if c.IndexBatchSize < 1 {
		return fmt.Errorf("pipeline config: index batch size must be at least 1")
	}
	if c.ConvertWorkers < 1 {
		return fmt.Errorf("pipeline config: convert workers must be at least 1")
	}
	if c.EmbedWorkers < 1 {
		return fmt.Errorf("pipeline config: embed workers must be at least 1")
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("pipeline config: max retries must be at least 1")
	}
	if c.RetryBaseDelay <= 0 {
		return fmt.Errorf("pipeline config: retry base delay must be positive")
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("pipeline config: call timeout must be positive")
	}
	return nil
}
