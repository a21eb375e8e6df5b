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


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/ai/openai"
	"github.com/poiesic/docingest/chunk"
	"github.com/poiesic/docingest/convert"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/index"
	indexbadger "github.com/poiesic/docingest/index/badger"
	"github.com/poiesic/docingest/index/pgvector"
	"github.com/poiesic/docingest/pipeline"
	"github.com/poiesic/docingest/storage"
	"github.com/poiesic/docingest/storage/minio"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docingest",
		Usage: "Ingest PDF documents from object storage into a vector index",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file before running",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Execute one ingestion run",
				Action: runCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "run-id",
						Usage:    "Identifier for this run, recorded on every index record",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "endpoint",
						Usage:    "Object storage endpoint (host:port)",
						EnvVars:  []string{"MINIO_ENDPOINT"},
						Required: true,
					},
					&cli.StringFlag{
						Name:    "access-key",
						Usage:   "Object storage access key",
						EnvVars: []string{"MINIO_ACCESS_KEY"},
					},
					&cli.StringFlag{
						Name:    "secret-key",
						Usage:   "Object storage secret key",
						EnvVars: []string{"MINIO_SECRET_KEY"},
					},
					&cli.BoolFlag{
						Name:    "secure",
						Usage:   "Use TLS for object storage connections",
						EnvVars: []string{"MINIO_SECURE"},
					},
					&cli.StringFlag{
						Name:     "input-bucket",
						Usage:    "Bucket holding the source PDFs",
						EnvVars:  []string{"INPUT_DOCS_BUCKET"},
						Required: true,
					},
					&cli.StringFlag{
						Name:    "markdown-bucket",
						Usage:   "Bucket for markdown artifacts; enables the conversion cache",
						EnvVars: []string{"MARKDOWN_DOCS_BUCKET"},
					},
					&cli.StringFlag{
						Name:    "markdown-prefix",
						Usage:   "Key prefix for markdown artifacts",
						EnvVars: []string{"MARKDOWN_DOCS_PREFIX"},
						Value:   "markdown/",
					},
					&cli.StringFlag{
						Name:    "metadata-bucket",
						Usage:   "Bucket receiving the run report",
						EnvVars: []string{"METADATA_BUCKET"},
						Value:   "pipeline-runs",
					},
					&cli.StringFlag{
						Name:     "collection",
						Usage:    "Vector collection records are written to",
						EnvVars:  []string{"VECTOR_DB_ID"},
						Required: true,
					},
					&cli.StringFlag{
						Name:    "embedding-endpoint",
						Usage:   "Embedding service base URL",
						EnvVars: []string{"EMBEDDING_ENDPOINT"},
						Value:   "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						EnvVars:  []string{"EMBEDDING_MODEL"},
						Required: true,
					},
					&cli.StringFlag{
						Name:    "embedding-api-key",
						Usage:   "Embedding service API key (empty for unauthenticated services)",
						EnvVars: []string{"EMBEDDING_API_KEY"},
					},
					&cli.StringFlag{
						Name:  "index-backend",
						Usage: "Vector index backend (pgvector or badger)",
						Value: "pgvector",
					},
					&cli.StringFlag{
						Name:    "postgres-dsn",
						Usage:   "Postgres connection string for the pgvector backend",
						EnvVars: []string{"POSTGRES_DSN"},
					},
					&cli.StringFlag{
						Name:  "index-path",
						Usage: "BadgerDB directory for the badger backend",
					},
					&cli.IntFlag{
						Name:  "segment-length",
						Usage: "Maximum segment length in runes",
						Value: 500,
					},
					&cli.IntFlag{
						Name:  "segment-overlap",
						Usage: "Minimum overlap between adjacent segments in runes",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "embed-batch-size",
						Usage: "Number of segments per embedding request",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "index-batch-size",
						Usage: "Number of records per index upsert",
						Value: 128,
					},
					&cli.IntFlag{
						Name:  "convert-workers",
						Usage: "Concurrent PDF conversions (0 picks a CPU-derived default)",
					},
					&cli.IntFlag{
						Name:  "embed-workers",
						Usage: "Concurrent embedding requests (0 picks a CPU-derived default)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for remote calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.DurationFlag{
						Name:  "call-timeout",
						Usage: "Timeout for each individual remote call",
						Value: 30 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "reindex",
						Usage: "Embed and upsert documents even when all their records already exist",
					},
				},
			},
			{
				Name:   "report",
				Usage:  "Print the stored report of a previous run",
				Action: reportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "run-id",
						Usage:    "Run identifier the report was stored under",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "endpoint",
						Usage:    "Object storage endpoint (host:port)",
						EnvVars:  []string{"MINIO_ENDPOINT"},
						Required: true,
					},
					&cli.StringFlag{
						Name:    "access-key",
						Usage:   "Object storage access key",
						EnvVars: []string{"MINIO_ACCESS_KEY"},
					},
					&cli.StringFlag{
						Name:    "secret-key",
						Usage:   "Object storage secret key",
						EnvVars: []string{"MINIO_SECRET_KEY"},
					},
					&cli.BoolFlag{
						Name:    "secure",
						Usage:   "Use TLS for object storage connections",
						EnvVars: []string{"MINIO_SECURE"},
					},
					&cli.StringFlag{
						Name:    "metadata-bucket",
						Usage:   "Bucket the run report was stored in",
						EnvVars: []string{"METADATA_BUCKET"},
						Value:   "pipeline-runs",
					},
				},
			},
		},
	}
}

func runCommand(c *cli.Context) error {
	ctx := c.Context

	store, err := newObjectStore(c)
	if err != nil {
		return err
	}

	converter, err := newConverter(c, store)
	if err != nil {
		return err
	}

	splitter, err := chunk.NewSplitter(c.Int("segment-length"), c.Int("segment-overlap"))
	if err != nil {
		return fmt.Errorf("invalid segment configuration: %w", err)
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-endpoint")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("embedding-api-key")),
		ai.WithBatchSize(c.Int("embed-batch-size")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid embedding configuration: %w", err)
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	vectorIndex, err := newVectorIndex(ctx, c)
	if err != nil {
		return err
	}
	defer vectorIndex.Close()

	cfg := pipeline.DefaultConfig()
	cfg.RunID = c.String("run-id")
	cfg.InputBucket = c.String("input-bucket")
	cfg.Collection = c.String("collection")
	cfg.MetadataBucket = c.String("metadata-bucket")
	cfg.EmbedBatchSize = c.Int("embed-batch-size")
	cfg.IndexBatchSize = c.Int("index-batch-size")
	if workers := c.Int("convert-workers"); workers > 0 {
		cfg.ConvertWorkers = workers
	}
	if workers := c.Int("embed-workers"); workers > 0 {
		cfg.EmbedWorkers = workers
	}
	cfg.MaxRetries = c.Int("max-retries")
	cfg.RetryBaseDelay = c.Duration("retry-delay")
	cfg.CallTimeout = c.Duration("call-timeout")
	cfg.SkipIndexed = !c.Bool("reindex")

	p, err := pipeline.New(cfg, store, converter, splitter, embedder, vectorIndex)
	if err != nil {
		return err
	}
	defer p.Release()

	report, runErr := p.Run(ctx)
	if report != nil {
		printSummary(report)
	}
	if runErr != nil {
		return fmt.Errorf("run %s failed: %w", cfg.RunID, runErr)
	}
	return nil
}

func reportCommand(c *cli.Context) error {
	store, err := newObjectStore(c)
	if err != nil {
		return err
	}

	runID := c.String("run-id")
	bucket := c.String("metadata-bucket")
	data, err := store.Get(c.Context, bucket, pipeline.ReportKey(runID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrBucketNotFound) {
			return fmt.Errorf("no report stored for run %s in bucket %s", runID, bucket)
		}
		return fmt.Errorf("failed to fetch report: %w", err)
	}

	fmt.Println(string(data))
	return nil
}

func newObjectStore(c *cli.Context) (storage.ObjectStore, error) {
	store, err := minio.NewStore(minio.Config{
		Endpoint:  c.String("endpoint"),
		AccessKey: c.String("access-key"),
		SecretKey: c.String("secret-key"),
		Secure:    c.Bool("secure"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object store: %w", err)
	}
	return store, nil
}

// newConverter wraps the PDF converter in the markdown artifact cache when
// a markdown bucket is configured.
func newConverter(c *cli.Context, store storage.ObjectStore) (convert.DocumentConverter, error) {
	converter, err := convert.NewPDFConverter()
	if err != nil {
		return nil, fmt.Errorf("failed to create converter: %w", err)
	}

	bucket := c.String("markdown-bucket")
	if bucket == "" {
		return converter, nil
	}

	cache, err := convert.NewCache(converter, store, bucket,
		convert.WithCachePrefix(c.String("markdown-prefix")))
	if err != nil {
		return nil, fmt.Errorf("failed to create conversion cache: %w", err)
	}
	return cache, nil
}

func newVectorIndex(ctx context.Context, c *cli.Context) (index.VectorIndex, error) {
	backend := c.String("index-backend")
	switch backend {
	case "pgvector":
		dsn := c.String("postgres-dsn")
		if dsn == "" {
			return nil, fmt.Errorf("postgres-dsn is required for the pgvector backend")
		}
		idx, err := pgvector.NewIndex(ctx, pgvector.Config{DSN: dsn})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to pgvector: %w", err)
		}
		return idx, nil
	case "badger":
		path := c.String("index-path")
		if path == "" {
			return nil, fmt.Errorf("index-path is required for the badger backend")
		}
		idx, err := indexbadger.Open(path, false)
		if err != nil {
			return nil, fmt.Errorf("failed to open badger index: %w", err)
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown index backend %q: must be pgvector or badger", backend)
	}
}

func printSummary(report *core.RunReport) {
	fmt.Fprintf(os.Stderr, "Run:                 %s\n", report.RunID)
	fmt.Fprintf(os.Stderr, "State:               %s\n", report.State)
	fmt.Fprintf(os.Stderr, "Duration:            %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "Documents listed:    %d\n", report.DocumentsListed)
	fmt.Fprintf(os.Stderr, "Documents fetched:   %d\n", report.DocumentsFetched)
	fmt.Fprintf(os.Stderr, "Documents converted: %d\n", report.DocumentsConverted)
	fmt.Fprintf(os.Stderr, "Documents skipped:   %d\n", report.DocumentsSkipped)
	fmt.Fprintf(os.Stderr, "Segments embedded:   %d\n", report.SegmentsEmbedded)
	fmt.Fprintf(os.Stderr, "Records indexed:     %d\n", report.RecordsIndexed)

	if len(report.Failures) > 0 {
		fmt.Fprintf(os.Stderr, "Failures:            %d\n", len(report.Failures))
		for _, failure := range report.Failures {
			target := failure.DocumentID
			if failure.SegmentID != "" {
				target = failure.SegmentID
			}
			fmt.Fprintf(os.Stderr, "  [%s] %s %s: %s\n", failure.Stage, failure.Kind, target, failure.Detail)
		}
	}
	if report.FatalCause != "" {
		fmt.Fprintf(os.Stderr, "Fatal (%s stage): %s\n", report.FatalStage, report.FatalCause)
	}
}

// setup loads the optional env file and configures logging. The env file
// is loaded first so command flags can pick its values up as env defaults.
func setup(c *cli.Context) error {
	if envFile := c.String("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}
	return setupLogger(c)
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
