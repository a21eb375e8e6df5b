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


package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/docingest/ai"
	"github.com/poiesic/docingest/chunk"
	"github.com/poiesic/docingest/convert"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/index"
	"github.com/poiesic/docingest/storage"
)

// Pipeline drives one ingestion run across the fetch, convert,
// chunk+embed and index stages.
type Pipeline struct {
	config    *Config
	store     storage.ObjectStore
	converter convert.DocumentConverter
	splitter  *chunk.Splitter
	embedder  ai.Embedder
	index     index.VectorIndex

	convertPool *ants.Pool
	embedPool   *ants.Pool
	logger      *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// New creates a pipeline for the given run configuration and stage
// dependencies.
func New(
	config *Config,
	store storage.ObjectStore,
	converter convert.DocumentConverter,
	splitter *chunk.Splitter,
	embedder ai.Embedder,
	vectorIndex index.VectorIndex,
	opts ...Option,
) (*Pipeline, error) {
	if config == nil {
		return nil, ErrConfigRequired
	}
	if store == nil {
		return nil, ErrStoreRequired
	}
	if converter == nil {
		return nil, ErrConverterRequired
	}
	if splitter == nil {
		return nil, ErrSplitterRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if vectorIndex == nil {
		return nil, ErrIndexRequired
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	convertPool, err := ants.NewPool(config.ConvertWorkers)
	if err != nil {
		return nil, err
	}

	embedPool, err := ants.NewPool(config.EmbedWorkers)
	if err != nil {
		convertPool.Release()
		return nil, err
	}

	p := &Pipeline{
		config:      config,
		store:       store,
		converter:   converter,
		splitter:    splitter,
		embedder:    embedder,
		index:       vectorIndex,
		convertPool: convertPool,
		embedPool:   embedPool,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "pipeline", "run_id", config.RunID)

	return p, nil
}

// Release releases the worker pools.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.convertPool != nil {
		p.convertPool.Release()
	}
	if p.embedPool != nil {
		p.embedPool.Release()
	}
}

// Run executes the ingestion run and returns its report. The report is
// returned for failed runs too; the error then carries the fatal cause.
// On either terminal state the report is uploaded to the metadata bucket.
func (p *Pipeline) Run(ctx context.Context) (*core.RunReport, error) {
	rep := newReporter(p.config.RunID, p.config.Collection)

	p.logger.Info("run starting",
		"input_bucket", p.config.InputBucket,
		"collection", p.config.Collection)

	runErr := p.runStages(ctx, rep)
	if runErr != nil {
		rep.finish(core.RunStateFailed)
	} else {
		rep.finish(core.RunStateCompleted)
	}

	report := rep.snapshot()
	p.persistReport(ctx, report)

	p.logger.Info("run finished",
		"state", report.State,
		"documents_listed", report.DocumentsListed,
		"documents_converted", report.DocumentsConverted,
		"documents_skipped", report.DocumentsSkipped,
		"segments_embedded", report.SegmentsEmbedded,
		"records_indexed", report.RecordsIndexed,
		"failures", len(report.Failures))

	return report, runErr
}

// runStages advances the run state machine. Each stage consumes only the
// previous stage's successes; the first fatal error stops the chain.
func (p *Pipeline) runStages(ctx context.Context, rep *reporter) error {
	rep.setState(core.RunStateFetching)
	docs, err := p.fetchDocuments(ctx, rep)
	if err != nil {
		rep.fatal(core.StageFetch, err)
		return err
	}

	rep.setState(core.RunStateConverting)
	converted := p.convertDocuments(ctx, rep, docs)
	if err := ctx.Err(); err != nil {
		rep.fatal(core.StageConvert, err)
		return err
	}

	rep.setState(core.RunStateChunkingEmbedding)
	records := p.embedSegments(ctx, rep, converted)
	if err := ctx.Err(); err != nil {
		rep.fatal(core.StageEmbed, err)
		return err
	}

	rep.setState(core.RunStateIndexing)
	if err := p.indexRecords(ctx, rep, records); err != nil {
		rep.fatal(core.StageIndex, err)
		return err
	}

	return nil
}

// callContext bounds one remote call. It is detached from the run context
// so that cancelling the run lets in-flight calls drain instead of
// aborting them mid-request; stage loops stop between items instead.
func (p *Pipeline) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), p.config.CallTimeout)
}

// ReportKey returns the metadata bucket key a run's report is stored under.
func ReportKey(runID string) string {
	return "runs/" + runID + "/report.json"
}

// persistReport uploads the finished report to the metadata bucket.
// Upload problems are logged and never change the run's outcome. The
// upload retries on a context detached from the run, so a cancelled run
// still leaves its report behind.
func (p *Pipeline) persistReport(ctx context.Context, report *core.RunReport) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		p.logger.Warn("report serialization failed", "err", err)
		return
	}

	key := ReportKey(report.RunID)
	err = RetryWithBackoff(context.WithoutCancel(ctx), func() error {
		saveCtx, cancel := p.callContext(ctx)
		defer cancel()

		if err := p.store.EnsureBucket(saveCtx, p.config.MetadataBucket); err != nil {
			return err
		}
		return p.store.Put(saveCtx, p.config.MetadataBucket, key, data, "application/json", nil)
	}, p.config.MaxRetries, p.config.RetryBaseDelay)
	if err != nil {
		p.logger.Warn("report upload failed", "key", key, "err", err)
		return
	}

	p.logger.Debug("report stored", "bucket", p.config.MetadataBucket, "key", key)
}
