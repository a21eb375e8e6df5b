package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/poiesic/docingest/core"
)

// indexRecords upserts embedded records in key order. The collection is
// created on first use with the dimensionality of the embedded vectors.
func (p *Pipeline) indexRecords(ctx context.Context, rep *reporter, records []*core.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })

	dimension := len(records[0].Vector)
	err := RetryWithBackoff(ctx, func() error {
		callCtx, cancel := p.callContext(ctx)
		defer cancel()
		return p.index.EnsureCollection(callCtx, p.config.Collection, dimension)
	}, p.config.MaxRetries, p.config.RetryBaseDelay)
	if err != nil {
		return p.classifyIndexError(ctx, err, "ensuring collection")
	}

	for start := 0; start < len(records); start += p.config.IndexBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}

		end := min(start+p.config.IndexBatchSize, len(records))
		batch := records[start:end]

		err := RetryWithBackoff(ctx, func() error {
			callCtx, cancel := p.callContext(ctx)
			defer cancel()
			return p.index.Upsert(callCtx, p.config.Collection, batch)
		}, p.config.MaxRetries, p.config.RetryBaseDelay)
		if err != nil {
			return p.classifyIndexError(ctx, err, "upserting records")
		}

		rep.incIndexed(len(batch))
	}

	p.logger.Info("records indexed", "records", len(records), "dimension", dimension)
	return nil
}

// classifyIndexError maps an exhausted index operation onto the fatal
// taxonomy: dimension conflicts keep their own classification, everything
// else means the index is unavailable.
func (p *Pipeline) classifyIndexError(ctx context.Context, err error, op string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, core.ErrDimensionMismatch) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", core.ErrIndexUnavailable, op, err)
}
