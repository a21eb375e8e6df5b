package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/poiesic/docingest/core"
)

// embedSegments splits each converted document into segments and embeds
// them in batches on the embed pool. Documents whose keys are all indexed
// already are skipped before any embedding call.
func (p *Pipeline) embedSegments(ctx context.Context, rep *reporter, docs []*core.ConvertedDocument) []*core.IndexRecord {
	var (
		mu      sync.Mutex
		records []*core.IndexRecord
		wg      sync.WaitGroup
	)

	for _, doc := range docs {
		if ctx.Err() != nil {
			break
		}

		segments := p.splitter.Split(doc.DocumentID, doc.Markdown)
		if len(segments) == 0 {
			continue
		}

		if p.config.SkipIndexed && p.allIndexed(ctx, segments) {
			rep.incSkipped(1)
			p.logger.Info("document already indexed, skipping",
				"document_id", doc.DocumentID, "segments", len(segments))
			continue
		}

		for start := 0; start < len(segments); start += p.config.EmbedBatchSize {
			end := min(start+p.config.EmbedBatchSize, len(segments))
			batch := segments[start:end]

			wg.Add(1)
			task := func() {
				defer wg.Done()

				batchRecords := p.embedBatch(ctx, rep, batch)
				if len(batchRecords) == 0 {
					return
				}
				mu.Lock()
				records = append(records, batchRecords...)
				mu.Unlock()
			}
			if err := p.embedPool.Submit(task); err != nil {
				task()
			}
		}
	}
	wg.Wait()

	return records
}

// allIndexed reports whether every segment key is already present in the
// collection. Lookup problems only disable the skip.
func (p *Pipeline) allIndexed(ctx context.Context, segments []core.Segment) bool {
	keys := make([]string, len(segments))
	for i, segment := range segments {
		keys[i] = segment.ID()
	}

	callCtx, cancel := p.callContext(ctx)
	defer cancel()

	found, err := p.index.Exists(callCtx, p.config.Collection, keys)
	if err != nil {
		p.logger.Warn("index lookup failed, not skipping", "err", err)
		return false
	}

	for _, key := range keys {
		if !found[key] {
			return false
		}
	}
	return true
}

// embedBatch embeds one batch with retry. On exhaustion every segment in
// the batch is recorded as failed and excluded from indexing.
func (p *Pipeline) embedBatch(ctx context.Context, rep *reporter, segments []core.Segment) []*core.IndexRecord {
	texts := make([]string, len(segments))
	for i, segment := range segments {
		texts[i] = segment.Text
	}

	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		callCtx, cancel := p.callContext(ctx)
		defer cancel()

		var embedErr error
		vectors, embedErr = p.embedder.EmbedTexts(callCtx, texts)
		return embedErr
	}, p.config.MaxRetries, p.config.RetryBaseDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}

		embedErr := fmt.Errorf("%w: %w", core.ErrEmbeddingService, err)
		p.logger.Warn("embedding batch failed", "segments", len(segments), "err", err)
		for _, segment := range segments {
			rep.addFailure(core.Failure{
				Stage:      core.StageEmbed,
				Kind:       core.FailureEmbeddingService,
				DocumentID: segment.DocumentID,
				SegmentID:  segment.ID(),
				Detail:     embedErr.Error(),
			})
		}
		return nil
	}

	records := make([]*core.IndexRecord, len(segments))
	for i, segment := range segments {
		record := core.NewIndexRecord(segment, vectors[i], p.config.RunID)
		records[i] = &record
	}
	rep.incEmbedded(len(segments))

	return records
}
