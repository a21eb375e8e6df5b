package pipeline

import (
	"context"
	"sync"

	"github.com/poiesic/docingest/core"
)

// convertDocuments renders fetched PDFs to markdown on the convert pool.
// Unparseable documents are recorded and excluded; the rest come back in
// input order.
func (p *Pipeline) convertDocuments(ctx context.Context, rep *reporter, docs []*core.Document) []*core.ConvertedDocument {
	if len(docs) == 0 {
		return nil
	}

	results := make([]*core.ConvertedDocument, len(docs))
	var wg sync.WaitGroup

	for i, doc := range docs {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		task := func() {
			defer wg.Done()

			if ctx.Err() != nil {
				return
			}

			callCtx, cancel := p.callContext(ctx)
			defer cancel()

			converted, err := p.converter.Convert(callCtx, doc)
			if err != nil {
				if ctx.Err() != nil {
					return
				}

				kind := core.FailureKindForError(err)
				if kind == "" {
					kind = core.FailureUnparseableDocument
				}
				p.logger.Warn("conversion failed", "document_id", doc.ID, "err", err)
				rep.addFailure(core.Failure{
					Stage:      core.StageConvert,
					Kind:       kind,
					DocumentID: doc.ID,
					Key:        doc.Key,
					Detail:     err.Error(),
				})
				return
			}

			results[i] = converted
			rep.incConverted(1)
		}
		if err := p.convertPool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	converted := make([]*core.ConvertedDocument, 0, len(docs))
	for _, result := range results {
		if result != nil {
			converted = append(converted, result)
		}
	}
	return converted
}
