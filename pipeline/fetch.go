package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/storage"
)

// fetchDocuments lists the input bucket and downloads every PDF object.
// Listing failures and a missing bucket are fatal; a single object that
// cannot be read is recorded and excluded.
func (p *Pipeline) fetchDocuments(ctx context.Context, rep *reporter) ([]*core.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var infos []storage.ObjectInfo
	err := RetryWithBackoff(ctx, func() error {
		listCtx, cancel := p.callContext(ctx)
		defer cancel()

		var listErr error
		infos, listErr = p.store.List(listCtx, p.config.InputBucket, "")
		return listErr
	}, p.config.MaxRetries, p.config.RetryBaseDelay)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: listing bucket %s: %w", core.ErrStorageUnavailable, p.config.InputBucket, err)
	}

	pdfs := make([]storage.ObjectInfo, 0, len(infos))
	for _, info := range infos {
		if strings.HasSuffix(strings.ToLower(info.Key), ".pdf") {
			pdfs = append(pdfs, info)
		}
	}
	rep.incListed(len(pdfs))
	p.logger.Info("input listed", "objects", len(infos), "pdfs", len(pdfs))

	docs := make([]*core.Document, 0, len(pdfs))
	for _, info := range pdfs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data, err := p.getObject(ctx, info.Key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, storage.ErrBucketNotFound) {
				return nil, fmt.Errorf("%w: %w", core.ErrStorageUnavailable, err)
			}

			readErr := fmt.Errorf("%w: %s: %w", core.ErrObjectRead, info.Key, err)
			p.logger.Warn("object read failed", "key", info.Key, "err", err)
			rep.addFailure(core.Failure{
				Stage:      core.StageFetch,
				Kind:       core.FailureObjectRead,
				DocumentID: core.DocumentIDFromKey(info.Key),
				Key:        info.Key,
				Detail:     readErr.Error(),
			})
			continue
		}

		docs = append(docs, &core.Document{
			ID:          core.DocumentIDFromKey(info.Key),
			Key:         info.Key,
			Bucket:      p.config.InputBucket,
			Data:        data,
			ContentHash: core.ContentHash(data),
			Size:        int64(len(data)),
		})
	}

	rep.incFetched(len(docs))
	return docs, nil
}

func (p *Pipeline) getObject(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := RetryWithBackoff(ctx, func() error {
		getCtx, cancel := p.callContext(ctx)
		defer cancel()

		var getErr error
		data, getErr = p.store.Get(getCtx, p.config.InputBucket, key)
		return getErr
	}, p.config.MaxRetries, p.config.RetryBaseDelay)
	return data, err
}
