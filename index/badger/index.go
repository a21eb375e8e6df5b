package badger

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/index"
)

// Index implements index.VectorIndex on an embedded BadgerDB. It is the
// backend for local runs and tests; records are MUS-serialized under
// collection-prefixed keys.
type Index struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ index.VectorIndex = (*Index)(nil)

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets the logger used by the index and the underlying store.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Index) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		i.logger = logger
		return nil
	}
}

// Open opens a vector index rooted at the given directory path, creating
// the directory if needed. With inMemory true the path is ignored and
// nothing touches disk.
func Open(filePath string, inMemory bool, opts ...Option) (*Index, error) {
	idx := &Index{logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(idx); err != nil {
			return nil, err
		}
	}

	var badgerOpts badger.Options
	if inMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		badgerOpts = badger.DefaultOptions(filePath)
	}

	badgerOpts.Logger = &badgerLoggerAdapter{logger: idx.logger}
	badgerOpts.Compression = options.None

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}
	idx.db = db

	return idx, nil
}

// Close closes the underlying database.
func (i *Index) Close() error {
	return i.db.Close()
}

// withTx executes a function within a BadgerDB transaction.
// The transaction is automatically discarded if fn returns an error.
func (i *Index) withTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	tx := i.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// EnsureCollection creates collection metadata on first use. Ensuring an
// existing collection verifies the recorded dimensionality.
func (i *Index) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	if collection == "" {
		return fmt.Errorf("collection name required")
	}
	if dimension < 1 {
		return fmt.Errorf("%w: %d", index.ErrInvalidDimension, dimension)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return i.withTx(func(tx *badger.Txn) error {
		meta, err := i.readMeta(tx, collection)
		if err != nil {
			return err
		}
		if meta != nil {
			if meta.Dimension != dimension {
				return fmt.Errorf("%w: collection %s has dimension %d, want %d",
					core.ErrDimensionMismatch, collection, meta.Dimension, dimension)
			}
			return nil
		}

		value := marshalCollectionMeta(&collectionMeta{Dimension: dimension})
		if err := tx.Set(makeMetaKey(collection), value); err != nil {
			return err
		}
		i.logger.Info("created collection", "collection", collection, "dimension", dimension)
		return tx.Commit()
	}, true)
}

// Upsert writes records under their keys, overwriting existing entries.
// The whole batch commits atomically; any invalid record rejects the batch.
func (i *Index) Upsert(ctx context.Context, collection string, records []*core.IndexRecord) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return i.withTx(func(tx *badger.Txn) error {
		meta, err := i.readMeta(tx, collection)
		if err != nil {
			return err
		}
		if meta == nil {
			return fmt.Errorf("%w: %s", index.ErrCollectionNotFound, collection)
		}

		for _, record := range records {
			if err := core.ValidateIndexRecord(record); err != nil {
				return err
			}
			if len(record.Vector) != meta.Dimension {
				return fmt.Errorf("%w: record %s has dimension %d, collection %s wants %d",
					core.ErrDimensionMismatch, record.Key, len(record.Vector), collection, meta.Dimension)
			}
			if err := tx.Set(makeRecordKey(collection, record.Key), marshalRecord(record)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// Exists reports which of the given keys already have records in the
// collection.
func (i *Index) Exists(ctx context.Context, collection string, keys []string) (map[string]bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(keys))
	err := i.withTx(func(tx *badger.Txn) error {
		meta, err := i.readMeta(tx, collection)
		if err != nil {
			return err
		}
		if meta == nil {
			for _, key := range keys {
				found[key] = false
			}
			return nil
		}

		for _, key := range keys {
			_, err := tx.Get(makeRecordKey(collection, key))
			switch err {
			case nil:
				found[key] = true
			case badger.ErrKeyNotFound:
				found[key] = false
			default:
				return err
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Get returns one stored record, or nil when the key is absent.
func (i *Index) Get(collection, key string) (*core.IndexRecord, error) {
	var record *core.IndexRecord
	err := i.withTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRecordKey(collection, key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			record, unmarshalErr = unmarshalRecord(val)
			return unmarshalErr
		})
	}, false)
	return record, err
}

// Count returns the number of records stored in the collection.
func (i *Index) Count(collection string) (int, error) {
	count := 0
	err := i.withTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeRecordPrefix(collection)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// readMeta fetches collection metadata, or nil when the collection has not
// been created.
func (i *Index) readMeta(tx *badger.Txn, collection string) (*collectionMeta, error) {
	item, err := tx.Get(makeMetaKey(collection))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var meta *collectionMeta
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		meta, unmarshalErr = unmarshalCollectionMeta(val)
		return unmarshalErr
	})
	return meta, err
}
