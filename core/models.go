package core

import (
	"encoding/hex"
	"fmt"
	"path"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ContentHash computes a hex-encoded BLAKE2b-256 digest of raw content.
// Identical bytes always produce the same hash, which is what conversion
// caching and idempotent re-ingestion key on.
func ContentHash(data []byte) string {
	h, _ := blake2b.New(32, nil) // 32 bytes = 256 bits
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentIDFromKey derives a document identifier from a storage object key
// by trimming the file extension. Path components are kept so keys nested
// under a prefix stay unique within a run: "reports/q3/earnings.pdf" becomes
// "reports/q3/earnings".
func DocumentIDFromKey(key string) string {
	return strings.TrimSuffix(key, path.Ext(key))
}

// Document is a source PDF fetched from object storage.
// It is immutable once fetched and discarded after conversion; only the
// derived artifacts outlive the run.
type Document struct {
	ID          string // derived from Key, unique within a run
	Key         string // object key in the source bucket
	Bucket      string
	Data        []byte
	ContentHash string // BLAKE2b-256 of Data
	Size        int64
}

// ConvertedDocument is the normalized markdown form of a Document.
type ConvertedDocument struct {
	DocumentID  string
	SourceKey   string
	ContentHash string // hash of the source PDF bytes, the conversion cache key
	Markdown    string
	PageCount   int
	FromCache   bool // markdown was read back from a stored artifact
}

// Segment is a bounded slice of a ConvertedDocument's markdown.
// Start and End are rune offsets into the source text. Adjacent segments
// overlap so no retrieval window falls exactly on a segment boundary.
type Segment struct {
	DocumentID string
	Ordinal    int
	Text       string
	Start      int
	End        int
}

// ID returns the segment's index key, derived from the document identifier
// and the segment's ordinal position. The same document always yields the
// same keys, so re-ingestion overwrites instead of duplicating.
func (s Segment) ID() string {
	return fmt.Sprintf("%s#%04d", s.DocumentID, s.Ordinal)
}

// IndexRecord is the persisted (text, vector, metadata) tuple.
// Records are keyed by segment ID; RunID is metadata only, so a later run
// writing the same key overwrites the earlier record.
type IndexRecord struct {
	Key        string
	DocumentID string
	RunID      string
	Ordinal    int
	Text       string
	Vector     []float32
}

// NewIndexRecord builds an IndexRecord from a segment and its embedding.
func NewIndexRecord(segment Segment, vector []float32, runID string) IndexRecord {
	return IndexRecord{
		Key:        segment.ID(),
		DocumentID: segment.DocumentID,
		RunID:      runID,
		Ordinal:    segment.Ordinal,
		Text:       segment.Text,
		Vector:     vector,
	}
}
