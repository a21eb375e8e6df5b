// Package chunk splits normalized document text into bounded, overlapping
// segments for embedding and indexing.
//
// The Splitter guarantees three properties for every input:
//   - every rune of the input appears in at least one segment
//   - no segment is longer than the configured maximum
//   - adjacent segments share at least the configured overlap
//
// Within those bounds it prefers to end segments at paragraph breaks, then
// sentence breaks, and only falls back to a hard cut when no boundary fits
// the length budget. Splitting is deterministic, so repeated runs over the
// same document produce identical segments and identical index keys.
package chunk
