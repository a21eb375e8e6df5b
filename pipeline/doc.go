// Package pipeline orchestrates a document ingestion run.
//
// A run moves PDF objects through four stages, each consuming only the
// previous stage's successes:
//   - Fetch: list and download source PDFs from the input bucket
//   - Convert: render each PDF to markdown (cached by content hash)
//   - Chunk and embed: split markdown into overlapping segments and embed
//     them in batches
//   - Index: upsert (text, vector) records into the vector collection
//
// Conversion and embedding run concurrently on worker pools. Failures on
// individual documents or segments are collected into the run report and
// do not stop the run; storage or index outages and dimension conflicts
// abort it. The finished report is written to the metadata bucket.
package pipeline
