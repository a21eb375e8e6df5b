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


package core

import "errors"

// Pipeline error taxonomy. Per-item errors exclude a single document or
// segment and let the run continue; fatal errors abort the run.
var (
	// ErrObjectRead indicates a single object could not be read from storage.
	ErrObjectRead = errors.New("object read failed")

	// ErrUnparseableDocument indicates input that could not be parsed as a PDF
	// or contained no extractable text.
	ErrUnparseableDocument = errors.New("unparseable document")

	// ErrEmbeddingService indicates the embedding service call failed.
	ErrEmbeddingService = errors.New("embedding service error")

	// ErrStorageUnavailable indicates the object store cannot be reached.
	ErrStorageUnavailable = errors.New("object storage unavailable")

	// ErrIndexUnavailable indicates the vector index cannot be reached.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrDimensionMismatch indicates a vector whose length disagrees with the
	// collection's established dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Domain validation errors
var (
	// ErrInvalidIndexRecord indicates an IndexRecord failed validation.
	ErrInvalidIndexRecord = errors.New("invalid index record")

	// ErrEmptyRecordKey indicates the record Key field is empty.
	ErrEmptyRecordKey = errors.New("record key cannot be empty")

	// ErrEmptyRecordText indicates the record Text field is empty.
	ErrEmptyRecordText = errors.New("record text cannot be empty")

	// ErrEmptyVector indicates the record Vector field is empty.
	ErrEmptyVector = errors.New("record vector cannot be empty")

	// ErrEmptyRunID indicates a run identifier is empty.
	ErrEmptyRunID = errors.New("run id cannot be empty")
)

// IsFatal reports whether err aborts the whole run rather than excluding a
// single item.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrIndexUnavailable) ||
		errors.Is(err, ErrDimensionMismatch)
}
