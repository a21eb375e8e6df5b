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

import (
	"errors"
	"time"
)

// RunState identifies where a run is in its lifecycle. States advance
// linearly from pending to completed; failed is terminal and reachable from
// any stage.
type RunState string

const (
	RunStatePending           RunState = "pending"
	RunStateFetching          RunState = "fetching"
	RunStateConverting        RunState = "converting"
	RunStateChunkingEmbedding RunState = "chunking_embedding"
	RunStateIndexing          RunState = "indexing"
	RunStateCompleted         RunState = "completed"
	RunStateFailed            RunState = "failed"
)

// Stage identifies the pipeline stage a failure belongs to.
type Stage string

const (
	StageFetch   Stage = "fetch"
	StageConvert Stage = "convert"
	StageEmbed   Stage = "embed"
	StageIndex   Stage = "index"
)

// FailureKind classifies a failure in the run report.
type FailureKind string

const (
	// Per-item kinds: the item is excluded and the run continues.
	FailureObjectRead          FailureKind = "ObjectReadError"
	FailureUnparseableDocument FailureKind = "UnparseableDocument"
	FailureEmbeddingService    FailureKind = "EmbeddingServiceError"

	// Run-fatal kinds: remaining work is abandoned and the run fails.
	FailureStorageUnavailable FailureKind = "StorageUnavailable"
	FailureIndexUnavailable   FailureKind = "IndexUnavailable"
	FailureDimensionMismatch  FailureKind = "DimensionMismatch"
	FailureCancelled          FailureKind = "Cancelled"
)

// FailureKindForError maps a taxonomy error to its report classification.
// Returns an empty kind for errors outside the taxonomy; callers supply a
// stage-appropriate fallback.
func FailureKindForError(err error) FailureKind {
	switch {
	case errors.Is(err, ErrObjectRead):
		return FailureObjectRead
	case errors.Is(err, ErrUnparseableDocument):
		return FailureUnparseableDocument
	case errors.Is(err, ErrEmbeddingService):
		return FailureEmbeddingService
	case errors.Is(err, ErrStorageUnavailable):
		return FailureStorageUnavailable
	case errors.Is(err, ErrIndexUnavailable):
		return FailureIndexUnavailable
	case errors.Is(err, ErrDimensionMismatch):
		return FailureDimensionMismatch
	default:
		return ""
	}
}

// Failure records one excluded item, or the fatal cause that halted a run.
type Failure struct {
	Stage      Stage       `json:"stage"`
	Kind       FailureKind `json:"kind"`
	DocumentID string      `json:"document_id,omitempty"`
	Key        string      `json:"key,omitempty"`
	SegmentID  string      `json:"segment_id,omitempty"`
	Detail     string      `json:"detail"`
}

// RunReport is the operator-facing summary of a run: terminal state,
// stage counters, and every excluded item with its cause. A completed state
// with a non-empty failure list means partial success.
type RunReport struct {
	RunID              string    `json:"run_id"`
	Collection         string    `json:"collection"`
	State              RunState  `json:"state"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
	DocumentsListed    int       `json:"documents_listed"`
	DocumentsFetched   int       `json:"documents_fetched"`
	DocumentsConverted int       `json:"documents_converted"`
	DocumentsSkipped   int       `json:"documents_skipped"`
	SegmentsEmbedded   int       `json:"segments_embedded"`
	RecordsIndexed     int       `json:"records_indexed"`
	Failures           []Failure `json:"failures,omitempty"`
	FatalStage         Stage     `json:"fatal_stage,omitempty"`
	FatalCause         string    `json:"fatal_cause,omitempty"`
}

// Clean reports whether the run completed with no excluded items.
func (r *RunReport) Clean() bool {
	return r.State == RunStateCompleted && len(r.Failures) == 0
}
