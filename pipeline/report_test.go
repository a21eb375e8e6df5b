package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/poiesic/docingest/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_InitialState(t *testing.T) {
	rep := newReporter("run-1", "documents")
	report := rep.snapshot()

	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "documents", report.Collection)
	assert.Equal(t, core.RunStatePending, report.State)
	assert.False(t, report.StartedAt.IsZero())
	assert.True(t, report.FinishedAt.IsZero())
	assert.Empty(t, report.Failures)
}

func TestReporter_ConcurrentUpdates(t *testing.T) {
	rep := newReporter("run-1", "documents")

	const workers = 16
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			rep.incListed(1)
			rep.incFetched(1)
			rep.incConverted(1)
			rep.incSkipped(1)
			rep.incEmbedded(2)
			rep.incIndexed(2)
			rep.addFailure(core.Failure{
				Stage:  core.StageEmbed,
				Kind:   core.FailureEmbeddingService,
				Detail: fmt.Sprintf("worker %d", n),
			})
		}(i)
	}
	wg.Wait()

	report := rep.snapshot()
	assert.Equal(t, workers, report.DocumentsListed)
	assert.Equal(t, workers, report.DocumentsFetched)
	assert.Equal(t, workers, report.DocumentsConverted)
	assert.Equal(t, workers, report.DocumentsSkipped)
	assert.Equal(t, workers*2, report.SegmentsEmbedded)
	assert.Equal(t, workers*2, report.RecordsIndexed)
	assert.Len(t, report.Failures, workers)
}

func TestReporter_Fatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind core.FailureKind
	}{
		{
			name:     "taxonomy error keeps its kind",
			err:      fmt.Errorf("%w: listing bucket docs", core.ErrStorageUnavailable),
			wantKind: core.FailureStorageUnavailable,
		},
		{
			name:     "dimension mismatch keeps its kind",
			err:      fmt.Errorf("%w: got 8, want 16", core.ErrDimensionMismatch),
			wantKind: core.FailureDimensionMismatch,
		},
		{
			name:     "context cancellation",
			err:      context.Canceled,
			wantKind: core.FailureCancelled,
		},
		{
			name:     "context deadline",
			err:      context.DeadlineExceeded,
			wantKind: core.FailureCancelled,
		},
		{
			name:     "unclassified error",
			err:      errors.New("nil map write"),
			wantKind: core.FailureKind("Internal"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := newReporter("run-1", "documents")
			rep.fatal(core.StageIndex, tt.err)

			report := rep.snapshot()
			assert.Equal(t, core.StageIndex, report.FatalStage)
			assert.Equal(t, tt.err.Error(), report.FatalCause)

			require.Len(t, report.Failures, 1)
			assert.Equal(t, core.StageIndex, report.Failures[0].Stage)
			assert.Equal(t, tt.wantKind, report.Failures[0].Kind)
			assert.Equal(t, tt.err.Error(), report.Failures[0].Detail)
		})
	}
}

func TestReporter_Finish(t *testing.T) {
	rep := newReporter("run-1", "documents")
	rep.setState(core.RunStateIndexing)
	rep.finish(core.RunStateCompleted)

	report := rep.snapshot()
	assert.Equal(t, core.RunStateCompleted, report.State)
	assert.False(t, report.FinishedAt.IsZero())
	assert.True(t, report.Clean())
}

func TestReporter_SnapshotIsolation(t *testing.T) {
	rep := newReporter("run-1", "documents")
	rep.addFailure(core.Failure{Stage: core.StageFetch, Kind: core.FailureObjectRead, Detail: "original"})

	first := rep.snapshot()
	first.Failures[0].Detail = "mutated"
	first.DocumentsListed = 99

	second := rep.snapshot()
	assert.Equal(t, "original", second.Failures[0].Detail)
	assert.Equal(t, 0, second.DocumentsListed)
}
