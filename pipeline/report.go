package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/poiesic/docingest/core"
)

// reporter accumulates run state, counters and failures. Stage workers
// report concurrently, so every mutation takes the mutex.
type reporter struct {
	mu     sync.Mutex
	report core.RunReport
}

func newReporter(runID, collection string) *reporter {
	return &reporter{
		report: core.RunReport{
			RunID:      runID,
			Collection: collection,
			State:      core.RunStatePending,
			StartedAt:  time.Now().UTC(),
		},
	}
}

func (r *reporter) setState(state core.RunState) {
	r.mu.Lock()
	r.report.State = state
	r.mu.Unlock()
}

func (r *reporter) addFailure(failure core.Failure) {
	r.mu.Lock()
	r.report.Failures = append(r.report.Failures, failure)
	r.mu.Unlock()
}

func (r *reporter) incListed(n int) {
	r.mu.Lock()
	r.report.DocumentsListed += n
	r.mu.Unlock()
}

func (r *reporter) incFetched(n int) {
	r.mu.Lock()
	r.report.DocumentsFetched += n
	r.mu.Unlock()
}

func (r *reporter) incConverted(n int) {
	r.mu.Lock()
	r.report.DocumentsConverted += n
	r.mu.Unlock()
}

func (r *reporter) incSkipped(n int) {
	r.mu.Lock()
	r.report.DocumentsSkipped += n
	r.mu.Unlock()
}

func (r *reporter) incEmbedded(n int) {
	r.mu.Lock()
	r.report.SegmentsEmbedded += n
	r.mu.Unlock()
}

func (r *reporter) incIndexed(n int) {
	r.mu.Lock()
	r.report.RecordsIndexed += n
	r.mu.Unlock()
}

// fatal records the cause that aborts the run. The cause is also appended
// to the failure list so the report reads as one chronology.
func (r *reporter) fatal(stage core.Stage, err error) {
	kind := core.FailureKindForError(err)
	if kind == "" {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			kind = core.FailureCancelled
		} else {
			kind = core.FailureKind("Internal")
		}
	}

	r.mu.Lock()
	r.report.FatalStage = stage
	r.report.FatalCause = err.Error()
	r.report.Failures = append(r.report.Failures, core.Failure{
		Stage:  stage,
		Kind:   kind,
		Detail: err.Error(),
	})
	r.mu.Unlock()
}

// finish sets the terminal state and timestamp.
func (r *reporter) finish(state core.RunState) {
	r.mu.Lock()
	r.report.State = state
	r.report.FinishedAt = time.Now().UTC()
	r.mu.Unlock()
}

// snapshot returns a copy safe to hand outside the pipeline.
func (r *reporter) snapshot() *core.RunReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.report
	out.Failures = make([]core.Failure, len(r.report.Failures))
	copy(out.Failures, r.report.Failures)
	return &out
}
