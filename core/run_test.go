package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fatal bool
	}{
		{"storage unavailable", ErrStorageUnavailable, true},
		{"index unavailable", ErrIndexUnavailable, true},
		{"dimension mismatch", ErrDimensionMismatch, true},
		{"wrapped fatal", fmt.Errorf("stage failed: %w", ErrIndexUnavailable), true},
		{"object read", ErrObjectRead, false},
		{"unparseable document", ErrUnparseableDocument, false},
		{"embedding service", ErrEmbeddingService, false},
		{"unrelated", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fatal, IsFatal(tt.err))
		})
	}
}

func TestFailureKindForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"object read", fmt.Errorf("get: %w", ErrObjectRead), FailureObjectRead},
		{"unparseable", ErrUnparseableDocument, FailureUnparseableDocument},
		{"embedding", ErrEmbeddingService, FailureEmbeddingService},
		{"storage", ErrStorageUnavailable, FailureStorageUnavailable},
		{"index", ErrIndexUnavailable, FailureIndexUnavailable},
		{"dimension", ErrDimensionMismatch, FailureDimensionMismatch},
		{"outside taxonomy", errors.New("boom"), FailureKind("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FailureKindForError(tt.err))
		})
	}
}

func TestRunReport_Clean(t *testing.T) {
	report := &RunReport{State: RunStateCompleted}
	assert.True(t, report.Clean())

	report.Failures = append(report.Failures, Failure{
		Stage: StageConvert,
		Kind:  FailureUnparseableDocument,
	})
	assert.False(t, report.Clean())

	failed := &RunReport{State: RunStateFailed}
	assert.False(t, failed.Clean())
}
