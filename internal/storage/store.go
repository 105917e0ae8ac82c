package storage

import (
	"context"

	"tyche/internal/model"
)

// Store defines persistence operations for traces and run bookkeeping.
type Store interface {
	Init(ctx context.Context) error
	SaveTrace(ctx context.Context, record model.TraceRecord) error
	GetTrace(ctx context.Context, runID string) (model.TraceRecord, bool, error)
	ListTraces(ctx context.Context, program string, limit int) ([]model.TraceRecord, error)
	DeleteTrace(ctx context.Context, runID string) error
	SaveProgramSummary(ctx context.Context, summary model.ProgramSummary) error
	GetProgramSummary(ctx context.Context, name string) (model.ProgramSummary, bool, error)
	SaveValueHistory(ctx context.Context, runID string, values []float64) error
	GetValueHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveOutcomes(ctx context.Context, outcomes model.OutcomeSet) error
	GetOutcomes(ctx context.Context, runID string) (model.OutcomeSet, bool, error)
}

// Resetter clears every persisted record. Stores that support a
// destructive reset implement it.
type Resetter interface {
	Reset(ctx context.Context) error
}
