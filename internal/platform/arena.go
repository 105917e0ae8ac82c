// Package platform orchestrates program executions against a store.
package platform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tyche/internal/effect"
	"tyche/internal/model"
	"tyche/internal/program"
	"tyche/internal/storage"
	"tyche/internal/trace"
)

type Config struct {
	Store storage.Store

	// Registry defaults to the built-in programs when nil.
	Registry *program.Registry
}

// Arena owns a program registry and a store, and turns run configurations
// into persisted traces. Each execution gets a private handler; the arena
// itself is safe for concurrent runs.
type Arena struct {
	store    storage.Store
	registry *program.Registry

	mu      sync.Mutex
	started bool
}

type RunConfig struct {
	RunID        string
	Program      string
	Mode         effect.Mode
	Seed         int64
	Replicates   int
	RefRunID     string
	Observations map[string]float64
	MaxOutcomes  int
	MaxSites     int
}

type RunResult struct {
	RunID      string
	Record     model.TraceRecord
	Values     []float64
	SiteCounts []int
	Outcomes   []model.OutcomeRecord
	LogWeight  float64
}

type ProgramInfo struct {
	Name        string
	Description string
}

func NewArena(cfg Config) *Arena {
	registry := cfg.Registry
	if registry == nil {
		registry = program.NewRegistry()
	}
	return &Arena{store: cfg.Store, registry: registry}
}

func (a *Arena) Init(ctx context.Context) error {
	if a.store == nil {
		return fmt.Errorf("store is required")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}
	if err := a.store.Init(ctx); err != nil {
		return err
	}
	a.started = true
	return nil
}

// Reset clears every persisted record and re-initializes the store.
func (a *Arena) Reset(ctx context.Context) error {
	if a.store == nil {
		return fmt.Errorf("store is required")
	}
	a.mu.Lock()
	a.started = false
	a.mu.Unlock()

	if resetter, ok := a.store.(storage.Resetter); ok {
		if err := resetter.Reset(ctx); err != nil {
			return err
		}
	}
	return a.Init(ctx)
}

// DeleteRun removes one persisted run and its attachments. Deleting an
// absent run is not an error.
func (a *Arena) DeleteRun(ctx context.Context, runID string) error {
	if err := a.requireStarted(); err != nil {
		return err
	}
	if runID == "" {
		return fmt.Errorf("run id is required")
	}
	return a.store.DeleteTrace(ctx, runID)
}

func (a *Arena) RegisterProgram(p program.Program) error {
	return a.registry.Register(p)
}

// RegisterDefaults installs the built-in programs, skipping none; callers
// registering their own programs first must avoid name collisions.
func (a *Arena) RegisterDefaults() error {
	return program.RegisterDefaults(a.registry)
}

func (a *Arena) Programs() []ProgramInfo {
	names := a.registry.Names()
	out := make([]ProgramInfo, 0, len(names))
	for _, name := range names {
		p, ok := a.registry.Lookup(name)
		if !ok {
			continue
		}
		out = append(out, ProgramInfo{Name: p.Name(), Description: p.Description()})
	}
	return out
}

// ExecuteRun runs one configuration to completion and persists its results.
// Replicates > 1 reuses the same program with derived seeds; the persisted
// trace is the first replicate's.
func (a *Arena) ExecuteRun(ctx context.Context, cfg RunConfig) (RunResult, error) {
	if err := a.requireStarted(); err != nil {
		return RunResult{}, err
	}
	if cfg.Program == "" {
		return RunResult{}, fmt.Errorf("program name is required")
	}
	if cfg.RunID == "" {
		return RunResult{}, fmt.Errorf("run id is required")
	}
	if cfg.Replicates <= 0 {
		cfg.Replicates = 1
	}
	if cfg.Mode != effect.ModeSample && cfg.Replicates > 1 {
		return RunResult{}, fmt.Errorf("replicates require sample mode, got %s", cfg.Mode)
	}

	p, ok := a.registry.Lookup(cfg.Program)
	if !ok {
		return RunResult{}, fmt.Errorf("unknown program: %s", cfg.Program)
	}
	body := p.Body()

	if cfg.Mode == effect.ModeEnumerate {
		return a.executeEnumeration(ctx, cfg, body)
	}

	var ref *trace.Trace
	if cfg.Mode == effect.ModeReplay {
		if cfg.RefRunID == "" {
			return RunResult{}, fmt.Errorf("replay requires a reference run id")
		}
		record, found, err := a.store.GetTrace(ctx, cfg.RefRunID)
		if err != nil {
			return RunResult{}, err
		}
		if !found {
			return RunResult{}, fmt.Errorf("reference trace not found: %s", cfg.RefRunID)
		}
		ref, err = trace.FromRecords(record.Sites)
		if err != nil {
			return RunResult{}, err
		}
	}

	values := make([]float64, 0, cfg.Replicates)
	siteCounts := make([]int, 0, cfg.Replicates)
	var first effect.Result
	for i := 0; i < cfg.Replicates; i++ {
		if err := ctx.Err(); err != nil {
			return RunResult{}, err
		}
		res, err := effect.Run(body, effect.RunOptions{
			Mode:         cfg.Mode,
			Seed:         cfg.Seed + int64(i),
			Ref:          ref,
			Observations: cfg.Observations,
		})
		if err != nil {
			return RunResult{}, fmt.Errorf("run %s replicate %d: %w", cfg.Program, i, err)
		}
		if i == 0 {
			first = res
		}
		values = append(values, res.Value)
		siteCounts = append(siteCounts, res.Trace.Len())
	}

	record := model.TraceRecord{
		VersionedRecord: storage.Stamp(),
		RunID:           cfg.RunID,
		Program:         cfg.Program,
		Mode:            cfg.Mode.String(),
		Seed:            cfg.Seed,
		Value:           first.Value,
		LogWeight:       first.LogWeight,
		Sites:           first.Trace.Records(),
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := a.persistRun(ctx, p, record, values); err != nil {
		return RunResult{}, err
	}

	return RunResult{
		RunID:      cfg.RunID,
		Record:     record,
		Values:     values,
		SiteCounts: siteCounts,
		LogWeight:  first.LogWeight,
	}, nil
}

func (a *Arena) executeEnumeration(ctx context.Context, cfg RunConfig, body effect.Program) (RunResult, error) {
	if err := ctx.Err(); err != nil {
		return RunResult{}, err
	}

	outcomes, err := effect.Enumerate(body, effect.EnumerateOptions{
		MaxOutcomes: cfg.MaxOutcomes,
		MaxSites:    cfg.MaxSites,
	})
	if err != nil {
		return RunResult{}, fmt.Errorf("enumerate %s: %w", cfg.Program, err)
	}
	if len(outcomes) == 0 {
		return RunResult{}, fmt.Errorf("enumerate %s: no outcomes", cfg.Program)
	}

	records := make([]model.OutcomeRecord, 0, len(outcomes))
	for _, outcome := range outcomes {
		records = append(records, model.OutcomeRecord{
			Value:   outcome.Value,
			LogProb: outcome.LogProb,
			Sites:   outcome.Trace.Records(),
		})
	}

	p, _ := a.registry.Lookup(cfg.Program)
	record := model.TraceRecord{
		VersionedRecord: storage.Stamp(),
		RunID:           cfg.RunID,
		Program:         cfg.Program,
		Mode:            cfg.Mode.String(),
		Seed:            cfg.Seed,
		Value:           outcomes[0].Value,
		Sites:           outcomes[0].Trace.Records(),
		CreatedAtUTC:    time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := a.persistRun(ctx, p, record, nil); err != nil {
		return RunResult{}, err
	}
	if err := a.store.SaveOutcomes(ctx, model.OutcomeSet{
		VersionedRecord: storage.Stamp(),
		RunID:           cfg.RunID,
		Program:         cfg.Program,
		Outcomes:        records,
	}); err != nil {
		return RunResult{}, err
	}

	return RunResult{RunID: cfg.RunID, Record: record, Outcomes: records}, nil
}

func (a *Arena) persistRun(ctx context.Context, p program.Program, record model.TraceRecord, values []float64) error {
	if err := a.store.SaveTrace(ctx, record); err != nil {
		return err
	}
	if len(values) > 1 {
		if err := a.store.SaveValueHistory(ctx, record.RunID, values); err != nil {
			return err
		}
	}

	summary, _, err := a.store.GetProgramSummary(ctx, record.Program)
	if err != nil {
		return err
	}
	summary.VersionedRecord = storage.Stamp()
	summary.Name = record.Program
	if p != nil {
		summary.Description = p.Description()
	}
	summary.RunCount++
	summary.LastRunID = record.RunID
	summary.LastValue = record.Value
	return a.store.SaveProgramSummary(ctx, summary)
}

// Trace loads a persisted trace record.
func (a *Arena) Trace(ctx context.Context, runID string) (model.TraceRecord, error) {
	if err := a.requireStarted(); err != nil {
		return model.TraceRecord{}, err
	}
	record, ok, err := a.store.GetTrace(ctx, runID)
	if err != nil {
		return model.TraceRecord{}, err
	}
	if !ok {
		return model.TraceRecord{}, fmt.Errorf("trace not found: %s", runID)
	}
	return record, nil
}

// Traces lists persisted traces, newest first, optionally by program.
func (a *Arena) Traces(ctx context.Context, programName string, limit int) ([]model.TraceRecord, error) {
	if err := a.requireStarted(); err != nil {
		return nil, err
	}
	return a.store.ListTraces(ctx, programName, limit)
}

// Outcomes loads the persisted enumeration results of a run.
func (a *Arena) Outcomes(ctx context.Context, runID string) (model.OutcomeSet, error) {
	if err := a.requireStarted(); err != nil {
		return model.OutcomeSet{}, err
	}
	outcomes, ok, err := a.store.GetOutcomes(ctx, runID)
	if err != nil {
		return model.OutcomeSet{}, err
	}
	if !ok {
		return model.OutcomeSet{}, fmt.Errorf("outcomes not found: %s", runID)
	}
	return outcomes, nil
}

// ProgramSummary loads the persisted run bookkeeping of one program.
func (a *Arena) ProgramSummary(ctx context.Context, name string) (model.ProgramSummary, error) {
	if err := a.requireStarted(); err != nil {
		return model.ProgramSummary{}, err
	}
	summary, ok, err := a.store.GetProgramSummary(ctx, name)
	if err != nil {
		return model.ProgramSummary{}, err
	}
	if !ok {
		return model.ProgramSummary{}, fmt.Errorf("program summary not found: %s", name)
	}
	return summary, nil
}

func (a *Arena) requireStarted() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return fmt.Errorf("arena is not initialized")
	}
	return nil
}
