package storage

import (
	"context"
	"sort"
	"sync"

	"tyche/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	traces      map[string]model.TraceRecord
	summaries   map[string]model.ProgramSummary
	history     map[string][]float64
	outcomes    map[string]model.OutcomeSet
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.traces = make(map[string]model.TraceRecord)
	s.summaries = make(map[string]model.ProgramSummary)
	s.history = make(map[string][]float64)
	s.outcomes = make(map[string]model.OutcomeSet)
	return nil
}

// Reset drops every record, keeping the store usable.
func (s *MemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.traces = make(map[string]model.TraceRecord)
	s.summaries = make(map[string]model.ProgramSummary)
	s.history = make(map[string][]float64)
	s.outcomes = make(map[string]model.OutcomeSet)
	return nil
}

func (s *MemoryStore) SaveTrace(_ context.Context, record model.TraceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.Sites = append([]model.SiteRecord(nil), record.Sites...)
	s.traces[record.RunID] = record
	return nil
}

func (s *MemoryStore) GetTrace(_ context.Context, runID string) (model.TraceRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.traces[runID]
	if !ok {
		return model.TraceRecord{}, false, nil
	}
	record.Sites = append([]model.SiteRecord(nil), record.Sites...)
	return record, true, nil
}

func (s *MemoryStore) ListTraces(_ context.Context, program string, limit int) ([]model.TraceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TraceRecord, 0, len(s.traces))
	for _, record := range s.traces {
		if program != "" && record.Program != program {
			continue
		}
		record.Sites = append([]model.SiteRecord(nil), record.Sites...)
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAtUTC == out[j].CreatedAtUTC {
			return out[i].RunID > out[j].RunID
		}
		return out[i].CreatedAtUTC > out[j].CreatedAtUTC
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) DeleteTrace(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.traces, runID)
	delete(s.history, runID)
	delete(s.outcomes, runID)
	return nil
}

func (s *MemoryStore) SaveProgramSummary(_ context.Context, summary model.ProgramSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries[summary.Name] = summary
	return nil
}

func (s *MemoryStore) GetProgramSummary(_ context.Context, name string) (model.ProgramSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.summaries[name]
	return summary, ok, nil
}

func (s *MemoryStore) SaveValueHistory(_ context.Context, runID string, values []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[runID] = append([]float64(nil), values...)
	return nil
}

func (s *MemoryStore) GetValueHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), values...), true, nil
}

func (s *MemoryStore) SaveOutcomes(_ context.Context, outcomes model.OutcomeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcomes.Outcomes = append([]model.OutcomeRecord(nil), outcomes.Outcomes...)
	s.outcomes[outcomes.RunID] = outcomes
	return nil
}

func (s *MemoryStore) GetOutcomes(_ context.Context, runID string) (model.OutcomeSet, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	outcomes, ok := s.outcomes[runID]
	if !ok {
		return model.OutcomeSet{}, false, nil
	}
	outcomes.Outcomes = append([]model.OutcomeRecord(nil), outcomes.Outcomes...)
	return outcomes, true, nil
}
