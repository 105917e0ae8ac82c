//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"tyche/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "tyche.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStoreTraceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	input := testTrace("run-1", "weather", "2026-01-01T00:00:00Z")
	if err := store.SaveTrace(ctx, input); err != nil {
		t.Fatalf("save trace: %v", err)
	}

	output, ok, err := store.GetTrace(ctx, "run-1")
	if err != nil {
		t.Fatalf("get trace: %v", err)
	}
	if !ok {
		t.Fatal("expected trace run-1")
	}
	if output.RunID != input.RunID || output.Program != input.Program || len(output.Sites) != len(input.Sites) {
		t.Fatalf("unexpected trace loaded: %+v", output)
	}
	if output.Sites[1].Name != "temp" || output.Sites[1].Value != input.Sites[1].Value {
		t.Fatalf("unexpected site loaded: %+v", output.Sites[1])
	}

	if _, ok, _ := store.GetTrace(ctx, "missing"); ok {
		t.Fatal("missing run must not be found")
	}
}

func TestSQLiteStoreListTracesFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	_ = store.SaveTrace(ctx, testTrace("run-1", "weather", "2026-01-01T00:00:00Z"))
	_ = store.SaveTrace(ctx, testTrace("run-2", "geometric", "2026-01-02T00:00:00Z"))
	_ = store.SaveTrace(ctx, testTrace("run-3", "weather", "2026-01-03T00:00:00Z"))

	weather, err := store.ListTraces(ctx, "weather", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(weather) != 2 || weather[0].RunID != "run-3" || weather[1].RunID != "run-1" {
		t.Fatalf("unexpected filtered listing: %+v", weather)
	}

	limited, err := store.ListTraces(ctx, "", 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].RunID != "run-3" {
		t.Fatalf("unexpected limited listing: %+v", limited)
	}
}

func TestSQLiteStoreSummaryHistoryAndOutcomes(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	summary := model.ProgramSummary{
		VersionedRecord: Stamp(),
		Name:            "weather",
		Description:     "bernoulli sky state conditioning a normal temperature",
		RunCount:        2,
		LastRunID:       "run-2",
		LastValue:       58.1,
	}
	if err := store.SaveProgramSummary(ctx, summary); err != nil {
		t.Fatalf("save summary: %v", err)
	}
	loadedSummary, ok, err := store.GetProgramSummary(ctx, "weather")
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if !ok || loadedSummary.RunCount != 2 || loadedSummary.LastRunID != "run-2" {
		t.Fatalf("unexpected summary loaded: %+v", loadedSummary)
	}

	history := []float64{0.5, 0.7, 0.9}
	if err := store.SaveValueHistory(ctx, "run-1", history); err != nil {
		t.Fatalf("save history: %v", err)
	}
	loadedHistory, ok, err := store.GetValueHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if !ok || len(loadedHistory) != 3 || loadedHistory[1] != 0.7 {
		t.Fatalf("unexpected history loaded: %+v", loadedHistory)
	}

	outcomes := model.OutcomeSet{
		VersionedRecord: Stamp(),
		RunID:           "run-1",
		Program:         "two-flip",
		Outcomes: []model.OutcomeRecord{
			{Value: 0, LogProb: -1.2},
			{Value: 1, LogProb: -0.36},
		},
	}
	if err := store.SaveOutcomes(ctx, outcomes); err != nil {
		t.Fatalf("save outcomes: %v", err)
	}
	loadedOutcomes, ok, err := store.GetOutcomes(ctx, "run-1")
	if err != nil {
		t.Fatalf("get outcomes: %v", err)
	}
	if !ok || len(loadedOutcomes.Outcomes) != 2 || loadedOutcomes.Program != "two-flip" {
		t.Fatalf("unexpected outcomes loaded: %+v", loadedOutcomes)
	}
}

func TestSQLiteStoreDeleteTraceRemovesAttachments(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	_ = store.SaveTrace(ctx, testTrace("run-1", "weather", "2026-01-01T00:00:00Z"))
	_ = store.SaveValueHistory(ctx, "run-1", []float64{1, 2})
	_ = store.SaveOutcomes(ctx, model.OutcomeSet{VersionedRecord: Stamp(), RunID: "run-1", Program: "weather"})

	if err := store.DeleteTrace(ctx, "run-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, ok, _ := store.GetTrace(ctx, "run-1"); ok {
		t.Fatal("trace must be deleted")
	}
	if _, ok, _ := store.GetValueHistory(ctx, "run-1"); ok {
		t.Fatal("value history must be deleted")
	}
	if _, ok, _ := store.GetOutcomes(ctx, "run-1"); ok {
		t.Fatal("outcomes must be deleted")
	}
}

func TestSQLiteStoreResetClearsAllTables(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	_ = store.SaveTrace(ctx, testTrace("run-1", "weather", "2026-01-01T00:00:00Z"))
	_ = store.SaveProgramSummary(ctx, model.ProgramSummary{VersionedRecord: Stamp(), Name: "weather", RunCount: 1})

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, ok, _ := store.GetTrace(ctx, "run-1"); ok {
		t.Fatal("trace must be cleared")
	}
	if _, ok, _ := store.GetProgramSummary(ctx, "weather"); ok {
		t.Fatal("summary must be cleared")
	}

	if err := store.SaveTrace(ctx, testTrace("run-2", "weather", "2026-01-02T00:00:00Z")); err != nil {
		t.Fatalf("save after reset: %v", err)
	}
}
