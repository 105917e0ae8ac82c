package storage

import (
	"context"
	"testing"

	"tyche/internal/model"
)

func testTrace(runID, program, created string) model.TraceRecord {
	return model.TraceRecord{
		VersionedRecord: Stamp(),
		RunID:           runID,
		Program:         program,
		Mode:            "sample",
		Seed:            7,
		Value:           1.5,
		Sites: []model.SiteRecord{
			{Name: "cloudy", Distribution: "bernoulli(0.3)", Value: 1, LogProb: -1.2},
			{Name: "temp", Distribution: "normal(55, 10)", Value: 52.4, LogProb: -3.25},
		},
		CreatedAtUTC: created,
	}
}

func TestMemoryStoreTraceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := testTrace("run-1", "weather", "2026-01-02T03:04:05Z")
	if err := store.SaveTrace(ctx, input); err != nil {
		t.Fatalf("save trace: %v", err)
	}

	output, ok, err := store.GetTrace(ctx, "run-1")
	if err != nil {
		t.Fatalf("get trace: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted trace")
	}
	if output.Program != "weather" || len(output.Sites) != 2 || output.Sites[1].Name != "temp" {
		t.Fatalf("unexpected trace: %+v", output)
	}

	_, ok, err = store.GetTrace(ctx, "missing")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if ok {
		t.Fatal("missing trace must not be found")
	}
}

func TestMemoryStoreListTracesFiltersAndOrders(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	_ = store.SaveTrace(ctx, testTrace("run-1", "weather", "2026-01-01T00:00:00Z"))
	_ = store.SaveTrace(ctx, testTrace("run-2", "geometric", "2026-01-02T00:00:00Z"))
	_ = store.SaveTrace(ctx, testTrace("run-3", "weather", "2026-01-03T00:00:00Z"))

	all, err := store.ListTraces(ctx, "", 0)
	if err != nil {
		t.Fatalf("list traces: %v", err)
	}
	if len(all) != 3 || all[0].RunID != "run-3" || all[2].RunID != "run-1" {
		t.Fatalf("unexpected order: %+v", all)
	}

	weather, err := store.ListTraces(ctx, "weather", 0)
	if err != nil {
		t.Fatalf("list weather: %v", err)
	}
	if len(weather) != 2 {
		t.Fatalf("unexpected filter result: %+v", weather)
	}

	limited, err := store.ListTraces(ctx, "", 1)
	if err != nil {
		t.Fatalf("list limited: %v", err)
	}
	if len(limited) != 1 || limited[0].RunID != "run-3" {
		t.Fatalf("unexpected limit result: %+v", limited)
	}
}

func TestMemoryStoreDeleteTraceRemovesAttachments(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	_ = store.SaveTrace(ctx, testTrace("run-1", "weather", "2026-01-01T00:00:00Z"))
	_ = store.SaveValueHistory(ctx, "run-1", []float64{1, 2, 3})
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

func TestMemoryStoreResetClearsAllRecords(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	_ = store.SaveTrace(ctx, testTrace("run-1", "weather", "2026-01-01T00:00:00Z"))
	_ = store.SaveProgramSummary(ctx, model.ProgramSummary{VersionedRecord: Stamp(), Name: "weather", RunCount: 1})
	_ = store.SaveValueHistory(ctx, "run-1", []float64{1})
	_ = store.SaveOutcomes(ctx, model.OutcomeSet{VersionedRecord: Stamp(), RunID: "run-1", Program: "weather"})

	if err := store.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, ok, _ := store.GetTrace(ctx, "run-1"); ok {
		t.Fatal("trace must be cleared")
	}
	if _, ok, _ := store.GetProgramSummary(ctx, "weather"); ok {
		t.Fatal("summary must be cleared")
	}
	if _, ok, _ := store.GetValueHistory(ctx, "run-1"); ok {
		t.Fatal("value history must be cleared")
	}
	if _, ok, _ := store.GetOutcomes(ctx, "run-1"); ok {
		t.Fatal("outcomes must be cleared")
	}

	if err := store.SaveTrace(ctx, testTrace("run-2", "weather", "2026-01-02T00:00:00Z")); err != nil {
		t.Fatalf("save after reset: %v", err)
	}
}

func TestMemoryStoreProgramSummaryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := model.ProgramSummary{
		VersionedRecord: Stamp(),
		Name:            "weather",
		Description:     "bernoulli sky state conditioning a normal temperature",
		RunCount:        3,
		LastRunID:       "run-3",
		LastValue:       61.2,
	}
	if err := store.SaveProgramSummary(ctx, input); err != nil {
		t.Fatalf("save summary: %v", err)
	}

	output, ok, err := store.GetProgramSummary(ctx, "weather")
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if !ok || output.RunCount != 3 || output.LastRunID != "run-3" {
		t.Fatalf("unexpected summary: %+v", output)
	}
}

func TestMemoryStoreValueHistoryCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := []float64{0.5, 1.5}
	if err := store.SaveValueHistory(ctx, "run-1", input); err != nil {
		t.Fatalf("save history: %v", err)
	}
	input[0] = 99

	output, ok, err := store.GetValueHistory(ctx, "run-1")
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if !ok || output[0] != 0.5 {
		t.Fatalf("store must copy values: %+v", output)
	}
}

func TestMemoryStoreOutcomesRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := model.OutcomeSet{
		VersionedRecord: Stamp(),
		RunID:           "run-1",
		Program:         "weather",
		Outcomes: []model.OutcomeRecord{
			{Value: 0, LogProb: -0.3567},
			{Value: 1, LogProb: -1.204},
		},
	}
	if err := store.SaveOutcomes(ctx, input); err != nil {
		t.Fatalf("save outcomes: %v", err)
	}

	output, ok, err := store.GetOutcomes(ctx, "run-1")
	if err != nil {
		t.Fatalf("get outcomes: %v", err)
	}
	if !ok || len(output.Outcomes) != 2 || output.Outcomes[1].Value != 1 {
		t.Fatalf("unexpected outcomes: %+v", output)
	}
}
