// Package tyche is the public client API over the execution platform.
package tyche

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"tyche/internal/effect"
	"tyche/internal/model"
	"tyche/internal/platform"
	"tyche/internal/program"
	"tyche/internal/stats"
	"tyche/internal/storage"
)

const (
	defaultArtifactsDir = "artifacts"
	defaultExportsDir   = "exports"
	defaultDBPath       = "tyche.db"
)

type Options struct {
	StoreKind    string
	DBPath       string
	ArtifactsDir string
	ExportsDir   string
}

type Client struct {
	store storage.Store
	arena *platform.Arena

	artifactsDir string
	exportsDir   string
}

type RunRequest struct {
	RunID        string
	Program      string
	Mode         string
	Seed         int64
	Replicates   int
	RefRunID     string
	Observations map[string]float64
	MaxOutcomes  int
	MaxSites     int
}

type RunSummary struct {
	RunID        string
	Program      string
	Mode         string
	ArtifactsDir string
	Value        float64
	LogWeight    float64
	Sites        int
	Outcomes     int
	Replicates   *stats.ReplicateSummary
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	Program      string
	Mode         string
	Seed         int64
	Sites        int
	Value        float64
	LogWeight    float64
	CreatedAtUTC string
}

type TraceRequest struct {
	RunID  string
	Latest bool
}

type SitesRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type OutcomesRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ResetRequest struct {
	// RunID limits the reset to one run; empty clears everything.
	RunID string
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type ProgramItem struct {
	Name        string
	Description string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	artifactsDir := opts.ArtifactsDir
	if artifactsDir == "" {
		artifactsDir = defaultArtifactsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:        store,
		artifactsDir: artifactsDir,
		exportsDir:   exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensureArena(ctx)
	return err
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Program == "" {
		return RunSummary{}, errors.New("program is required")
	}
	mode, err := effect.ParseMode(req.Mode)
	if err != nil {
		return RunSummary{}, err
	}
	if req.Replicates <= 0 {
		req.Replicates = 1
	}
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	arena, err := c.ensureArena(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	result, err := arena.ExecuteRun(ctx, platform.RunConfig{
		RunID:        runID,
		Program:      req.Program,
		Mode:         mode,
		Seed:         req.Seed,
		Replicates:   req.Replicates,
		RefRunID:     req.RefRunID,
		Observations: req.Observations,
		MaxOutcomes:  req.MaxOutcomes,
		MaxSites:     req.MaxSites,
	})
	if err != nil {
		return RunSummary{}, err
	}

	artifacts := stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:        runID,
			Program:      req.Program,
			Mode:         mode.String(),
			Seed:         req.Seed,
			Replicates:   req.Replicates,
			RefRunID:     req.RefRunID,
			Observations: req.Observations,
		},
		Trace:    result.Record,
		Outcomes: result.Outcomes,
	}
	var replicates *stats.ReplicateSummary
	if len(result.Values) > 1 {
		summary, err := stats.SummarizeReplicates(result.Values, result.SiteCounts)
		if err != nil {
			return RunSummary{}, err
		}
		replicates = &summary
		artifacts.Values = result.Values
		artifacts.Replicates = replicates
	}

	runDir, err := stats.WriteRunArtifacts(c.artifactsDir, artifacts)
	if err != nil {
		return RunSummary{}, err
	}
	if err := stats.AppendRunIndex(c.artifactsDir, stats.RunIndexEntry{
		RunID:        runID,
		Program:      req.Program,
		Mode:         mode.String(),
		Seed:         req.Seed,
		Sites:        len(result.Record.Sites),
		Value:        result.Record.Value,
		LogWeight:    result.LogWeight,
		CreatedAtUTC: result.Record.CreatedAtUTC,
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:        runID,
		Program:      req.Program,
		Mode:         mode.String(),
		ArtifactsDir: filepath.Clean(runDir),
		Value:        result.Record.Value,
		LogWeight:    result.LogWeight,
		Sites:        len(result.Record.Sites),
		Outcomes:     len(result.Outcomes),
		Replicates:   replicates,
	}, nil
}

// Reset deletes one run when a run id is given, otherwise clears the
// whole store and artifacts directory.
func (c *Client) Reset(ctx context.Context, req ResetRequest) error {
	arena, err := c.ensureArena(ctx)
	if err != nil {
		return err
	}

	if req.RunID != "" {
		if err := arena.DeleteRun(ctx, req.RunID); err != nil {
			return err
		}
		if err := stats.RemoveRunIndexEntry(c.artifactsDir, req.RunID); err != nil {
			return err
		}
		return os.RemoveAll(filepath.Join(c.artifactsDir, req.RunID))
	}

	if err := arena.Reset(ctx); err != nil {
		return err
	}
	return os.RemoveAll(c.artifactsDir)
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:        e.RunID,
			Program:      e.Program,
			Mode:         e.Mode,
			Seed:         e.Seed,
			Sites:        e.Sites,
			Value:        e.Value,
			LogWeight:    e.LogWeight,
			CreatedAtUTC: e.CreatedAtUTC,
		})
	}
	return out, nil
}

func (c *Client) Trace(ctx context.Context, req TraceRequest) (model.TraceRecord, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return model.TraceRecord{}, err
	}

	arena, err := c.ensureArena(ctx)
	if err != nil {
		return model.TraceRecord{}, err
	}
	return arena.Trace(ctx, runID)
}

func (c *Client) Sites(ctx context.Context, req SitesRequest) ([]model.SiteRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	record, err := c.Trace(ctx, TraceRequest{RunID: req.RunID, Latest: req.Latest})
	if err != nil {
		return nil, err
	}

	sites := record.Sites
	if req.Limit > 0 && len(sites) > req.Limit {
		sites = sites[:req.Limit]
	}
	out := make([]model.SiteRecord, len(sites))
	copy(out, sites)
	return out, nil
}

func (c *Client) Outcomes(ctx context.Context, req OutcomesRequest) ([]model.OutcomeRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}

	arena, err := c.ensureArena(ctx)
	if err != nil {
		return nil, err
	}
	outcomes, err := arena.Outcomes(ctx, runID)
	if err != nil {
		return nil, err
	}
	records := outcomes.Outcomes
	if req.Limit > 0 && len(records) > req.Limit {
		records = records[:req.Limit]
	}
	out := make([]model.OutcomeRecord, len(records))
	copy(out, records)
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	exportedDir, err := stats.ExportRunArtifacts(c.artifactsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) Programs(ctx context.Context) ([]ProgramItem, error) {
	arena, err := c.ensureArena(ctx)
	if err != nil {
		return nil, err
	}

	infos := arena.Programs()
	out := make([]ProgramItem, 0, len(infos))
	for _, info := range infos {
		out = append(out, ProgramItem{Name: info.Name, Description: info.Description})
	}
	return out, nil
}

// RegisterProgram adds a caller-defined program alongside the defaults.
func (c *Client) RegisterProgram(ctx context.Context, p program.Program) error {
	arena, err := c.ensureArena(ctx)
	if err != nil {
		return err
	}
	return arena.RegisterProgram(p)
}

func (c *Client) resolveRunID(runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("run id or latest is required")
	}

	entries, err := stats.ListRunIndex(c.artifactsDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func (c *Client) ensureArena(ctx context.Context) (*platform.Arena, error) {
	if c.arena != nil {
		return c.arena, nil
	}
	arena := platform.NewArena(platform.Config{Store: c.store})
	if err := arena.Init(ctx); err != nil {
		return nil, err
	}
	if err := arena.RegisterDefaults(); err != nil {
		return nil, err
	}
	c.arena = arena
	return c.arena, nil
}
