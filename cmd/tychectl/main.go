package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"tyche/internal/storage"
	tycheapi "tyche/pkg/tyche"
)

const (
	artifactsDir = "artifacts"
	exportsDir   = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "reset":
		return runReset(ctx, args[1:])
	case "programs":
		return runPrograms(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "replay":
		return runReplay(ctx, args[1:])
	case "condition":
		return runCondition(ctx, args[1:])
	case "enumerate":
		return runEnumerate(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "trace":
		return runTrace(ctx, args[1:])
	case "sites":
		return runSites(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(message string) error {
	return fmt.Errorf("%s\nusage: tychectl <init|reset|programs|run|replay|condition|enumerate|runs|trace|sites|export> [flags]", message)
}

type storeFlags struct {
	kind   *string
	dbPath *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		kind:   fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath: fs.String("db-path", "tyche.db", "sqlite database path"),
	}
}

func newClient(flags storeFlags) (*tycheapi.Client, error) {
	return tycheapi.New(tycheapi.Options{
		StoreKind:    *flags.kind,
		DBPath:       *flags.dbPath,
		ArtifactsDir: artifactsDir,
		ExportsDir:   exportsDir,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	store := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(store)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}
	fmt.Printf("initialized store=%s\n", *store.kind)
	return nil
}

func runReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	store := addStoreFlags(fs)
	runID := fs.String("run-id", "", "delete only this run")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(store)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Reset(ctx, tycheapi.ResetRequest{RunID: *runID}); err != nil {
		return err
	}
	if *runID != "" {
		fmt.Printf("deleted run %s\n", *runID)
		return nil
	}
	fmt.Printf("reset store=%s\n", *store.kind)
	return nil
}

func runPrograms(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("programs", flag.ContinueOnError)
	store := addStoreFlags(fs)
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(store)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	programs, err := client.Programs(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(programs)
	}
	for _, p := range programs {
		fmt.Printf("%-16s %s\n", p.Name, p.Description)
	}
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	store := addStoreFlags(fs)
	programName := fs.String("program", "", "program name")
	runID := fs.String("run-id", "", "run id (default: generated)")
	seed := fs.Int64("seed", 0, "random seed")
	replicates := fs.Int("replicates", 1, "number of sample-mode executions")
	configPath := fs.String("config", "", "JSON or YAML run request file")
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := tycheapi.RunRequest{
		RunID:      *runID,
		Program:    *programName,
		Seed:       *seed,
		Replicates: *replicates,
	}
	if *configPath != "" {
		loaded, err := loadRunRequestFromConfig(*configPath)
		if err != nil {
			return err
		}
		req = mergeRunRequests(loaded, req, visitedFlags(fs))
	}

	return executeRun(ctx, store, req, *asJSON)
}

func runReplay(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("replay", flag.ContinueOnError)
	store := addStoreFlags(fs)
	programName := fs.String("program", "", "program name")
	refRunID := fs.String("ref", "", "reference run id to replay")
	runID := fs.String("run-id", "", "run id (default: generated)")
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *refRunID == "" {
		return fmt.Errorf("replay requires -ref")
	}

	return executeRun(ctx, store, tycheapi.RunRequest{
		RunID:    *runID,
		Program:  *programName,
		Mode:     "replay",
		RefRunID: *refRunID,
	}, *asJSON)
}

func runCondition(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("condition", flag.ContinueOnError)
	store := addStoreFlags(fs)
	programName := fs.String("program", "", "program name")
	runID := fs.String("run-id", "", "run id (default: generated)")
	seed := fs.Int64("seed", 0, "random seed")
	observations := fs.String("obs", "", "comma separated name=value observations")
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	parsed, err := parseObservations(*observations)
	if err != nil {
		return err
	}
	if len(parsed) == 0 {
		return fmt.Errorf("condition requires at least one -obs name=value pair")
	}

	return executeRun(ctx, store, tycheapi.RunRequest{
		RunID:        *runID,
		Program:      *programName,
		Mode:         "condition",
		Seed:         *seed,
		Observations: parsed,
	}, *asJSON)
}

func runEnumerate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("enumerate", flag.ContinueOnError)
	store := addStoreFlags(fs)
	programName := fs.String("program", "", "program name")
	runID := fs.String("run-id", "", "run id (default: generated)")
	maxOutcomes := fs.Int("max-outcomes", 0, "outcome budget (default 1024)")
	maxSites := fs.Int("max-sites", 0, "per-execution site budget (default 256)")
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return executeRun(ctx, store, tycheapi.RunRequest{
		RunID:       *runID,
		Program:     *programName,
		Mode:        "enumerate",
		MaxOutcomes: *maxOutcomes,
		MaxSites:    *maxSites,
	}, *asJSON)
}

func executeRun(ctx context.Context, store storeFlags, req tycheapi.RunRequest, asJSON bool) error {
	client, err := newClient(store)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(summary)
	}

	fmt.Printf("run %s program=%s mode=%s\n", summary.RunID, summary.Program, summary.Mode)
	fmt.Printf("  value=%g sites=%d log_weight=%g\n", summary.Value, summary.Sites, summary.LogWeight)
	if summary.Outcomes > 0 {
		fmt.Printf("  outcomes=%d\n", summary.Outcomes)
	}
	if summary.Replicates != nil {
		fmt.Printf("  replicates=%d mean=%g std=%g mean_sites=%g\n",
			summary.Replicates.Count, summary.Replicates.Mean, summary.Replicates.Std, summary.Replicates.MeanSites)
	}
	fmt.Printf("  artifacts=%s\n", summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	store := addStoreFlags(fs)
	limit := fs.Int("limit", 20, "maximum entries")
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(store)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, tycheapi.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(runs)
	}
	for _, item := range runs {
		fmt.Printf("%s  %-14s %-9s seed=%-6d sites=%-4d value=%g\n",
			item.CreatedAtUTC, item.Program, item.Mode, item.Seed, item.Sites, item.Value)
	}
	return nil
}

func runTrace(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("trace", flag.ContinueOnError)
	store := addStoreFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(store)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	record, err := client.Trace(ctx, tycheapi.TraceRequest{RunID: *runID, Latest: *latest})
	if err != nil {
		return err
	}
	return printJSON(record)
}

func runSites(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sites", flag.ContinueOnError)
	store := addStoreFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	limit := fs.Int("limit", 0, "maximum sites (0 = all)")
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(store)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	sites, err := client.Sites(ctx, tycheapi.SitesRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(sites)
	}
	for i, site := range sites {
		marker := ""
		if site.Observed {
			marker = " (observed)"
		}
		fmt.Printf("%3d  %-12s %-20s value=%-12g log_prob=%g%s\n",
			i, site.Name, site.Distribution, site.Value, site.LogProb, marker)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	store := addStoreFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	outDir := fs.String("out", "", "output directory (default exports)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(store)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, tycheapi.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", summary.RunID, summary.Directory)
	return nil
}

func parseObservations(raw string) (map[string]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	out := make(map[string]float64)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("observation must be name=value, got %q", pair)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("observation name is required in %q", pair)
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("observation value in %q: %w", pair, err)
		}
		if _, exists := out[name]; exists {
			return nil, fmt.Errorf("duplicate observation: %s", name)
		}
		out[name] = parsed
	}
	return out, nil
}

func printJSON(value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
