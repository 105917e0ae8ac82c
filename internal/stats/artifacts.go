// Package stats writes per-run artifact directories and aggregates
// replicate executions.
package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"tyche/internal/model"
)

const runIndexFile = "run_index.json"

type RunConfig struct {
	RunID        string             `json:"run_id"`
	Program      string             `json:"program"`
	Mode         string             `json:"mode"`
	Seed         int64              `json:"seed"`
	Replicates   int                `json:"replicates"`
	RefRunID     string             `json:"ref_run_id,omitempty"`
	Observations map[string]float64 `json:"observations,omitempty"`
}

type RunArtifacts struct {
	Config     RunConfig             `json:"config"`
	Trace      model.TraceRecord     `json:"trace"`
	Values     []float64             `json:"values,omitempty"`
	Outcomes   []model.OutcomeRecord `json:"outcomes,omitempty"`
	Replicates *ReplicateSummary     `json:"replicates,omitempty"`
}

type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	Program      string  `json:"program"`
	Mode         string  `json:"mode"`
	Seed         int64   `json:"seed"`
	Sites        int     `json:"sites"`
	Value        float64 `json:"value"`
	LogWeight    float64 `json:"log_weight"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Config.RunID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Config.RunID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "config.json"), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "trace.json"), artifacts.Trace); err != nil {
		return "", err
	}
	if err := writeSitesCSV(filepath.Join(runDir, "sites.csv"), artifacts.Trace.Sites); err != nil {
		return "", err
	}
	if len(artifacts.Outcomes) > 0 {
		if err := writeJSON(filepath.Join(runDir, "outcomes.json"), artifacts.Outcomes); err != nil {
			return "", err
		}
	}
	if artifacts.Replicates != nil {
		if err := writeJSON(filepath.Join(runDir, "replicates.json"), map[string]any{
			"values":  artifacts.Values,
			"summary": artifacts.Replicates,
		}); err != nil {
			return "", err
		}
	}

	return runDir, nil
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// RemoveRunIndexEntry drops one run from the index. Missing entries and a
// missing index are not errors.
func RemoveRunIndexEntry(baseDir, runID string) error {
	if runID == "" {
		return fmt.Errorf("run id is required")
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	kept := make([]RunIndexEntry, 0, len(index))
	for _, entry := range index {
		if entry.RunID != runID {
			kept = append(kept, entry)
		}
	}
	if len(kept) == len(index) {
		return nil
	}
	return writeJSON(filepath.Join(baseDir, runIndexFile), kept)
}

func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	path := filepath.Join(baseDir, runIndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunIndexEntry{}, nil
		}
		return nil, err
	}

	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}

	type indexedEntry struct {
		entry RunIndexEntry
		idx   int
	}
	indexed := make([]indexedEntry, len(entries))
	for i := range entries {
		indexed[i] = indexedEntry{entry: entries[i], idx: i}
	}
	sort.Slice(indexed, func(i, j int) bool {
		if indexed[i].entry.CreatedAtUTC == indexed[j].entry.CreatedAtUTC {
			// Prefer later appended entries for equal timestamps.
			return indexed[i].idx > indexed[j].idx
		}
		return indexed[i].entry.CreatedAtUTC > indexed[j].entry.CreatedAtUTC
	})

	sorted := make([]RunIndexEntry, 0, len(indexed))
	for _, item := range indexed {
		sorted = append(sorted, item.entry)
	}
	return sorted, nil
}

func ExportRunArtifacts(baseDir, runID, outDir string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run id is required")
	}

	src := filepath.Join(baseDir, runID)
	if _, err := os.Stat(src); err != nil {
		return "", err
	}

	dst := filepath.Join(outDir, runID)
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return "", err
	}

	for _, file := range []string{"config.json", "trace.json", "sites.csv"} {
		if err := copyFile(filepath.Join(src, file), filepath.Join(dst, file)); err != nil {
			return "", err
		}
	}
	for _, file := range []string{"outcomes.json", "replicates.json"} {
		path := filepath.Join(src, file)
		if _, err := os.Stat(path); err == nil {
			if err := copyFile(path, filepath.Join(dst, file)); err != nil {
				return "", err
			}
		} else if !os.IsNotExist(err) {
			return "", err
		}
	}

	return dst, nil
}

func ReadRunConfig(baseDir, runID string) (RunConfig, bool, error) {
	path := filepath.Join(baseDir, runID, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return RunConfig{}, false, nil
		}
		return RunConfig{}, false, err
	}

	var cfg RunConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RunConfig{}, false, err
	}
	return cfg, true, nil
}

func writeSitesCSV(path string, sites []model.SiteRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"order", "name", "distribution", "value", "log_prob", "observed"}); err != nil {
		return err
	}
	for i, site := range sites {
		if err := writer.Write([]string{
			strconv.Itoa(i),
			site.Name,
			site.Distribution,
			strconv.FormatFloat(site.Value, 'f', -1, 64),
			strconv.FormatFloat(site.LogProb, 'f', -1, 64),
			strconv.FormatBool(site.Observed),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
