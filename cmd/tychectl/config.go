package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	tycheapi "tyche/pkg/tyche"
)

type runRequestFile struct {
	RunID        string             `json:"run_id" yaml:"run_id"`
	Program      string             `json:"program" yaml:"program"`
	Mode         string             `json:"mode" yaml:"mode"`
	Seed         int64              `json:"seed" yaml:"seed"`
	Replicates   int                `json:"replicates" yaml:"replicates"`
	RefRunID     string             `json:"ref_run_id" yaml:"ref_run_id"`
	Observations map[string]float64 `json:"observations" yaml:"observations"`
	MaxOutcomes  int                `json:"max_outcomes" yaml:"max_outcomes"`
	MaxSites     int                `json:"max_sites" yaml:"max_sites"`
}

// loadRunRequestFromConfig reads a run request from a JSON or YAML file,
// chosen by extension.
func loadRunRequestFromConfig(path string) (tycheapi.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tycheapi.RunRequest{}, err
	}

	var file runRequestFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &file); err != nil {
			return tycheapi.RunRequest{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return tycheapi.RunRequest{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return tycheapi.RunRequest{}, fmt.Errorf("config must be .json, .yaml or .yml: %s", path)
	}

	return tycheapi.RunRequest{
		RunID:        file.RunID,
		Program:      file.Program,
		Mode:         file.Mode,
		Seed:         file.Seed,
		Replicates:   file.Replicates,
		RefRunID:     file.RefRunID,
		Observations: file.Observations,
		MaxOutcomes:  file.MaxOutcomes,
		MaxSites:     file.MaxSites,
	}, nil
}

// visitedFlags reports which flags were set explicitly on the command line.
func visitedFlags(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// mergeRunRequests overlays explicitly set flags onto a config-file
// request. Presence is tracked per flag name so `-seed 0` and
// `-replicates 1` override the file like any other value.
func mergeRunRequests(base, flags tycheapi.RunRequest, set map[string]bool) tycheapi.RunRequest {
	if set["run-id"] {
		base.RunID = flags.RunID
	}
	if set["program"] {
		base.Program = flags.Program
	}
	if set["seed"] {
		base.Seed = flags.Seed
	}
	if set["replicates"] {
		base.Replicates = flags.Replicates
	}
	return base
}
