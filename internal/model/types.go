package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// SiteRecord is the persisted form of one sample site.
type SiteRecord struct {
	Name         string  `json:"name"`
	Distribution string  `json:"distribution"`
	Value        float64 `json:"value"`
	LogProb      float64 `json:"log_prob"`
	Observed     bool    `json:"observed"`
}

// TraceRecord is the persisted form of one finalized execution trace.
type TraceRecord struct {
	VersionedRecord
	RunID        string       `json:"run_id"`
	Program      string       `json:"program"`
	Mode         string       `json:"mode"`
	Seed         int64        `json:"seed"`
	Value        float64      `json:"value"`
	LogWeight    float64      `json:"log_weight"`
	Sites        []SiteRecord `json:"sites"`
	CreatedAtUTC string       `json:"created_at_utc"`
}

// OutcomeRecord is one enumerated outcome of a discrete program.
type OutcomeRecord struct {
	Value   float64      `json:"value"`
	LogProb float64      `json:"log_prob"`
	Sites   []SiteRecord `json:"sites"`
}

// OutcomeSet groups the enumeration results of one run.
type OutcomeSet struct {
	VersionedRecord
	RunID    string          `json:"run_id"`
	Program  string          `json:"program"`
	Outcomes []OutcomeRecord `json:"outcomes"`
}

type ProgramSummary struct {
	VersionedRecord
	Name        string  `json:"name"`
	Description string  `json:"description"`
	RunCount    int     `json:"run_count"`
	LastRunID   string  `json:"last_run_id"`
	LastValue   float64 `json:"last_value"`
}
