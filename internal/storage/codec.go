package storage

import (
	"encoding/json"
	"errors"

	"tyche/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeTrace(record model.TraceRecord) ([]byte, error) {
	return json.Marshal(record)
}

func DecodeTrace(data []byte) (model.TraceRecord, error) {
	var record model.TraceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.TraceRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.TraceRecord{}, err
	}
	return record, nil
}

func EncodeProgramSummary(summary model.ProgramSummary) ([]byte, error) {
	return json.Marshal(summary)
}

func DecodeProgramSummary(data []byte) (model.ProgramSummary, error) {
	var summary model.ProgramSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return model.ProgramSummary{}, err
	}
	if err := checkVersion(summary.VersionedRecord); err != nil {
		return model.ProgramSummary{}, err
	}
	return summary, nil
}

func EncodeOutcomes(outcomes model.OutcomeSet) ([]byte, error) {
	return json.Marshal(outcomes)
}

func DecodeOutcomes(data []byte) (model.OutcomeSet, error) {
	var outcomes model.OutcomeSet
	if err := json.Unmarshal(data, &outcomes); err != nil {
		return model.OutcomeSet{}, err
	}
	if err := checkVersion(outcomes.VersionedRecord); err != nil {
		return model.OutcomeSet{}, err
	}
	return outcomes, nil
}

// Stamp fills in the current schema and codec versions.
func Stamp() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: CurrentSchemaVersion,
		CodecVersion:  CurrentCodecVersion,
	}
}

func checkVersion(record model.VersionedRecord) error {
	if record.SchemaVersion != CurrentSchemaVersion || record.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
