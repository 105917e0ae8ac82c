//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"tyche/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func newSQLiteStore(path string) (Store, error) {
	return NewSQLiteStore(path), nil
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Reset empties every table, keeping the schema in place.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	for _, statement := range []string{
		`DELETE FROM traces`,
		`DELETE FROM program_summaries`,
		`DELETE FROM value_history`,
		`DELETE FROM outcomes`,
	} {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("sqlite store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS traces (
			run_id TEXT PRIMARY KEY,
			program TEXT NOT NULL,
			created_at_utc TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_traces_program ON traces(program, created_at_utc)`,
		`CREATE TABLE IF NOT EXISTS program_summaries (
			name TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS value_history (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			run_id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		)`,
	}
	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveTrace(ctx context.Context, record model.TraceRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeTrace(record)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO traces (run_id, program, created_at_utc, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			program = excluded.program,
			created_at_utc = excluded.created_at_utc,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, record.RunID, record.Program, record.CreatedAtUTC, record.SchemaVersion, record.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetTrace(ctx context.Context, runID string) (model.TraceRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.TraceRecord{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM traces WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TraceRecord{}, false, nil
		}
		return model.TraceRecord{}, false, err
	}

	record, err := DecodeTrace(payload)
	if err != nil {
		return model.TraceRecord{}, false, fmt.Errorf("decode trace %s: %w", runID, err)
	}
	return record, true, nil
}

func (s *SQLiteStore) ListTraces(ctx context.Context, program string, limit int) ([]model.TraceRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	query := `SELECT payload FROM traces ORDER BY created_at_utc DESC, run_id DESC`
	args := []any{}
	if program != "" {
		query = `SELECT payload FROM traces WHERE program = ? ORDER BY created_at_utc DESC, run_id DESC`
		args = append(args, program)
	}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.TraceRecord, 0, 16)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		record, err := DecodeTrace(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteTrace(ctx context.Context, runID string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	for _, statement := range []string{
		`DELETE FROM traces WHERE run_id = ?`,
		`DELETE FROM value_history WHERE run_id = ?`,
		`DELETE FROM outcomes WHERE run_id = ?`,
	} {
		if _, err := db.ExecContext(ctx, statement, runID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveProgramSummary(ctx context.Context, summary model.ProgramSummary) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeProgramSummary(summary)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO program_summaries (name, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, summary.Name, summary.SchemaVersion, summary.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetProgramSummary(ctx context.Context, name string) (model.ProgramSummary, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.ProgramSummary{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM program_summaries WHERE name = ?`, name).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ProgramSummary{}, false, nil
		}
		return model.ProgramSummary{}, false, err
	}

	summary, err := DecodeProgramSummary(payload)
	if err != nil {
		return model.ProgramSummary{}, false, fmt.Errorf("decode program summary %s: %w", name, err)
	}
	return summary, true, nil
}

func (s *SQLiteStore) SaveValueHistory(ctx context.Context, runID string, values []float64) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(values)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO value_history (run_id, payload)
		VALUES (?, ?)
		ON CONFLICT(run_id) DO UPDATE SET payload = excluded.payload
	`, runID, payload)
	return err
}

func (s *SQLiteStore) GetValueHistory(ctx context.Context, runID string) ([]float64, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM value_history WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var values []float64
	if err := json.Unmarshal(payload, &values); err != nil {
		return nil, false, err
	}
	return values, true, nil
}

func (s *SQLiteStore) SaveOutcomes(ctx context.Context, outcomes model.OutcomeSet) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeOutcomes(outcomes)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO outcomes (run_id, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, outcomes.RunID, outcomes.SchemaVersion, outcomes.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetOutcomes(ctx context.Context, runID string) (model.OutcomeSet, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.OutcomeSet{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM outcomes WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.OutcomeSet{}, false, nil
		}
		return model.OutcomeSet{}, false, err
	}

	outcomes, err := DecodeOutcomes(payload)
	if err != nil {
		return model.OutcomeSet{}, false, fmt.Errorf("decode outcomes %s: %w", runID, err)
	}
	return outcomes, true, nil
}
