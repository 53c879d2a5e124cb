package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/pursuit/internal/config"
	"github.com/banshee-data/pursuit/internal/sim"
	"github.com/google/uuid"
)

// ErrRunNotFound is returned when a run id has no row.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded simulation session.
type Run struct {
	RunID           string          `json:"run_id"`
	Label           string          `json:"label"`
	MeasurementMode string          `json:"measurement_mode"`
	Config          json.RawMessage `json:"config"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      *time.Time      `json:"finished_at,omitempty"`

	Ticks            uint64   `json:"ticks"`
	ActiveTicks      uint64   `json:"active_ticks"`
	Hits             int      `json:"hits"`
	MeanMissDistance *float64 `json:"mean_miss_distance,omitempty"`
	MinMissDistance  *float64 `json:"min_miss_distance,omitempty"`
	MeanTimeToHit    *float64 `json:"mean_time_to_hit,omitempty"`
}

// CreateRun inserts a new run row for cfg and returns it with a fresh id.
func (db *DB) CreateRun(label string, cfg *config.SimConfig) (*Run, error) {
	if cfg == nil {
		cfg = config.EmptySimConfig()
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	run := &Run{
		RunID:           uuid.New().String(),
		Label:           label,
		MeasurementMode: cfg.GetMeasurementMode(),
		Config:          raw,
		StartedAt:       db.clock.Now().UTC(),
	}
	_, err = db.Exec(`INSERT INTO runs (run_id, label, measurement_mode, config_json, started_unix_nanos)
		VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.Label, run.MeasurementMode, string(raw), run.StartedAt.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	logf("created run %s (%s)", run.RunID, run.MeasurementMode)
	return run, nil
}

// FinishRun stamps the run with its end time and summary statistics.
func (db *DB) FinishRun(runID string, sum sim.StatsSummary) error {
	res, err := db.Exec(`UPDATE runs SET
			finished_unix_nanos = ?, ticks = ?, active_ticks = ?, hits = ?,
			mean_miss_distance = ?, min_miss_distance = ?, mean_time_to_hit = ?
		WHERE run_id = ?`,
		db.clock.Now().UTC().UnixNano(), sum.Ticks, sum.ActiveTicks, sum.Hits,
		nullFloat(sum.MeanMissDistance), nullFloat(sum.MinMissDistance), nullFloat(sum.MeanTimeToHit),
		runID)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

const runColumns = `run_id, label, measurement_mode, config_json, started_unix_nanos,
	finished_unix_nanos, ticks, active_ticks, hits,
	mean_miss_distance, min_miss_distance, mean_time_to_hit`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		r             Run
		cfg           string
		started       int64
		finished      sql.NullInt64
		meanMiss      sql.NullFloat64
		minMiss       sql.NullFloat64
		meanTimeToHit sql.NullFloat64
	)
	if err := row.Scan(&r.RunID, &r.Label, &r.MeasurementMode, &cfg, &started,
		&finished, &r.Ticks, &r.ActiveTicks, &r.Hits,
		&meanMiss, &minMiss, &meanTimeToHit); err != nil {
		return nil, err
	}
	r.Config = json.RawMessage(cfg)
	r.StartedAt = time.Unix(0, started).UTC()
	if finished.Valid {
		t := time.Unix(0, finished.Int64).UTC()
		r.FinishedAt = &t
	}
	r.MeanMissDistance = floatPtr(meanMiss)
	r.MinMissDistance = floatPtr(minMiss)
	r.MeanTimeToHit = floatPtr(meanTimeToHit)
	return &r, nil
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// GetRun returns a single run.
func (db *DB) GetRun(runID string) (*Run, error) {
	r, err := scanRun(db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	return r, nil
}

// Runs lists the most recently started runs, newest first. A non-positive
// limit defaults to 100.
func (db *DB) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`SELECT `+runColumns+` FROM runs ORDER BY started_unix_nanos DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its ticks.
func (db *DB) DeleteRun(runID string) error {
	if _, err := db.Exec(`DELETE FROM ticks WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to delete ticks for %s: %w", runID, err)
	}
	res, err := db.Exec(`DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}
