package db

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/banshee-data/pursuit/internal/sim"
	"github.com/banshee-data/pursuit/internal/vec"
)

const insertTickSQL = `INSERT INTO ticks (
		run_id, tick, target_x, target_y, direction_x, direction_y, speed,
		pursuer_x, pursuer_y, active, measured_x, measured_y,
		estimate_x, estimate_y, velocity_x, velocity_y, covariance_trace,
		innovation_x, innovation_y, miss_distance, hit
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func insertTick(e execer, runID string, s sim.Snapshot) error {
	_, err := e.Exec(insertTickSQL,
		runID, s.Tick, s.Target.X, s.Target.Y, s.Direction.X, s.Direction.Y, s.Speed,
		s.Pursuer.X, s.Pursuer.Y, boolInt(s.Active), s.Measured.X, s.Measured.Y,
		s.Estimate.X, s.Estimate.Y, s.EstimatedVelocity.X, s.EstimatedVelocity.Y, s.CovarianceTrace,
		s.Innovation.X, s.Innovation.Y, s.MissDistance, boolInt(s.Hit),
	)
	return err
}

// RecordTick writes a single snapshot.
func (db *DB) RecordTick(runID string, s sim.Snapshot) error {
	if err := insertTick(db, runID, s); err != nil {
		return fmt.Errorf("failed to record tick %d: %w", s.Tick, err)
	}
	return nil
}

// RecordTicks writes snapshots in one transaction.
func (db *DB) RecordTicks(runID string, snaps []sim.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stmt, err := tx.Prepare(insertTickSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare tick insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range snaps {
		if err := insertTick(stmtExecer{stmt}, runID, s); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record tick %d: %w", s.Tick, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ticks: %w", err)
	}
	return nil
}

type stmtExecer struct{ stmt *sql.Stmt }

func (s stmtExecer) Exec(_ string, args ...interface{}) (sql.Result, error) {
	return s.stmt.Exec(args...)
}

// Ticks returns the recorded snapshots of a run in tick order. Hits is
// rebuilt as the running count of hit ticks.
func (db *DB) Ticks(runID string) ([]sim.Snapshot, error) {
	rows, err := db.Query(`SELECT tick, target_x, target_y, direction_x, direction_y, speed,
			pursuer_x, pursuer_y, active, measured_x, measured_y,
			estimate_x, estimate_y, velocity_x, velocity_y, covariance_trace,
			innovation_x, innovation_y, miss_distance, hit
		FROM ticks WHERE run_id = ? ORDER BY tick`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticks: %w", err)
	}
	defer rows.Close()

	var (
		out  []sim.Snapshot
		hits int
	)
	for rows.Next() {
		var (
			s           sim.Snapshot
			active, hit int
		)
		if err := rows.Scan(&s.Tick, &s.Target.X, &s.Target.Y, &s.Direction.X, &s.Direction.Y, &s.Speed,
			&s.Pursuer.X, &s.Pursuer.Y, &active, &s.Measured.X, &s.Measured.Y,
			&s.Estimate.X, &s.Estimate.Y, &s.EstimatedVelocity.X, &s.EstimatedVelocity.Y, &s.CovarianceTrace,
			&s.Innovation.X, &s.Innovation.Y, &s.MissDistance, &hit); err != nil {
			return nil, fmt.Errorf("failed to scan tick: %w", err)
		}
		s.Active = active != 0
		s.Hit = hit != 0
		if s.Hit {
			hits++
		}
		s.Hits = hits
		out = append(out, s)
	}
	return out, rows.Err()
}

// Trajectory returns the target and pursuer paths of a run.
func (db *DB) Trajectory(runID string) (targetPath, pursuerPath []vec.Vec2, err error) {
	snaps, err := db.Ticks(runID)
	if err != nil {
		return nil, nil, err
	}
	targetPath = make([]vec.Vec2, len(snaps))
	pursuerPath = make([]vec.Vec2, len(snaps))
	for i, s := range snaps {
		targetPath[i] = s.Target
		pursuerPath[i] = s.Pursuer
	}
	return targetPath, pursuerPath, nil
}

// DefaultBatchSize is the number of ticks a Recorder buffers per
// transaction.
const DefaultBatchSize = 120

// Recorder is a sim.Observer persisting every tick of one run. Writes are
// batched; the first write error is kept and later ticks are dropped.
type Recorder struct {
	db        *DB
	runID     string
	batchSize int

	mu       sync.Mutex
	pending  []sim.Snapshot
	recorded uint64
	err      error
}

// NewRecorder returns a Recorder for runID. batchSize <= 0 uses
// DefaultBatchSize.
func (db *DB) NewRecorder(runID string, batchSize int) *Recorder {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Recorder{db: db, runID: runID, batchSize: batchSize}
}

// ObserveTick implements sim.Observer.
func (r *Recorder) ObserveTick(s sim.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	r.pending = append(r.pending, s)
	if len(r.pending) >= r.batchSize {
		r.flushLocked()
	}
}

// Flush writes buffered ticks and returns the first error seen so far.
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err == nil {
		r.flushLocked()
	}
	return r.err
}

func (r *Recorder) flushLocked() {
	if len(r.pending) == 0 {
		return
	}
	if err := r.db.RecordTicks(r.runID, r.pending); err != nil {
		r.err = err
		logf("recorder for run %s stopped: %v", r.runID, err)
		return
	}
	r.recorded += uint64(len(r.pending))
	r.pending = r.pending[:0]
}

// Recorded returns the number of ticks committed.
func (r *Recorder) Recorded() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recorded
}

// RunID returns the run being recorded.
func (r *Recorder) RunID() string { return r.runID }
