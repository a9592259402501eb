package crowndb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/crownshift/internal/crown"
)

// SegmentationRun records one segmentation invocation: which cloud, with
// which parameters, and how long it took.
type SegmentationRun struct {
	RunID       string          `json:"run_id"`
	CreatedAtNs int64           `json:"created_at_ns"`
	Source      string          `json:"source,omitempty"`
	PointCount  int             `json:"point_count"`
	ParamsJSON  json.RawMessage `json:"params_json"`
	DurationMs  int64           `json:"duration_ms"`
}

// RunStore provides persistence for segmentation runs and their mode tables.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a RunStore backed by the given database.
func NewRunStore(db *DB) *RunStore {
	return &RunStore{db: db.DB}
}

// InsertRun creates a new run row. If run.RunID is empty, a new UUID is
// generated; if CreatedAtNs is zero, the current time is used.
func (s *RunStore) InsertRun(run *SegmentationRun) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAtNs == 0 {
		run.CreatedAtNs = time.Now().UnixNano()
	}

	query := `
		INSERT INTO segmentation_runs (
			run_id, created_at_ns, source, point_count, params_json, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		run.RunID,
		run.CreatedAtNs,
		nullString(run.Source),
		run.PointCount,
		string(run.ParamsJSON),
		run.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// InsertModes stores the result table and diagnostics of a run in one
// transaction. results and diags must be the same length; diags may be nil,
// in which case iterations are recorded as zero and flags as false.
func (s *RunStore) InsertModes(runID string, results []crown.PointMode, diags []crown.SeedDiagnostics) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin modes transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO run_modes (
			run_id, seed_index, x, y, z, mode_x, mode_y, mode_z,
			iterations, converged, degenerate
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare mode insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		var diag crown.SeedDiagnostics
		if diags != nil {
			diag = diags[i]
		}
		_, err := stmt.Exec(
			runID, i,
			r.Point.X, r.Point.Y, r.Point.Z,
			nullNaN(r.Mode.X), nullNaN(r.Mode.Y), nullNaN(r.Mode.Z),
			diag.Iterations, diag.Converged, diag.Degenerate,
		)
		if err != nil {
			return fmt.Errorf("insert mode %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit modes: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *RunStore) GetRun(runID string) (*SegmentationRun, error) {
	query := `
		SELECT run_id, created_at_ns, source, point_count, params_json, duration_ms
		FROM segmentation_runs
		WHERE run_id = ?
	`

	var run SegmentationRun
	var source sql.NullString
	var paramsJSON string
	err := s.db.QueryRow(query, runID).Scan(
		&run.RunID,
		&run.CreatedAtNs,
		&source,
		&run.PointCount,
		&paramsJSON,
		&run.DurationMs,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	run.Source = source.String
	run.ParamsJSON = json.RawMessage(paramsJSON)
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (s *RunStore) ListRuns() ([]SegmentationRun, error) {
	query := `
		SELECT run_id, created_at_ns, source, point_count, params_json, duration_ms
		FROM segmentation_runs
		ORDER BY created_at_ns DESC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []SegmentationRun
	for rows.Next() {
		var run SegmentationRun
		var source sql.NullString
		var paramsJSON string
		if err := rows.Scan(
			&run.RunID, &run.CreatedAtNs, &source,
			&run.PointCount, &paramsJSON, &run.DurationMs,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Source = source.String
		run.ParamsJSON = json.RawMessage(paramsJSON)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetModes retrieves a run's result table and diagnostics in seed order.
// NULL mode columns (degenerate seeds) come back as NaN.
func (s *RunStore) GetModes(runID string) ([]crown.PointMode, []crown.SeedDiagnostics, error) {
	query := `
		SELECT x, y, z, mode_x, mode_y, mode_z, iterations, converged, degenerate
		FROM run_modes
		WHERE run_id = ?
		ORDER BY seed_index
	`
	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("get modes: %w", err)
	}
	defer rows.Close()

	var results []crown.PointMode
	var diags []crown.SeedDiagnostics
	for rows.Next() {
		var r crown.PointMode
		var d crown.SeedDiagnostics
		var mx, my, mz sql.NullFloat64
		if err := rows.Scan(
			&r.Point.X, &r.Point.Y, &r.Point.Z,
			&mx, &my, &mz,
			&d.Iterations, &d.Converged, &d.Degenerate,
		); err != nil {
			return nil, nil, fmt.Errorf("scan mode: %w", err)
		}
		r.Mode = crown.Mode{X: floatOrNaN(mx), Y: floatOrNaN(my), Z: floatOrNaN(mz)}
		results = append(results, r)
		diags = append(diags, d)
	}
	return results, diags, rows.Err()
}

// nullNaN maps NaN to NULL so degenerate modes round-trip through SQLite.
func nullNaN(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
