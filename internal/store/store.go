// Package store persists pipeline results in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/scenevec/internal/monitoring"
	"github.com/banshee-data/scenevec/internal/simlog/features"
	"github.com/banshee-data/scenevec/internal/simlog/pipeline"
)

// ErrRunNotFound is returned when a run id has no stored result.
var ErrRunNotFound = errors.New("run not found")

// pragmas are applied on open.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA temp_store = MEMORY",
	"PRAGMA foreign_keys = ON",
}

// Store wraps a results database.
type Store struct {
	*sql.DB
}

// Open opens or creates the database at path and migrates it to the
// latest schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection; a single connection keeps them in force.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	s := &Store{db}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// vectorTable is the table holding one fixed-width kind.
type vectorTable struct {
	name    string
	columns []string
}

var vectorTables = map[features.Kind]vectorTable{
	features.KindScene:     {"scene_vectors", features.SceneColumns},
	features.KindActor:     {"actor_vectors", features.ActorColumns},
	features.KindEgoAction: {"ego_action_vectors", features.EgoActionColumns},
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// SaveResult stores res in a single transaction. Saving a run id that
// already exists fails.
func (s *Store) SaveResult(ctx context.Context, res *pipeline.Result) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	id := res.RunID.String()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
			run_id, source_path, encoding, started_at, map_name, crosswalks, junctions,
			frame_count, mismatches, denoise_window, load_ns, build_ns, assemble_ns, denoise_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, res.SourcePath, string(res.Encoding), res.StartedAt.UTC().Format(time.RFC3339Nano),
		res.Map.Name, res.Map.Crosswalks, res.Map.Junctions,
		len(res.Frames), res.Mismatches, res.Window,
		int64(res.Timings.Load), int64(res.Timings.Build), int64(res.Timings.Assemble), int64(res.Timings.Denoise),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", id, err)
	}

	if err := insertFrames(ctx, tx, id, res.Frames); err != nil {
		return err
	}
	for _, set := range []struct {
		denoised bool
		ms       []features.Matrix
	}{{false, res.Raw}, {true, res.Denoised}} {
		for _, m := range set.ms {
			if err := insertMatrix(ctx, tx, id, set.denoised, m); err != nil {
				return fmt.Errorf("insert %s vectors: %w", m.Kind, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	monitoring.Diagf("store: saved run %s (%d frames)", id, len(res.Frames))
	return nil
}

func insertFrames(ctx context.Context, tx *sql.Tx, id string, fs []pipeline.FrameSummary) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO frames (
			run_id, frame_index, timestamp, elapsed_ns, egos, vehicles, traffic_lights, traffic_signs, pedestrians
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range fs {
		var elapsed sql.NullInt64
		if f.Elapsed != nil {
			elapsed = sql.NullInt64{Int64: int64(*f.Elapsed), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, id, f.Index, f.Timestamp.UTC().Format(time.RFC3339Nano), elapsed,
			f.Egos, f.Vehicles, f.TrafficLights, f.TrafficSigns, f.Pedestrians); err != nil {
			return fmt.Errorf("insert frame %d: %w", f.Index, err)
		}
	}
	return nil
}

func insertMatrix(ctx context.Context, tx *sql.Tx, id string, denoised bool, m features.Matrix) error {
	if m.Kind == features.KindObstacle {
		return insertObstacles(ctx, tx, id, denoised, m)
	}
	t, ok := vectorTables[m.Kind]
	if !ok {
		return fmt.Errorf("no table for kind %q", m.Kind)
	}
	if m.Width() != len(t.columns) {
		return fmt.Errorf("%s matrix has %d columns, table has %d", m.Kind, m.Width(), len(t.columns))
	}

	query := fmt.Sprintf("INSERT INTO %s (run_id, denoised, row_index, frame_index, %s) VALUES (?, ?, ?, ?%s)",
		t.name, strings.Join(t.columns, ", "), strings.Repeat(", ?", len(t.columns)))
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, 4+len(t.columns))
	for r, row := range m.Rows {
		args[0], args[1], args[2], args[3] = id, boolInt(denoised), r, m.FrameIndex[r]
		for c, v := range row {
			args[4+c] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// insertObstacles stores the type universe once per run and one record per
// row and type. Obstacle matrices share their row layout with the other
// kinds, so rows are recovered from scene_vectors on load.
func insertObstacles(ctx context.Context, tx *sql.Tx, id string, denoised bool, m features.Matrix) error {
	types := obstacleTypes(m.Columns)
	if !denoised {
		for i, typeID := range types {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO obstacle_types (run_id, type_index, type_id) VALUES (?, ?, ?)", id, i, typeID); err != nil {
				return err
			}
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO obstacle_vectors (run_id, denoised, row_index, frame_index, type_index, present, count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	n := len(types)
	for r, row := range m.Rows {
		for t := 0; t < n; t++ {
			if _, err := stmt.ExecContext(ctx, id, boolInt(denoised), r, m.FrameIndex[r], t, row[t], row[n+t]); err != nil {
				return err
			}
		}
	}
	return nil
}

// obstacleTypes recovers the type ids from "present:<type>" columns.
func obstacleTypes(columns []string) []string {
	var types []string
	for _, c := range columns {
		if t, ok := strings.CutPrefix(c, "present:"); ok {
			types = append(types, t)
		}
	}
	return types
}

// RunSummary describes one stored run.
type RunSummary struct {
	ID         uuid.UUID
	SourcePath string
	Encoding   string
	StartedAt  time.Time
	MapName    string
	Frames     int
	Mismatches int
	Window     int
	Total      time.Duration
}

// ListRuns returns stored runs, most recently started first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT run_id, source_path, encoding, started_at, map_name, frame_count, mismatches, denoise_window,
			load_ns + build_ns + assemble_ns + denoise_ns
		FROM runs ORDER BY started_at DESC, run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			r           RunSummary
			id, started string
			total       int64
		)
		if err := rows.Scan(&id, &r.SourcePath, &r.Encoding, &started, &r.MapName, &r.Frames, &r.Mismatches, &r.Window, &total); err != nil {
			return nil, err
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("run id %q: %w", id, err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("run %s started_at: %w", id, err)
		}
		r.Total = time.Duration(total)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// LoadMatrix reads one stored matrix back. It returns ErrRunNotFound for an
// unknown run id.
func (s *Store) LoadMatrix(ctx context.Context, id uuid.UUID, kind features.Kind, denoised bool) (features.Matrix, error) {
	var exists int
	if err := s.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs WHERE run_id = ?", id.String()).Scan(&exists); err != nil {
		return features.Matrix{}, err
	}
	if exists == 0 {
		return features.Matrix{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if kind == features.KindObstacle {
		return s.loadObstacles(ctx, id.String(), denoised)
	}

	t, ok := vectorTables[kind]
	if !ok {
		return features.Matrix{}, fmt.Errorf("no table for kind %q", kind)
	}
	rows, err := s.QueryContext(ctx,
		fmt.Sprintf("SELECT frame_index, %s FROM %s WHERE run_id = ? AND denoised = ? ORDER BY row_index",
			strings.Join(t.columns, ", "), t.name),
		id.String(), boolInt(denoised))
	if err != nil {
		return features.Matrix{}, err
	}
	defer rows.Close()

	m := features.Matrix{Kind: kind, Columns: append([]string(nil), t.columns...), Rows: [][]float64{}, FrameIndex: []int{}}
	dest := make([]any, 1+len(t.columns))
	for rows.Next() {
		var fi int
		row := make([]float64, len(t.columns))
		dest[0] = &fi
		for c := range row {
			dest[1+c] = &row[c]
		}
		if err := rows.Scan(dest...); err != nil {
			return features.Matrix{}, err
		}
		m.Rows = append(m.Rows, row)
		m.FrameIndex = append(m.FrameIndex, fi)
	}
	return m, rows.Err()
}

func (s *Store) loadObstacles(ctx context.Context, id string, denoised bool) (features.Matrix, error) {
	var types []string
	trows, err := s.QueryContext(ctx, "SELECT type_id FROM obstacle_types WHERE run_id = ? ORDER BY type_index", id)
	if err != nil {
		return features.Matrix{}, err
	}
	for trows.Next() {
		var t string
		if err := trows.Scan(&t); err != nil {
			trows.Close()
			return features.Matrix{}, err
		}
		types = append(types, t)
	}
	trows.Close()
	if err := trows.Err(); err != nil {
		return features.Matrix{}, err
	}

	n := len(types)
	m := features.Matrix{Kind: features.KindObstacle, Columns: make([]string, 0, 2*n), Rows: [][]float64{}, FrameIndex: []int{}}
	for _, t := range types {
		m.Columns = append(m.Columns, "present:"+t)
	}
	for _, t := range types {
		m.Columns = append(m.Columns, "count:"+t)
	}

	frows, err := s.QueryContext(ctx,
		"SELECT frame_index FROM scene_vectors WHERE run_id = ? AND denoised = ? ORDER BY row_index", id, boolInt(denoised))
	if err != nil {
		return features.Matrix{}, err
	}
	for frows.Next() {
		var fi int
		if err := frows.Scan(&fi); err != nil {
			frows.Close()
			return features.Matrix{}, err
		}
		m.FrameIndex = append(m.FrameIndex, fi)
		m.Rows = append(m.Rows, make([]float64, 2*n))
	}
	frows.Close()
	if err := frows.Err(); err != nil {
		return features.Matrix{}, err
	}

	vrows, err := s.QueryContext(ctx,
		"SELECT row_index, type_index, present, count FROM obstacle_vectors WHERE run_id = ? AND denoised = ?",
		id, boolInt(denoised))
	if err != nil {
		return features.Matrix{}, err
	}
	defer vrows.Close()
	for vrows.Next() {
		var r, t int
		var present, count float64
		if err := vrows.Scan(&r, &t, &present, &count); err != nil {
			return features.Matrix{}, err
		}
		if r >= len(m.Rows) || t >= n {
			return features.Matrix{}, fmt.Errorf("obstacle vector (%d, %d) outside %dx%d matrix", r, t, len(m.Rows), n)
		}
		m.Rows[r][t] = present
		m.Rows[r][n+t] = count
	}
	return m, vrows.Err()
}

// DeleteRun removes a run and everything stored for it.
func (s *Store) DeleteRun(ctx context.Context, id uuid.UUID) error {
	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"obstacle_vectors", "obstacle_types", "ego_action_vectors", "actor_vectors", "scene_vectors", "frames"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", id.String()); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE run_id = ?", id.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	monitoring.Diagf("store: deleted run %s", id)
	return nil
}
