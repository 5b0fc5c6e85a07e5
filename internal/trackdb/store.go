// Package trackdb persists tracking runs to SQLite so sweeps can be
// compared and re-analysed after the fact. One row in `runs` describes a
// single Track invocation; `track_observations` holds every track's ordered
// (signal, control) observations for that run.
package trackdb

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/peaktrace/internal/tracking"
)

// RunMeta describes one tracking run.
type RunMeta struct {
	RunID            string
	CreatedUnixNanos int64
	Source           string // origin of the field, e.g. input filename
	SignalAxis       int
	FindMaxima       bool
	FollowTrajectory bool
	Assignment       string
	TrackCount       int
}

// Store wraps the SQLite handle used for run persistence.
type Store struct {
	*sql.DB
}

// Open opens (creating if needed) the run database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open run database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			created_unix_nanos INTEGER NOT NULL,
			source TEXT,
			signal_axis INTEGER NOT NULL,
			find_maxima INTEGER NOT NULL,
			follow_trajectory INTEGER NOT NULL,
			assignment TEXT NOT NULL,
			track_count INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS track_observations (
			run_id TEXT NOT NULL,
			track_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			signal_value DOUBLE NOT NULL,
			control_value DOUBLE NOT NULL,
			PRIMARY KEY (run_id, track_id, seq),
			FOREIGN KEY (run_id) REFERENCES runs(run_id)
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create run schema: %w", err)
	}

	return &Store{db}, nil
}

// SaveRun inserts a run and all its track observations in one transaction
// and returns the run id. A fresh UUID is minted when meta.RunID is empty.
func (s *Store) SaveRun(meta RunMeta, tracks map[int][]tracking.Observation) (string, error) {
	if meta.RunID == "" {
		meta.RunID = uuid.NewString()
	}
	if meta.CreatedUnixNanos == 0 {
		meta.CreatedUnixNanos = time.Now().UnixNano()
	}
	meta.TrackCount = len(tracks)

	tx, err := s.Begin()
	if err != nil {
		return "", fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (
			run_id, created_unix_nanos, source,
			signal_axis, find_maxima, follow_trajectory, assignment, track_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.RunID,
		meta.CreatedUnixNanos,
		meta.Source,
		meta.SignalAxis,
		meta.FindMaxima,
		meta.FollowTrajectory,
		meta.Assignment,
		meta.TrackCount,
	)
	if err != nil {
		return "", fmt.Errorf("insert run %s: %w", meta.RunID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO track_observations (run_id, track_id, seq, signal_value, control_value)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare observation insert: %w", err)
	}
	defer stmt.Close()

	ids := make([]int, 0, len(tracks))
	for id := range tracks {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		for seq, obs := range tracks[id] {
			if _, err := stmt.Exec(meta.RunID, id, seq, obs.Signal, obs.Control); err != nil {
				return "", fmt.Errorf("insert observation (track %d, seq %d): %w", id, seq, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run %s: %w", meta.RunID, err)
	}
	return meta.RunID, nil
}

// GetRun returns the metadata for one run.
func (s *Store) GetRun(runID string) (*RunMeta, error) {
	row := s.QueryRow(`
		SELECT run_id, created_unix_nanos, source,
		       signal_axis, find_maxima, follow_trajectory, assignment, track_count
		FROM runs WHERE run_id = ?`, runID)

	var meta RunMeta
	err := row.Scan(
		&meta.RunID,
		&meta.CreatedUnixNanos,
		&meta.Source,
		&meta.SignalAxis,
		&meta.FindMaxima,
		&meta.FollowTrajectory,
		&meta.Assignment,
		&meta.TrackCount,
	)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return &meta, nil
}

// ListRuns returns run metadata in reverse chronological order, newest
// first, up to limit (or all runs when limit <= 0).
func (s *Store) ListRuns(limit int) ([]RunMeta, error) {
	query := `
		SELECT run_id, created_unix_nanos, source,
		       signal_axis, find_maxima, follow_trajectory, assignment, track_count
		FROM runs ORDER BY created_unix_nanos DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunMeta
	for rows.Next() {
		var meta RunMeta
		err := rows.Scan(
			&meta.RunID,
			&meta.CreatedUnixNanos,
			&meta.Source,
			&meta.SignalAxis,
			&meta.FindMaxima,
			&meta.FollowTrajectory,
			&meta.Assignment,
			&meta.TrackCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

// GetTracks reconstructs every track of a run, keyed by track id with
// observations in traversal order.
func (s *Store) GetTracks(runID string) (map[int][]tracking.Observation, error) {
	rows, err := s.Query(`
		SELECT track_id, signal_value, control_value
		FROM track_observations
		WHERE run_id = ?
		ORDER BY track_id, seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("get tracks for run %s: %w", runID, err)
	}
	defer rows.Close()

	tracks := make(map[int][]tracking.Observation)
	for rows.Next() {
		var id int
		var obs tracking.Observation
		if err := rows.Scan(&id, &obs.Signal, &obs.Control); err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}
		tracks[id] = append(tracks[id], obs)
	}
	return tracks, rows.Err()
}

// GetTrack returns one track's observations in traversal order.
func (s *Store) GetTrack(runID string, trackID int) ([]tracking.Observation, error) {
	rows, err := s.Query(`
		SELECT signal_value, control_value
		FROM track_observations
		WHERE run_id = ? AND track_id = ?
		ORDER BY seq`, runID, trackID)
	if err != nil {
		return nil, fmt.Errorf("get track %d for run %s: %w", trackID, runID, err)
	}
	defer rows.Close()

	var obs []tracking.Observation
	for rows.Next() {
		var o tracking.Observation
		if err := rows.Scan(&o.Signal, &o.Control); err != nil {
			return nil, fmt.Errorf("scan observation row: %w", err)
		}
		obs = append(obs, o)
	}
	return obs, rows.Err()
}
