// Package storage provides SQLite-based persistence for sequence run statistics.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store manages the SQLite database connection for run statistics.
type Store struct {
	db *sql.DB
}

// Run is one recorded execution of a sequence.
type Run struct {
	ID        int64
	Sequence  string
	Policy    string
	Source    string // source resolution, e.g. "320x240@60"
	Fps       int
	Updates   int64
	Renders   int64
	Duration  time.Duration
	Failed    bool
	Error     string
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			sequence_id TEXT NOT NULL,
			policy TEXT NOT NULL,
			source TEXT NOT NULL DEFAULT '',
			fps INTEGER NOT NULL DEFAULT 0,
			updates INTEGER NOT NULL DEFAULT 0,
			renders INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_sequence ON runs(sequence_id);
		CREATE INDEX IF NOT EXISTS idx_runs_fps ON runs(sequence_id, fps DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun records a sequence run.
// Returns the ID of the inserted record.
func (s *Store) SaveRun(run Run) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO runs (sequence_id, policy, source, fps, updates, renders, duration_ms, failed, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.Sequence, run.Policy, run.Source, run.Fps, run.Updates, run.Renders,
		run.Duration.Milliseconds(), run.Failed, run.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// RecentRuns retrieves the most recent runs, newest first.
// An empty sequenceID returns runs of every sequence.
func (s *Store) RecentRuns(sequenceID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, sequence_id, policy, source, fps, updates, renders, duration_ms, failed, error, created_at
		 FROM runs
		 WHERE ? = '' OR sequence_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		sequenceID, sequenceID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r          Run
			durationMs int64
			createdAt  any
		)
		if err := rows.Scan(&r.ID, &r.Sequence, &r.Policy, &r.Source, &r.Fps, &r.Updates, &r.Renders,
			&durationMs, &r.Failed, &r.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.CreatedAt = parseTime(createdAt)
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// BestFps returns the highest frame rate recorded for a sequence by a run
// that did not fail. Returns 0 if no runs exist.
func (s *Store) BestFps(sequenceID string) (int, error) {
	var fps sql.NullInt64
	err := s.db.QueryRow(
		"SELECT MAX(fps) FROM runs WHERE sequence_id = ? AND failed = 0",
		sequenceID,
	).Scan(&fps)

	if err != nil {
		return 0, fmt.Errorf("storage: cannot query best fps: %w", err)
	}

	if !fps.Valid {
		return 0, nil
	}

	return int(fps.Int64), nil
}

// ClearRuns deletes all runs of the given sequence.
func (s *Store) ClearRuns(sequenceID string) error {
	_, err := s.db.Exec("DELETE FROM runs WHERE sequence_id = ?", sequenceID)
	if err != nil {
		return fmt.Errorf("storage: cannot clear runs: %w", err)
	}
	return nil
}

// SequenceStats contains aggregated statistics for a sequence.
type SequenceStats struct {
	Sequence    string
	Runs        int
	Failures    int
	BestFps     int
	AvgFps      float64
	TotalFrames int64
	LastRun     time.Time
}

// GetSequenceStats retrieves aggregated statistics for a specific sequence.
func (s *Store) GetSequenceStats(sequenceID string) (*SequenceStats, error) {
	stats := &SequenceStats{Sequence: sequenceID}

	var lastRun any
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(failed), 0), COALESCE(MAX(fps), 0), COALESCE(AVG(fps), 0),
		        COALESCE(SUM(renders), 0), MAX(created_at)
		 FROM runs WHERE sequence_id = ?`,
		sequenceID,
	).Scan(&stats.Runs, &stats.Failures, &stats.BestFps, &stats.AvgFps, &stats.TotalFrames, &lastRun)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("storage: cannot get sequence stats: %w", err)
	}
	stats.LastRun = parseTime(lastRun)

	return stats, nil
}

// GetAllSequenceStats retrieves statistics for every sequence that has run.
func (s *Store) GetAllSequenceStats() (map[string]*SequenceStats, error) {
	rows, err := s.db.Query(
		`SELECT sequence_id, COUNT(*), SUM(failed), MAX(fps), AVG(fps), SUM(renders), MAX(created_at)
		 FROM runs
		 GROUP BY sequence_id`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get all sequence stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]*SequenceStats)
	for rows.Next() {
		var st SequenceStats
		var lastRun any
		if err := rows.Scan(&st.Sequence, &st.Runs, &st.Failures, &st.BestFps, &st.AvgFps, &st.TotalFrames, &lastRun); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.LastRun = parseTime(lastRun)
		stats[st.Sequence] = &st
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return stats, nil
}

// parseTime handles both time.Time and string datetimes returned by the driver.
func parseTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
