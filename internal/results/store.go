package results

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/perfkit/schedtune-validator/internal/platform"
	"github.com/perfkit/schedtune-validator/internal/sweep"
)

const schema = `
CREATE TABLE IF NOT EXISTS sweep_runs (
	run_id         TEXT PRIMARY KEY,
	created_at     TEXT NOT NULL,
	overall_passed INTEGER NOT NULL,
	failed_labels  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS item_results (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id          TEXT NOT NULL,
	label           TEXT NOT NULL,
	boost           INTEGER NOT NULL,
	prefer_idle     INTEGER NOT NULL,
	target_freq_khz INTEGER NOT NULL,
	avg_freq_khz    REAL NOT NULL,
	distance_pct    REAL NOT NULL,
	passed          INTEGER NOT NULL,
	FOREIGN KEY (run_id) REFERENCES sweep_runs(run_id)
);
`

// Store persists sweep verdicts in SQLite so runs can be compared across
// kernels and devices.
type Store struct {
	db *sql.DB
}

// Open opens the database at the given path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRunID returns a fresh sweep run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// SaveSweep stores a completed sweep's labeled verdicts and merged result
// under the given run ID, atomically.
func (s *Store) SaveSweep(runID string, labeled []sweep.LabeledResult, merged sweep.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO sweep_runs (run_id, created_at, overall_passed, failed_labels) VALUES (?, ?, ?, ?)`,
		runID,
		time.Now().UTC().Format(time.RFC3339),
		boolToInt(merged.OverallPassed),
		strings.Join(merged.FailedLabels, ","),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", runID, err)
	}

	for _, entry := range labeled {
		result := entry.Result
		_, err = tx.Exec(
			`INSERT INTO item_results
				(run_id, label, boost, prefer_idle, target_freq_khz, avg_freq_khz, distance_pct, passed)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID,
			entry.Label,
			result.Boost,
			boolToInt(result.PreferIdle),
			uint64(result.TargetFreqKHz),
			result.AvgFreqKHz,
			result.DistancePct,
			boolToInt(result.Passed),
		)
		if err != nil {
			return fmt.Errorf("insert item %s of run %s: %w", entry.Label, runID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", runID, err)
	}
	return nil
}

// Run is one stored sweep run.
type Run struct {
	RunID         string
	CreatedAt     time.Time
	OverallPassed bool
	FailedLabels  []string
	Items         []sweep.LabeledResult
}

// LoadRun retrieves a stored sweep run, items in insertion order.
func (s *Store) LoadRun(runID string) (*Run, error) {
	run := &Run{RunID: runID}

	var createdAt string
	var overallPassed int
	var failedLabels string
	err := s.db.QueryRow(
		`SELECT created_at, overall_passed, failed_labels FROM sweep_runs WHERE run_id = ?`, runID,
	).Scan(&createdAt, &overallPassed, &failedLabels)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	run.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at of run %s: %w", runID, err)
	}
	run.OverallPassed = overallPassed != 0
	if failedLabels != "" {
		run.FailedLabels = strings.Split(failedLabels, ",")
	}

	rows, err := s.db.Query(
		`SELECT label, boost, prefer_idle, target_freq_khz, avg_freq_khz, distance_pct, passed
		 FROM item_results WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("load items of run %s: %w", runID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry sweep.LabeledResult
		var preferIdle, passed int
		var targetFreq uint64
		err := rows.Scan(
			&entry.Label,
			&entry.Result.Boost,
			&preferIdle,
			&targetFreq,
			&entry.Result.AvgFreqKHz,
			&entry.Result.DistancePct,
			&passed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan item of run %s: %w", runID, err)
		}
		entry.Result.PreferIdle = preferIdle != 0
		entry.Result.TargetFreqKHz = platform.KHz(targetFreq)
		entry.Result.Passed = passed != 0
		run.Items = append(run.Items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items of run %s: %w", runID, err)
	}

	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
