// Package persistence stores simulation runs in SQLite: one metadata row per
// run, per-event status summaries, and optional per-agent logs.
package persistence

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/contagion/internal/model"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		seed INTEGER NOT NULL,
		max_days INTEGER NOT NULL,
		population INTEGER NOT NULL,
		locations INTEGER NOT NULL,
		statuses TEXT NOT NULL,
		events_json TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS summaries (
		run_id TEXT NOT NULL REFERENCES runs(id),
		day INTEGER NOT NULL,
		event TEXT NOT NULL,
		counts_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS folk_log (
		run_id TEXT NOT NULL REFERENCES runs(id),
		day INTEGER NOT NULL,
		event TEXT NOT NULL,
		folk_id INTEGER NOT NULL,
		status TEXT NOT NULL,
		location INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_summaries_run_day ON summaries(run_id, day);
	CREATE INDEX IF NOT EXISTS idx_folk_log_run_day ON folk_log(run_id, day);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RunMeta describes one run for the runs table.
type RunMeta struct {
	Model      string
	Seed       int64
	MaxDays    int
	Population int
	Locations  int
	Statuses   []string
	Events     []string
}

// RunRecorder implements sim.Recorder against one runs row.
type RunRecorder struct {
	db    *DB
	runID string
}

// NewRun inserts a runs row and returns a recorder bound to it.
func (db *DB) NewRun(meta RunMeta) (*RunRecorder, error) {
	events, err := json.Marshal(meta.Events)
	if err != nil {
		return nil, fmt.Errorf("marshal events: %w", err)
	}
	id := uuid.NewString()
	_, err = db.conn.Exec(
		`INSERT INTO runs (id, model, seed, max_days, population, locations, statuses, events_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, meta.Model, meta.Seed, meta.MaxDays, meta.Population, meta.Locations,
		strings.Join(meta.Statuses, ","), string(events),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &RunRecorder{db: db, runID: id}, nil
}

// RunID returns the UUID of the run being recorded.
func (r *RunRecorder) RunID() string {
	return r.runID
}

// Summary records one per-status count row.
func (r *RunRecorder) Summary(day int, event string, ledger model.Ledger) error {
	counts, err := json.Marshal(ledger)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	_, err = r.db.conn.Exec(
		`INSERT INTO summaries (run_id, day, event, counts_json) VALUES (?, ?, ?, ?)`,
		r.runID, day, event, string(counts),
	)
	return err
}

// FolkRow records one agent's state after an event.
func (r *RunRecorder) FolkRow(day int, event string, f *model.Folk) error {
	_, err := r.db.conn.Exec(
		`INSERT INTO folk_log (run_id, day, event, folk_id, status, location) VALUES (?, ?, ?, ?, ?, ?)`,
		r.runID, day, event, f.ID, string(f.Status), f.Loc,
	)
	return err
}

// SummaryRow is one decoded summaries row.
type SummaryRow struct {
	Day    int
	Event  string
	Counts model.Ledger
}

// Summaries loads a run's summary rows in insertion order.
func (db *DB) Summaries(runID string) ([]SummaryRow, error) {
	rows, err := db.conn.Query(
		`SELECT day, event, counts_json FROM summaries WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SummaryRow
	for rows.Next() {
		var row SummaryRow
		var counts string
		if err := rows.Scan(&row.Day, &row.Event, &counts); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(counts), &row.Counts); err != nil {
			return nil, fmt.Errorf("decode counts for day %d: %w", row.Day, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// FolkCount returns the number of folk_log rows for a run.
func (db *DB) FolkCount(runID string) (int, error) {
	var n int
	err := db.conn.Get(&n, `SELECT COUNT(*) FROM folk_log WHERE run_id = ?`, runID)
	return n, err
}
