// Package ledger persists one row per pipeline invocation in a SQLite
// database, so corpus curation runs stay auditable across retrain
// cycles: which command ran, over what, with what counts and outcome.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Run is one recorded pipeline invocation.
type Run struct {
	ID         string    `json:"id"`
	Command    string    `json:"command"`
	Input      string    `json:"input,omitempty"`
	Outcome    string    `json:"outcome"`
	Summary    any       `json:"summary,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Ledger wraps the SQLite handle.
type Ledger struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the ledger database and runs migrations.
func Open(path string) (*Ledger, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	// Single-writer batch tool; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db, path: path}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// Close releases the database handle.
func (l *Ledger) Close() error { return l.db.Close() }

func (l *Ledger) migrate() error {
	ddl := `
	PRAGMA journal_mode = WAL;
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		command     TEXT NOT NULL,
		input       TEXT NOT NULL DEFAULT '',
		outcome     TEXT NOT NULL,
		summary     TEXT NOT NULL DEFAULT '{}',
		started_at  TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	`
	if _, err := l.db.Exec(ddl); err != nil {
		return fmt.Errorf("migrating ledger schema: %w", err)
	}
	return nil
}

// Record inserts a run. An empty ID gets a fresh UUID.
func (l *Ledger) Record(ctx context.Context, run Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	summary, err := json.Marshal(run.Summary)
	if err != nil {
		return "", fmt.Errorf("encoding run summary: %w", err)
	}
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO runs (id, command, input, outcome, summary, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Command, run.Input, run.Outcome, string(summary),
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("recording run: %w", err)
	}
	return run.ID, nil
}

// List returns the most recent runs, newest first.
func (l *Ledger) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, command, input, outcome, summary, started_at, finished_at
		FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var summary, started, finished string
		if err := rows.Scan(&r.ID, &r.Command, &r.Input, &r.Outcome, &summary, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		var parsed any
		if err := json.Unmarshal([]byte(summary), &parsed); err == nil {
			r.Summary = parsed
		}
		if t, err := time.Parse(time.RFC3339Nano, started); err == nil {
			r.StartedAt = t
		}
		if t, err := time.Parse(time.RFC3339Nano, finished); err == nil {
			r.FinishedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
