// Package audit keeps a local SQLite ledger of pipeline runs, so an
// investigator can show when a case was analyzed and what the pipeline
// produced. The ledger is append-only.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID          int64     `json:"id"`
	CaseID      string    `json:"case_id"`
	StartedAt   time.Time `json:"started_at"`
	DurationMS  int64     `json:"duration_ms"`
	Windows     int       `json:"windows"`
	FactsRouted int       `json:"facts_routed"`
	Primary     string    `json:"primary,omitempty"`
	AlignmentOK bool      `json:"alignment_ok"`
	Status      string    `json:"status"`
}

// Store is the SQLite-backed run ledger.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed creates) the ledger at path.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit ledger: %w", err)
	}

	// writes are serialized anyway
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("connect audit ledger: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init audit schema: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			case_id      TEXT NOT NULL,
			started_at   TEXT NOT NULL,
			duration_ms  INTEGER NOT NULL,
			windows      INTEGER NOT NULL,
			facts_routed INTEGER NOT NULL,
			primary_art  TEXT NOT NULL DEFAULT '',
			alignment_ok INTEGER NOT NULL DEFAULT 0,
			status       TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_runs_case ON runs(case_id, started_at);
	`)
	return err
}

// Record appends one run to the ledger.
func (s *Store) Record(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (case_id, started_at, duration_ms, windows, facts_routed, primary_art, alignment_ok, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.CaseID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.DurationMS,
		run.Windows,
		run.FactsRouted,
		run.Primary,
		boolToInt(run.AlignmentOK),
		run.Status,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// History returns the most recent runs for a case, newest first.
func (s *Store) History(ctx context.Context, caseID string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, case_id, started_at, duration_ms, windows, facts_routed, primary_art, alignment_ok, status
		FROM runs WHERE case_id = ?
		ORDER BY started_at DESC, id DESC LIMIT ?`,
		caseID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		var ok int
		if err := rows.Scan(&r.ID, &r.CaseID, &started, &r.DurationMS, &r.Windows,
			&r.FactsRouted, &r.Primary, &ok, &r.Status); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.AlignmentOK = ok != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
