package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists migration progress in SQLite. The link table is what makes
// reruns idempotent: a source ticket with a recorded link is skipped entirely
// on subsequent runs.
type Store struct {
	db   *sql.DB
	path string
}

// Failure is one recorded per-ticket failure.
type Failure struct {
	SourceID int64
	RunID    string
	Stage    string
	Detail   string
	FailedAt time.Time
}

// Link records that a source ticket has been fully replicated.
type Link struct {
	SourceID   int64
	TargetID   int64
	RunID      string
	MigratedAt time.Time
}

// Summary aggregates the store contents for status reporting.
type Summary struct {
	LinkedTickets    int64
	RecordedFailures int64
	LastRunID        string
}

const schema = `
CREATE TABLE IF NOT EXISTS ticket_links (
    source_id INTEGER PRIMARY KEY,
    target_id INTEGER NOT NULL,
    run_id TEXT NOT NULL,
    migrated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS ticket_failures (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_id INTEGER NOT NULL,
    run_id TEXT NOT NULL,
    stage TEXT NOT NULL,
    detail TEXT NOT NULL,
    failed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ticket_failures_run ON ticket_failures(run_id);
`

// Open initializes or connects to the state database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// LinkTicket records that sourceID has been replicated as targetID. Linking
// the same source ticket again overwrites the previous record; that only
// happens when an operator clears a link by hand and reruns.
func (s *Store) LinkTicket(ctx context.Context, sourceID, targetID int64, runID string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ticket_links (source_id, target_id, run_id, migrated_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(source_id) DO UPDATE SET
             target_id = excluded.target_id,
             run_id = excluded.run_id,
             migrated_at = excluded.migrated_at`,
		sourceID, targetID, runID, timestamp)
	if err != nil {
		return fmt.Errorf("link ticket %d: %w", sourceID, err)
	}
	return nil
}

// LookupTicket returns the target id for a source ticket, or ok=false when
// the ticket has not been migrated.
func (s *Store) LookupTicket(ctx context.Context, sourceID int64) (int64, bool, error) {
	var targetID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT target_id FROM ticket_links WHERE source_id = ?`, sourceID).Scan(&targetID)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup ticket %d: %w", sourceID, err)
	}
	return targetID, true, nil
}

// Links returns every recorded link ordered by source id.
func (s *Store) Links(ctx context.Context) ([]Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, target_id, run_id, migrated_at FROM ticket_links ORDER BY source_id`)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var link Link
		var migratedAt string
		if err := rows.Scan(&link.SourceID, &link.TargetID, &link.RunID, &migratedAt); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		link.MigratedAt, _ = time.Parse(time.RFC3339Nano, migratedAt)
		links = append(links, link)
	}
	return links, rows.Err()
}

// RecordFailure appends a failure record for later inspection.
func (s *Store) RecordFailure(ctx context.Context, failure Failure) error {
	failedAt := failure.FailedAt
	if failedAt.IsZero() {
		failedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ticket_failures (source_id, run_id, stage, detail, failed_at)
         VALUES (?, ?, ?, ?, ?)`,
		failure.SourceID, failure.RunID, failure.Stage, failure.Detail,
		failedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record failure for ticket %d: %w", failure.SourceID, err)
	}
	return nil
}

// FailuresForRun returns the failures recorded under one run id, oldest
// first.
func (s *Store) FailuresForRun(ctx context.Context, runID string) ([]Failure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, run_id, stage, detail, failed_at
         FROM ticket_failures WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list failures: %w", err)
	}
	defer rows.Close()

	var failures []Failure
	for rows.Next() {
		var failure Failure
		var failedAt string
		if err := rows.Scan(&failure.SourceID, &failure.RunID, &failure.Stage,
			&failure.Detail, &failedAt); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		failure.FailedAt, _ = time.Parse(time.RFC3339Nano, failedAt)
		failures = append(failures, failure)
	}
	return failures, rows.Err()
}

// Summarize aggregates store contents for the status command.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	var summary Summary
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ticket_links`).Scan(&summary.LinkedTickets); err != nil {
		return Summary{}, fmt.Errorf("count links: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ticket_failures`).Scan(&summary.RecordedFailures); err != nil {
		return Summary{}, fmt.Errorf("count failures: %w", err)
	}
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id FROM ticket_links ORDER BY migrated_at DESC LIMIT 1`).Scan(&summary.LastRunID)
	if err != nil && err != sql.ErrNoRows {
		return Summary{}, fmt.Errorf("latest run: %w", err)
	}
	return summary, nil
}
