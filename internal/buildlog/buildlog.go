// Package buildlog persists an append-only record of builds and their
// resolver reports in SQLite.
package buildlog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/contentpress/internal/resolver"
)

// BuildRecord summarizes one completed build.
type BuildRecord struct {
	BuildID   string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   string // success|warning|failed
	Documents int
	Dangling  int
}

// Store is a SQLite-backed build record store.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates a new build record store.
// Use ":memory:" for an in-memory database, or a file path for persistence.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL UNIQUE,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		documents INTEGER NOT NULL,
		dangling INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS report_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		source_id TEXT NOT NULL,
		target_slug TEXT NOT NULL,
		status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);
	CREATE INDEX IF NOT EXISTS idx_entries_build ON report_entries(build_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordBuild appends a build record.
func (s *Store) RecordBuild(ctx context.Context, rec BuildRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (build_id, started_at, duration_ms, outcome, documents, dangling) VALUES (?, ?, ?, ?, ?, ?)",
		rec.BuildID, rec.StartedAt.Unix(), rec.Duration.Milliseconds(), rec.Outcome, rec.Documents, rec.Dangling,
	)
	if err != nil {
		return fmt.Errorf("insert build record: %w", err)
	}
	return nil
}

// RecordReport appends every entry of a resolver report for a build.
func (s *Store) RecordReport(ctx context.Context, buildID string, report *resolver.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO report_entries (build_id, source_id, target_slug, status) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, entry := range report.Entries {
		if _, err := stmt.ExecContext(ctx, buildID, entry.SourceID, entry.TargetSlug, string(entry.Status)); err != nil {
			return fmt.Errorf("insert report entry: %w", err)
		}
	}

	return tx.Commit()
}

// LastBuild returns the most recent build record, or nil when no build has
// been recorded yet.
func (s *Store) LastBuild(ctx context.Context) (*BuildRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT build_id, started_at, duration_ms, outcome, documents, dangling FROM builds ORDER BY started_at DESC, id DESC LIMIT 1")

	var rec BuildRecord
	var startedAt int64
	var durationMS int64
	err := row.Scan(&rec.BuildID, &startedAt, &durationMS, &rec.Outcome, &rec.Documents, &rec.Dangling)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan build record: %w", err)
	}
	rec.StartedAt = time.Unix(startedAt, 0)
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	return &rec, nil
}

// ReportFor returns the report entries recorded for a build.
func (s *Store) ReportFor(ctx context.Context, buildID string) ([]resolver.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT source_id, target_slug, status FROM report_entries WHERE build_id = ? ORDER BY source_id, target_slug", buildID)
	if err != nil {
		return nil, fmt.Errorf("query report entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []resolver.Entry
	for rows.Next() {
		var entry resolver.Entry
		var status string
		if err := rows.Scan(&entry.SourceID, &entry.TargetSlug, &status); err != nil {
			return nil, fmt.Errorf("scan report entry: %w", err)
		}
		entry.Status = resolver.Status(status)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
