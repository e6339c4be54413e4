package parity

import (
	"context"
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// archiveSchemaVersion is bumped on schema changes; an archive at another
// version is rejected rather than migrated, since run history is transient
// diagnostics, not a long-term record.
const archiveSchemaVersion = 1

// ErrSchemaMismatch indicates the archive was written by another version.
var ErrSchemaMismatch = errors.New("archive schema version mismatch")

// Archive persists parity run outcomes in SQLite. A file lock enforces a
// single writer, so concurrent tonearm invocations fail fast instead of
// interleaving runs.
type Archive struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// RunSummary is one recorded document run.
type RunSummary struct {
	ID        int64
	Document  string
	Platform  string
	Passed    int
	Failed    int
	Skipped   int
	CreatedAt time.Time
}

// OpenArchive initializes or connects to the archive at path and acquires
// the writer lock.
func OpenArchive(path string) (*Archive, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("archive path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), 0o755); err != nil {
		return nil, fmt.Errorf("ensure archive dir: %w", err)
	}

	lock := flock.New(trimmed + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire archive lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("another tonearm process holds the archive at %s", trimmed)
	}

	db, err := sql.Open("sqlite", trimmed)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open archive db: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	archive := &Archive{db: db, path: trimmed, lock: lock}
	if err := archive.initSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return archive, nil
}

// Close releases the database and the writer lock.
func (a *Archive) Close() error {
	if a == nil {
		return nil
	}
	err := a.db.Close()
	if unlockErr := a.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

// Path returns the on-disk location backing the archive.
func (a *Archive) Path() string { return a.path }

// RecordRun persists one document result with its per-case outcomes.
func (a *Archive) RecordRun(ctx context.Context, result DocumentResult) (int64, error) {
	passed, failed, skipped := result.Counts()
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (document, platform, passed, failed, skipped, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		result.Document, result.Platform, passed, failed, skipped,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	for _, c := range result.Cases {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_cases (run_id, case_name, outcome, diagnostic)
             VALUES (?, ?, ?, ?)`,
			runID, c.Name, string(c.Outcome), nullableString(caseDiagnostic(c)),
		); err != nil {
			return 0, fmt.Errorf("insert case %q: %w", c.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit record tx: %w", err)
	}
	return runID, nil
}

// RecentRuns returns the newest runs, newest first. Limit <= 0 means 20.
func (a *Archive) RecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := a.db.QueryContext(ctx,
		`SELECT id, document, platform, passed, failed, skipped, created_at
         FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		var createdAt string
		if err := rows.Scan(&run.ID, &run.Document, &run.Platform, &run.Passed, &run.Failed, &run.Skipped, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if parsed, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			run.CreatedAt = parsed
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (a *Archive) initSchema(ctx context.Context) error {
	var tableExists int
	err := a.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		if _, err := a.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create archive schema: %w", err)
		}
		return nil
	}

	var version int
	if err := a.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read archive schema version: %w", err)
	}
	if version != archiveSchemaVersion {
		return fmt.Errorf("%w: archive has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, archiveSchemaVersion, a.path)
	}
	return nil
}

func caseDiagnostic(c CaseResult) string {
	if c.Outcome == OutcomeSkip {
		return c.Reason
	}
	var parts []string
	for _, check := range c.Checks {
		if check.Outcome == OutcomeFail {
			parts = append(parts, fmt.Sprintf("%s: %s", check.Description, check.Diagnostic))
		}
	}
	return strings.Join(parts, "; ")
}

func nullableString(value string) driver.Value {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
