package history

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating when needed) the history database.
// Use ":memory:" for an in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, errors.WrapError(err, errors.CategoryHistory, "could not create history directory").
				WithPath(dbPath).Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryHistory, "could not open history database").
			WithPath(dbPath).Build()
	}
	// A second connection to ":memory:" would see a different database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, errors.WrapError(err, errors.CategoryHistory, "failed to initialize history schema").
			WithPath(dbPath).Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		build_id TEXT PRIMARY KEY,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		documents INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		fingerprint TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS warnings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		source TEXT NOT NULL,
		target TEXT NOT NULL,
		line INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_warnings_build ON warnings(build_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores the run and its warnings in one transaction.
func (s *SQLiteStore) Record(ctx context.Context, run Run, warnings []Warning) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (build_id, started_at, finished_at, outcome, documents, pages, warnings, fingerprint, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.BuildID, run.StartedAt.UnixMilli(), run.FinishedAt.UnixMilli(), run.Outcome,
		run.Documents, run.Pages, run.Warnings, run.Fingerprint, run.Error,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	for _, w := range warnings {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO warnings (build_id, source, target, line) VALUES (?, ?, ?, ?)",
			run.BuildID, w.Source, w.Target, w.Line,
		); err != nil {
			return fmt.Errorf("insert warning: %w", err)
		}
	}
	return tx.Commit()
}

const runColumns = "build_id, started_at, finished_at, outcome, documents, pages, warnings, fingerprint, error"

// Recent returns up to limit runs, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Get returns the run and its warnings in insertion order.
func (s *SQLiteStore) Get(ctx context.Context, buildID string) (Run, []Warning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := scanRun(s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE build_id = ?", buildID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return Run{}, nil, ErrRunNotFound
	}
	if err != nil {
		return Run{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT source, target, line FROM warnings WHERE build_id = ? ORDER BY id", buildID)
	if err != nil {
		return Run{}, nil, fmt.Errorf("query warnings: %w", err)
	}
	defer rows.Close()

	var warnings []Warning
	for rows.Next() {
		var w Warning
		if err := rows.Scan(&w.Source, &w.Target, &w.Line); err != nil {
			return Run{}, nil, fmt.Errorf("scan warning: %w", err)
		}
		warnings = append(warnings, w)
	}
	if err := rows.Err(); err != nil {
		return Run{}, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return run, warnings, nil
}

// Prune deletes all but the newest keep runs together with their warnings.
func (s *SQLiteStore) Prune(ctx context.Context, keep int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const stale = "SELECT build_id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT -1 OFFSET ?"
	if _, err := tx.ExecContext(ctx, "DELETE FROM warnings WHERE build_id IN ("+stale+")", keep); err != nil {
		return 0, fmt.Errorf("prune warnings: %w", err)
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE build_id IN ("+stale+")", keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, tx.Commit()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run               Run
		started, finished int64
	)
	err := row.Scan(&run.BuildID, &started, &finished, &run.Outcome,
		&run.Documents, &run.Pages, &run.Warnings, &run.Fingerprint, &run.Error)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = time.UnixMilli(started)
	run.FinishedAt = time.UnixMilli(finished)
	return run, nil
}
