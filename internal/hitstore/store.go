// Package hitstore keeps export records in a SQLite database next to the
// exported files.
package hitstore

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sha1n/pagesearch/internal/domain"
)

// Filename is the database file name inside an output directory.
const Filename = "results.db"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	input_root TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS hits (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	search TEXT NOT NULL,
	file TEXT NOT NULL,
	line INTEGER NOT NULL,
	text TEXT NOT NULL,
	original TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_hits_run ON hits(run_id);
CREATE INDEX IF NOT EXISTS idx_hits_search ON hits(search);
`

// Store is a SQLite database of export runs and their hits.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveRun stores a run and all of its records in one transaction.
func (s *Store) SaveRun(ctx context.Context, run domain.ExportRun, records []domain.ExportRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, created_at, input_root) VALUES (?, ?, ?)",
		run.ID, run.CreatedAt.UTC().Format(time.RFC3339Nano), run.InputDir,
	); err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO hits (run_id, search, file, line, text, original) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing hit insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if _, err = stmt.ExecContext(ctx, run.ID, r.Search, r.File, r.Line, r.Text, r.Original); err != nil {
			return fmt.Errorf("inserting hit: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Runs returns all stored runs, oldest first.
func (s *Store) Runs(ctx context.Context) ([]domain.ExportRun, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, created_at, input_root FROM runs ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []domain.ExportRun
	for rows.Next() {
		var run domain.ExportRun
		var createdAt string
		if err := rows.Scan(&run.ID, &createdAt, &run.InputDir); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing run time: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Hits returns the records of a run in insertion order.
func (s *Store) Hits(ctx context.Context, runID string) ([]domain.ExportRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT search, file, line, text, original FROM hits WHERE run_id = ? ORDER BY rowid", runID)
	if err != nil {
		return nil, fmt.Errorf("querying hits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []domain.ExportRecord
	for rows.Next() {
		var r domain.ExportRecord
		if err := rows.Scan(&r.Search, &r.File, &r.Line, &r.Text, &r.Original); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Sink writes export records to the results database of the run's output
// directory.
type Sink struct{}

// NewSink creates a SQLite record sink.
func NewSink() *Sink {
	return &Sink{}
}

// Name identifies the sink in error messages.
func (*Sink) Name() string {
	return "sqlite"
}

// WriteRecords stores the run in <output>/results.db.
func (*Sink) WriteRecords(ctx context.Context, run domain.ExportRun, records []domain.ExportRecord) error {
	store, err := Open(filepath.Join(run.OutputDir, Filename))
	if err != nil {
		return err
	}
	if err := store.SaveRun(ctx, run, records); err != nil {
		_ = store.Close()
		return err
	}
	return store.Close()
}
