package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/vvka-141/sqlscan/internal/retry"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

var sqliteSchema = []string{
	`PRAGMA foreign_keys = ON`,
	`PRAGMA busy_timeout = 5000`,
	`CREATE TABLE IF NOT EXISTS scan_runs (
		run_id           TEXT PRIMARY KEY,
		source_path      TEXT NOT NULL,
		started_at       TEXT NOT NULL,
		duration_ms      INTEGER NOT NULL,
		files_discovered INTEGER NOT NULL,
		files_scanned    INTEGER NOT NULL,
		files_skipped    INTEGER NOT NULL,
		candidates       INTEGER NOT NULL,
		labels           TEXT NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS sql_candidates (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id      TEXT NOT NULL REFERENCES scan_runs(run_id) ON DELETE CASCADE,
		file_path   TEXT NOT NULL,
		checksum    TEXT NOT NULL,
		start_line  INTEGER NOT NULL,
		end_line    INTEGER NOT NULL,
		origin      TEXT NOT NULL,
		disposition TEXT NOT NULL,
		statement   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sql_candidates_run_idx ON sql_candidates (run_id)`,
}

const (
	insertRunSQLite = `INSERT INTO scan_runs
		(run_id, source_path, started_at, duration_ms, files_discovered, files_scanned, files_skipped, candidates, labels)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	insertCandidateSQLite = `INSERT INTO sql_candidates
		(run_id, file_path, checksum, start_line, end_line, origin, disposition, statement)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
)

// SQLiteStore writes reports to a local SQLite file.
type SQLiteStore struct {
	db       *sql.DB
	executor *retry.Executor
	logger   sqlscan.Logger
}

func openSQLite(ctx context.Context, source string, logger sqlscan.Logger) (*SQLiteStore, error) {
	if source == "" {
		return nil, fmt.Errorf("sqlite store needs a file path (sqlite://scan.db): %w", sqlscan.ErrInvalidConfig)
	}

	db, err := sql.Open("sqlite", source)
	if err != nil {
		return nil, storeError("open sqlite store", err)
	}
	// pragmas are per connection
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, executor: newExecutor(), logger: logger}
	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, storeError("create store schema", err)
		}
	}
	logger.Verbose("Result store ready (sqlite: %s)", source)
	return s, nil
}

// Save writes the run and its candidates in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, report *sqlscan.ScanReport) error {
	run, rows, err := flatten(report)
	if err != nil {
		return storeError("encode scan run", err)
	}

	err = s.executor.Execute(ctx, func(ctx context.Context) error {
		return s.insert(ctx, report, run, rows)
	})
	if err != nil {
		return storeError("save scan run "+run.runID, err)
	}

	s.logger.Verbose("Stored run %s with %d candidates", run.runID, len(rows))
	return nil
}

func (s *SQLiteStore) insert(ctx context.Context, report *sqlscan.ScanReport, run runRow, rows []candidateRow) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, insertRunSQLite, run.runID, run.sourcePath,
		report.StartedAt.UTC().Format(time.RFC3339Nano), run.durationMillis,
		run.filesDiscovered, run.filesScanned, run.filesSkipped, run.candidates, string(run.labels)); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, insertCandidateSQLite)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range rows {
		if _, err = stmt.ExecContext(ctx, run.runID, r.filePath, r.checksum, r.startLine, r.endLine,
			r.origin, r.disposition, r.statement); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
