package store

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/sqlscan/internal/db"
	"github.com/vvka-141/sqlscan/internal/retry"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS scan_runs (
		run_id           uuid PRIMARY KEY,
		source_path      text NOT NULL,
		started_at       timestamptz NOT NULL,
		duration_ms      bigint NOT NULL,
		files_discovered integer NOT NULL,
		files_scanned    integer NOT NULL,
		files_skipped    integer NOT NULL,
		candidates       integer NOT NULL,
		labels           jsonb NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS sql_candidates (
		id          bigserial PRIMARY KEY,
		run_id      uuid NOT NULL REFERENCES scan_runs(run_id) ON DELETE CASCADE,
		file_path   text NOT NULL,
		checksum    text NOT NULL,
		start_line  integer NOT NULL,
		end_line    integer NOT NULL,
		origin      text NOT NULL,
		disposition text NOT NULL,
		statement   text NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS sql_candidates_run_idx ON sql_candidates (run_id)`,
}

const (
	insertRunPG = `INSERT INTO scan_runs
		(run_id, source_path, started_at, duration_ms, files_discovered, files_scanned, files_skipped, candidates, labels)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	insertCandidatePG = `INSERT INTO sql_candidates
		(run_id, file_path, checksum, start_line, end_line, origin, disposition, statement)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
)

// PostgresStore writes reports to PostgreSQL.
type PostgresStore struct {
	pool     *pgxpool.Pool
	closer   io.Closer
	executor *retry.Executor
	logger   sqlscan.Logger
}

func openPostgres(ctx context.Context, cfg sqlscan.StoreConfig, logger sqlscan.Logger) (*PostgresStore, error) {
	connector, err := db.NewConnector(cfg, logger)
	if err != nil {
		return nil, err
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		return nil, storeError("connect to result store", err)
	}

	s := &PostgresStore{pool: pool, executor: newExecutor(), logger: logger}
	// cloud dialers must be released after the pool
	if closer, ok := connector.(io.Closer); ok {
		s.closer = closer
	}

	if err := s.ensureSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	logger.Verbose("Result store ready (postgres)")
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	for _, ddl := range postgresSchema {
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return storeError("create store schema", err)
		}
	}
	return nil
}

// Save writes the run and its candidates in one transaction.
func (s *PostgresStore) Save(ctx context.Context, report *sqlscan.ScanReport) error {
	run, rows, err := flatten(report)
	if err != nil {
		return storeError("encode scan run", err)
	}

	err = s.executor.Execute(ctx, func(ctx context.Context) error {
		return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			return s.insert(ctx, tx, report, run, rows)
		})
	})
	if err != nil {
		return storeError("save scan run "+run.runID, err)
	}

	s.logger.Verbose("Stored run %s with %d candidates", run.runID, len(rows))
	return nil
}

func (s *PostgresStore) insert(ctx context.Context, tx pgx.Tx, report *sqlscan.ScanReport, run runRow, rows []candidateRow) error {
	batch := &pgx.Batch{}
	batch.Queue(insertRunPG, run.runID, run.sourcePath, report.StartedAt, run.durationMillis,
		run.filesDiscovered, run.filesScanned, run.filesSkipped, run.candidates, run.labels)
	for _, r := range rows {
		batch.Queue(insertCandidatePG, run.runID, r.filePath, r.checksum, r.startLine, r.endLine,
			r.origin, r.disposition, r.statement)
	}

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return err
		}
	}
	return results.Close()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

func newExecutor() *retry.Executor {
	return retry.NewExecutor(retry.NewStoreErrorClassifier(), retry.NewExponentialBackoff(sqlscan.DefaultRetryMaxAttempts))
}
