// Package store persists scan reports: one scan_runs row per run and one
// sql_candidates row per extracted statement.
//
// PostgreSQL (postgres:// DSNs) is written with a pgx batch inside a
// transaction; SQLite (sqlite://path or file: DSNs) with a prepared statement
// inside a database/sql transaction. Both create their schema idempotently on
// open.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vvka-141/sqlscan/internal/logging"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

// Backend identifies the database behind a DSN.
type Backend int

const (
	BackendUnknown Backend = iota
	BackendPostgres
	BackendSQLite
)

func (b Backend) String() string {
	switch b {
	case BackendPostgres:
		return "postgres"
	case BackendSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// Detect returns the backend for dsn and the driver-level data source.
func Detect(dsn string) (Backend, string) {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return BackendPostgres, dsn
	case strings.HasPrefix(lower, "sqlite://"):
		return BackendSQLite, dsn[len("sqlite://"):]
	case strings.HasPrefix(lower, "file:"):
		return BackendSQLite, dsn
	default:
		return BackendUnknown, dsn
	}
}

// Open connects to the store named by cfg.DSN and ensures its schema exists.
func Open(ctx context.Context, cfg sqlscan.StoreConfig, logger sqlscan.Logger) (sqlscan.ResultStore, error) {
	logger = logging.OrNull(logger)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backend, source := Detect(cfg.DSN)
	switch backend {
	case BackendPostgres:
		s, err := openPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		if cfg.AuthMethod != sqlscan.AuthMethodStandard {
			return nil, fmt.Errorf("auth method %s applies to PostgreSQL stores only: %w", cfg.AuthMethod, sqlscan.ErrInvalidConfig)
		}
		s, err := openSQLite(ctx, source, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store DSN %q (expected postgres://, sqlite:// or file:): %w", redact(cfg.DSN), sqlscan.ErrInvalidConfig)
	}
}

// runRow and candidateRow are the flattened form shared by both backends.
type runRow struct {
	runID           string
	sourcePath      string
	durationMillis  int64
	filesDiscovered int
	filesScanned    int
	filesSkipped    int
	candidates      int
	labels          []byte
}

type candidateRow struct {
	filePath    string
	checksum    string
	startLine   int
	endLine     int
	origin      string
	disposition string
	statement   string
}

func flatten(report *sqlscan.ScanReport) (runRow, []candidateRow, error) {
	labels := report.Labels
	if labels == nil {
		labels = map[string]string{}
	}
	labelJSON, err := json.Marshal(labels)
	if err != nil {
		return runRow{}, nil, err
	}

	run := runRow{
		runID:           report.RunID.String(),
		sourcePath:      report.SourcePath,
		durationMillis:  report.Duration.Milliseconds(),
		filesDiscovered: report.Stats.FilesDiscovered,
		filesScanned:    report.Stats.FilesScanned,
		filesSkipped:    report.Stats.FilesSkipped,
		candidates:      report.Stats.Candidates,
		labels:          labelJSON,
	}

	var rows []candidateRow
	for _, f := range report.Files {
		path := f.RelativePath
		if path == "" {
			path = f.Path
		}
		for _, c := range f.Candidates {
			rows = append(rows, candidateRow{
				filePath:    path,
				checksum:    f.Checksum,
				startLine:   c.StartLine,
				endLine:     c.EndLine,
				origin:      c.Origin.String(),
				disposition: c.Disposition.String(),
				statement:   c.Text,
			})
		}
	}
	return run, rows, nil
}

func storeError(action string, err error) error {
	return fmt.Errorf("%s: %w: %w", action, sqlscan.ErrStoreFailed, err)
}

// redact hides the password of URL-style DSNs in messages.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPassword := strings.Cut(creds, ":")
	if !hasPassword {
		return dsn
	}
	return scheme + "://" + user + ":***@" + host
}
