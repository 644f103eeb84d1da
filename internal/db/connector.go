// Package db opens PostgreSQL connection pools for the result store, with
// password or cloud IAM token authentication.
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/sqlscan/internal/logging"
	"github.com/vvka-141/sqlscan/internal/retry"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

// Connection pool configuration constants
const (
	// A store only writes one batch per scan.
	DefaultMaxConns = 4
	DefaultMinConns = 0

	DefaultMaxConnIdleTime = 5 * time.Minute

	// tokenExpiryWarning triggers a warning when a fresh token is about to expire.
	tokenExpiryWarning = 5 * time.Minute
)

func configurePool(poolConfig *pgxpool.Config, logger sqlscan.Logger) {
	poolConfig.MaxConns = DefaultMaxConns
	poolConfig.MinConns = DefaultMinConns
	poolConfig.MaxConnIdleTime = DefaultMaxConnIdleTime
	poolConfig.ConnConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Verbose("postgres: %s", notice.Message)
	}
}

func newRetryExecutor(logger sqlscan.Logger) *retry.Executor {
	strategy := retry.NewExponentialBackoff(sqlscan.DefaultRetryMaxAttempts,
		retry.WithInitialDelay(sqlscan.DefaultRetryInitialDelay),
		retry.WithMaxDelay(sqlscan.DefaultRetryMaxDelay),
	)
	return retry.NewExecutor(retry.NewStoreErrorClassifier(), strategy).
		WithOnRetry(func(attempt int, err error, delay time.Duration) {
			logger.Verbose("Connection attempt %d failed (%v), retrying in %v", attempt+1, err, delay)
		})
}

// StandardConnector connects with the credentials embedded in the DSN and
// retries transient failures.
type StandardConnector struct {
	dsn           string
	logger        sqlscan.Logger
	retryExecutor *retry.Executor
}

func NewStandardConnector(dsn string, logger sqlscan.Logger) *StandardConnector {
	logger = logging.OrNull(logger)
	return &StandardConnector{dsn: dsn, logger: logger, retryExecutor: newRetryExecutor(logger)}
}

func (c *StandardConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(c.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %v: %w", err, sqlscan.ErrInvalidConfig)
	}
	configurePool(poolConfig, c.logger)
	return openPool(ctx, c.retryExecutor, poolConfig)
}

func openPool(ctx context.Context, executor *retry.Executor, poolConfig *pgxpool.Config) (*pgxpool.Pool, error) {
	cc := poolConfig.ConnConfig
	return retry.Value(ctx, executor, func(ctx context.Context) (*pgxpool.Pool, error) {
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, wrapConnectionError(err, cc.Host, cc.Port, cc.Database)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, wrapConnectionError(err, cc.Host, cc.Port, cc.Database)
		}
		return pool, nil
	})
}

// NewConnector creates the Connector matching cfg.AuthMethod.
func NewConnector(cfg sqlscan.StoreConfig, logger sqlscan.Logger) (sqlscan.Connector, error) {
	logger = logging.OrNull(logger)

	switch cfg.AuthMethod {
	case sqlscan.AuthMethodStandard:
		return NewStandardConnector(cfg.DSN, logger), nil
	case sqlscan.AuthMethodAWSIAM:
		return newAWSConnector(cfg, logger)
	case sqlscan.AuthMethodGoogleIAM:
		return newGoogleConnector(cfg, logger)
	case sqlscan.AuthMethodAzureEntraID:
		return newAzureConnector(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", cfg.AuthMethod, sqlscan.ErrUnsupportedAuthMethod)
	}
}

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
// The original error stays in the chain so the retry classifier can inspect it.
func wrapConnectionError(err error, host string, port uint16, database string) error {
	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		return fmt.Errorf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port in --store

Original error: %w`, addr, host, port, err)

	case strings.Contains(errStr, "password authentication failed"):
		return fmt.Errorf(`password authentication failed for database "%s"

Possible causes:
  - Wrong password in the DSN or $SQLSCAN_DATABASE_URL
  - Expired IAM token (check --store-auth)

Original error: %w`, database, err)

	case strings.Contains(errStr, "does not exist"):
		return fmt.Errorf(`database "%s" does not exist

To create it:
  createdb %s

Original error: %w`, database, database, err)

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		return fmt.Errorf(`connection timed out to %s

Original error: %w`, addr, err)

	default:
		return fmt.Errorf("failed to connect to result store: %w", err)
	}
}
