package db

import (
	"context"
	"fmt"
	"net"
	"sync"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

// GoogleCloudSQLConnector dials Cloud SQL through the Cloud SQL Go Connector
// with IAM database authentication. User and database come from the DSN; its
// host is ignored.
//
// Close must be called after the returned pool is closed.
type GoogleCloudSQLConnector struct {
	dsn      string
	instance string
	logger   sqlscan.Logger

	mu     sync.Mutex
	dialer *cloudsqlconn.Dialer
}

// NewGoogleCloudSQLConnector creates a connector for the instance connection
// name (project:region:instance).
func NewGoogleCloudSQLConnector(dsn, instance string, logger sqlscan.Logger) *GoogleCloudSQLConnector {
	return &GoogleCloudSQLConnector{dsn: dsn, instance: instance, logger: logger}
}

func newGoogleConnector(cfg sqlscan.StoreConfig, logger sqlscan.Logger) (sqlscan.Connector, error) {
	if cfg.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires store.google_instance (project:region:instance): %w", sqlscan.ErrInvalidConfig)
	}
	return NewGoogleCloudSQLConnector(cfg.DSN, cfg.GoogleInstance, logger), nil
}

func (c *GoogleCloudSQLConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(c.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %v: %w", err, sqlscan.ErrInvalidConfig)
	}
	if poolConfig.ConnConfig.User == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires the database user in the DSN: %w", sqlscan.ErrInvalidConfig)
	}

	dialer, err := cloudsqlconn.NewDialer(ctx, cloudsqlconn.WithIAMAuthN())
	if err != nil {
		return nil, fmt.Errorf("failed to create Cloud SQL dialer: %w", err)
	}

	poolConfig.ConnConfig.DialFunc = func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialer.Dial(ctx, c.instance)
	}
	configurePool(poolConfig, c.logger)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		dialer.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		dialer.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	c.mu.Lock()
	c.dialer = dialer
	c.mu.Unlock()
	return pool, nil
}

// Close releases the Cloud SQL dialer.
func (c *GoogleCloudSQLConnector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.dialer != nil {
		c.dialer.Close()
		c.dialer = nil
	}
	return nil
}
