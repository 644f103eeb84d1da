package testinfra

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EnvTestDatabaseURL points tests at an existing server instead of a container.
const EnvTestDatabaseURL = "SQLSCAN_TEST_DATABASE_URL"

var (
	containerOnce sync.Once
	containerConn string
	containerErr  error
)

func sharedContainer() (string, error) {
	containerOnce.Do(func() {
		ctr, err := StartPostgres(context.Background())
		if err != nil {
			containerErr = err
			return
		}
		containerConn = ctr.ConnString
	})
	return containerConn, containerErr
}

// RequirePostgres returns a connection string for a fresh, empty database.
// Priority: SQLSCAN_TEST_DATABASE_URL > auto-started container > skip.
// The database is dropped when the test completes.
func RequirePostgres(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	admin := os.Getenv(EnvTestDatabaseURL)
	if admin == "" {
		var err error
		admin, err = sharedContainer()
		if err != nil {
			t.Skipf("%s not set and Docker unavailable: %v", EnvTestDatabaseURL, err)
		}
	}

	name := "sqlscan_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, admin)
	if err != nil {
		t.Fatalf("Failed to connect for test DB creation: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}
	t.Cleanup(func() { dropDatabase(t, admin, name) })

	target, err := withDatabase(admin, name)
	if err != nil {
		t.Fatalf("Failed to build connection string: %v", err)
	}
	return target
}

func dropDatabase(t *testing.T, admin, name string) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, admin)
	if err != nil {
		t.Logf("Warning: Failed to connect for cleanup: %v", err)
		return
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, "DROP DATABASE IF EXISTS "+pgx.Identifier{name}.Sanitize()+" WITH (FORCE)"); err != nil {
		t.Logf("Warning: Failed to drop database %s: %v", name, err)
	}
}

func withDatabase(connString, name string) (string, error) {
	u, err := url.Parse(connString)
	if err != nil {
		return "", err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("expected a postgres:// URL, got %q", u.Scheme)
	}
	u.Path = "/" + name
	return u.String(), nil
}
