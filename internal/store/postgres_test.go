package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sqlscan/internal/testinfra"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

func TestPostgresStore_Save(t *testing.T) {
	dsn := testinfra.RequirePostgres(t)
	ctx := context.Background()

	s, err := Open(ctx, sqlscan.StoreConfig{DSN: dsn}, nil)
	require.NoError(t, err)
	defer s.Close()

	report := sampleReport()
	require.NoError(t, s.Save(ctx, report))

	pool := s.(*PostgresStore).pool

	var sourcePath string
	var team string
	var candidates int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT source_path, labels->>'team', candidates FROM scan_runs WHERE run_id = $1`,
		report.RunID.String()).Scan(&sourcePath, &team, &candidates))
	assert.Equal(t, "/repo", sourcePath)
	assert.Equal(t, "payments", team)
	assert.Equal(t, 2, candidates)

	var rows int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM sql_candidates WHERE run_id = $1`,
		report.RunID.String()).Scan(&rows))
	assert.Equal(t, 2, rows)

	// duplicate run id rolls back the whole batch
	err = s.Save(ctx, report)
	require.ErrorIs(t, err, sqlscan.ErrStoreFailed)
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM sql_candidates`).Scan(&rows))
	assert.Equal(t, 2, rows)
}

func TestPostgresStore_SchemaIsIdempotent(t *testing.T) {
	dsn := testinfra.RequirePostgres(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		s, err := Open(ctx, sqlscan.StoreConfig{DSN: dsn}, nil)
		require.NoError(t, err)
		next := sampleReport()
		next.RunID = uuid.New()
		require.NoError(t, s.Save(ctx, next))
		require.NoError(t, s.Close())
	}
}
