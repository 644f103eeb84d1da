// Package retry re-runs result store operations that fail for transient
// reasons: a PostgreSQL server that is still starting, a dropped connection,
// or a SQLite database file locked by a concurrent writer.
//
//	executor := retry.NewExecutor(retry.NewStoreErrorClassifier(), retry.NewExponentialBackoff(3))
//	pool, err := retry.Value(ctx, executor, func(ctx context.Context) (*pgxpool.Pool, error) {
//	    return pgxpool.NewWithConfig(ctx, cfg)
//	})
package retry
