package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExponentialBackoff_NextDelay(t *testing.T) {
	b := NewExponentialBackoff(5,
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(time.Second),
		WithJitter(0),
	)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.NextDelay(tt.attempt), "attempt %d", tt.attempt)
	}
	assert.Equal(t, 5, b.MaxAttempts())
}

func TestExponentialBackoff_Jitter(t *testing.T) {
	high := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.1), WithJitterFunc(func() float64 { return 1 }))
	low := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.1), WithJitterFunc(func() float64 { return 0 }))
	mid := NewExponentialBackoff(1, WithInitialDelay(time.Second), WithJitter(0.1), WithJitterFunc(func() float64 { return 0.5 }))

	assert.Equal(t, 1100*time.Millisecond, high.NextDelay(0))
	assert.Equal(t, 900*time.Millisecond, low.NextDelay(0))
	assert.Equal(t, time.Second, mid.NextDelay(0))
}

func TestExponentialBackoff_Multiplier(t *testing.T) {
	b := NewExponentialBackoff(3, WithInitialDelay(10*time.Millisecond), WithMultiplier(3), WithJitter(0))
	assert.Equal(t, 90*time.Millisecond, b.NextDelay(2))
}

func TestStoreErrorClassifier(t *testing.T) {
	c := NewStoreErrorClassifier()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"cannot connect now", &pgconn.PgError{Code: "57P03"}, true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"deadlock", &pgconn.PgError{Code: "40P01"}, true},
		{"syntax error", &pgconn.PgError{Code: "42601"}, false},
		{"auth failure", &pgconn.PgError{Code: "28P01"}, false},
		{"wrapped pg error", fmt.Errorf("save: %w", &pgconn.PgError{Code: "08001"}), true},
		{"connection refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"permission denied", &net.OpError{Op: "dial", Err: syscall.EACCES}, false},
		{"locked message", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"broken pipe message", errors.New("write: broken pipe"), true},
		{"canceled", context.Canceled, false},
		{"plain error", errors.New("no such table: scan_runs"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsTransient(tt.err))
		})
	}
}

type flakyOp struct {
	calls     int
	failUntil int
	err       error
}

func (f *flakyOp) run(context.Context) error {
	f.calls++
	if f.calls < f.failUntil {
		return f.err
	}
	return nil
}

func fastExecutor(attempts int) *Executor {
	return NewExecutor(NewStoreErrorClassifier(), NewExponentialBackoff(attempts, WithInitialDelay(time.Millisecond), WithJitter(0)))
}

func TestExecutor_SuccessFirstAttempt(t *testing.T) {
	op := &flakyOp{failUntil: 1}
	require.NoError(t, fastExecutor(3).Execute(context.Background(), op.run))
	assert.Equal(t, 1, op.calls)
}

func TestExecutor_SuccessAfterRetries(t *testing.T) {
	op := &flakyOp{failUntil: 3, err: &pgconn.PgError{Code: "08006"}}

	var retries []int
	exec := fastExecutor(5).WithOnRetry(func(attempt int, err error, delay time.Duration) {
		retries = append(retries, attempt)
	})

	require.NoError(t, exec.Execute(context.Background(), op.run))
	assert.Equal(t, 3, op.calls)
	assert.Equal(t, []int{0, 1}, retries)
}

func TestExecutor_FatalErrorNoRetry(t *testing.T) {
	fatal := &pgconn.PgError{Code: "42P01"}
	op := &flakyOp{failUntil: 10, err: fatal}

	err := fastExecutor(5).Execute(context.Background(), op.run)
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, op.calls)
}

func TestExecutor_ExhaustsAttempts(t *testing.T) {
	op := &flakyOp{failUntil: 100, err: errors.New("connection refused")}

	err := fastExecutor(2).Execute(context.Background(), op.run)
	require.Error(t, err)
	assert.Equal(t, 3, op.calls, "initial attempt plus two retries")
}

func TestExecutor_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	op := &flakyOp{failUntil: 100, err: errors.New("connection refused")}

	exec := NewExecutor(NewStoreErrorClassifier(), NewExponentialBackoff(-1, WithInitialDelay(time.Hour), WithJitter(0))).
		WithOnRetry(func(int, error, time.Duration) { cancel() })

	err := exec.Execute(ctx, op.run)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, op.calls)
}

func TestValue(t *testing.T) {
	calls := 0
	got, err := Value(context.Background(), fastExecutor(3), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", errors.New("i/o timeout")
		}
		return "pool", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "pool", got)
	assert.Equal(t, 2, calls)
}

func TestNewExecutor_PanicsOnNil(t *testing.T) {
	assert.Panics(t, func() { NewExecutor(nil, NewExponentialBackoff(1)) })
	assert.Panics(t, func() { NewExecutor(NewStoreErrorClassifier(), nil) })
}
