package logging

import "github.com/vvka-141/sqlscan/pkg/sqlscan"

// NullLogger discards every message. The scan command uses it while the
// interactive progress view owns the terminal, and components fall back to
// it when constructed without a logger (see OrNull).
// Safe for concurrent use by multiple goroutines.
type NullLogger struct{}

var _ sqlscan.Logger = (*NullLogger)(nil)

// NewNullLogger creates a new NullLogger.
func NewNullLogger() *NullLogger {
	return &NullLogger{}
}

// OrNull returns logger, or a NullLogger when logger is nil, so that
// constructors accepting an optional logger never have to nil-check at
// every call site.
func OrNull(logger sqlscan.Logger) sqlscan.Logger {
	if logger == nil {
		return NewNullLogger()
	}
	return logger
}

// Verbose is a no-op.
func (l *NullLogger) Verbose(format string, args ...interface{}) {}

// Info is a no-op.
func (l *NullLogger) Info(format string, args ...interface{}) {}

// Error is a no-op.
func (l *NullLogger) Error(format string, args ...interface{}) {}
