// Package logging provides concrete implementations of the sqlscan.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: writes formatted lines to stderr (or any writer)
//   - NullLogger: discards all messages (tests, embedded HTTP handler default)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
