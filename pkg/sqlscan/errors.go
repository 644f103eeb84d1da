package sqlscan

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	_, err := extractor.Extract(ctx, path, src)
//	if errors.Is(err, sqlscan.ErrLex) {
//	    // The file could not be tokenized and was skipped
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConfigNotFound indicates no sqlscan.yaml exists at the requested location.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrLex indicates a source file could not be tokenized
	// (unterminated string literal, text block or block comment).
	ErrLex = errors.New("lexing failed")

	// ErrSourceNotFound indicates the scan root does not exist or is not a directory.
	ErrSourceNotFound = errors.New("source path not found")

	// ErrNoSourceFiles indicates the scan root contains no Java files.
	ErrNoSourceFiles = errors.New("no java source files found")

	// ErrStoreFailed indicates persisting scan results failed.
	ErrStoreFailed = errors.New("store failed")

	// ErrUploadFailed indicates uploading a report to object storage failed.
	ErrUploadFailed = errors.New("upload failed")

	// ErrFindings indicates SQL was found and the caller asked to treat that as failure.
	ErrFindings = errors.New("embedded sql found")

	// ErrUnsupportedAuthMethod indicates the requested store authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")
)

var usageErrorMarkers = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
	"flag needs an argument",
	"missing required argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrConfigNotFound), errors.Is(err, ErrUnsupportedAuthMethod):
		return ExitConfigError
	case errors.Is(err, ErrSourceNotFound), errors.Is(err, ErrNoSourceFiles):
		return ExitNoSources
	case errors.Is(err, ErrStoreFailed):
		return ExitStoreFailed
	case errors.Is(err, ErrUploadFailed):
		return ExitUploadFailed
	case errors.Is(err, ErrFindings):
		return ExitFindings
	}

	// cobra reports argument and flag misuse as plain errors
	msg := err.Error()
	for _, marker := range usageErrorMarkers {
		if strings.Contains(msg, marker) {
			return ExitUsageError
		}
	}

	return ExitGeneralError
}
