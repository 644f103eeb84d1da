package sqlscan

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess      = 0  // Scan completed
	ExitGeneralError = 1  // Unknown or unclassified error
	ExitUsageError   = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic        = 3  // Internal panic (unexpected crash)
	ExitConfigError  = 10 // Invalid configuration or rule overrides
	ExitNoSources    = 11 // Scan root missing or without Java files
	ExitStoreFailed  = 12 // Persisting results failed
	ExitUploadFailed = 13 // Report upload failed
	ExitFindings     = 14 // SQL found with --fail-on-findings
)

const (
	// DefaultConfigFile is the project configuration file looked up in the scan root.
	DefaultConfigFile = "sqlscan.yaml"

	// DefaultCacheSize is the number of per-file results kept in memory.
	DefaultCacheSize = 1024

	// DefaultScanTimeout bounds a whole scan run.
	DefaultScanTimeout = 10 * time.Minute

	// DefaultRetryInitialDelay is the default initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 100 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between retry attempts.
	DefaultRetryMaxDelay = 1 * time.Minute

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// SourceExtension is the file extension of scanned source units.
	SourceExtension = ".java"

	// MaxTextPreviewLength is the maximum number of characters of a statement
	// shown in tabular output.
	MaxTextPreviewLength = 80
)
