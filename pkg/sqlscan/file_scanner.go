package sqlscan

import "time"

// FileScanner discovers the source files of a scan root.
// Implementations must be safe for concurrent use by multiple goroutines.
type FileScanner interface {
	// ScanDirectory recursively scans a directory and returns the Java files
	// selected by the include/exclude patterns, sorted by relative path.
	ScanDirectory(sourcePath string) (FileScanResult, error)
}

// SourceFile describes one discovered source file. Content is read later by
// the worker that processes it.
type SourceFile struct {
	Path         string    // Path as understood by the filesystem provider
	RelativePath string    // Relative to the scan root, Unix separators
	SizeBytes    int64     // File size in bytes
	ModifiedAt   time.Time // Last modification time
}

// FileScanResult contains the results of scanning a directory.
type FileScanResult struct {
	Files []SourceFile
}
