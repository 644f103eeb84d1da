package sqlscan

import "context"

// ResultStore persists scan reports.
type ResultStore interface {
	// Save writes the run and all of its candidates atomically.
	Save(ctx context.Context, report *ScanReport) error

	// Close releases the underlying connections.
	Close() error
}

// ReportUploader publishes a serialized report to remote storage.
type ReportUploader interface {
	// Upload stores the report and returns the object location.
	Upload(ctx context.Context, report *ScanReport) (string, error)
}
