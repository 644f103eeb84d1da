package sqlscan

import "context"

// Extractor turns one source unit into its merged SQL candidates.
// Implementations must be safe for concurrent use by multiple goroutines;
// each call works on its own file and shares no mutable state.
type Extractor interface {
	// Extract lexes and analyzes the complete source text of one file.
	// A lexing failure returns an error wrapping ErrLex.
	Extract(ctx context.Context, path string, src []byte) (FileResult, error)
}
