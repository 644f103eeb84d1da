package filesystem

import (
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
type FileInfo = fs.FileInfo

// SkipDir may be returned by a WalkFunc for a directory entry to skip its
// contents.
var SkipDir = fs.SkipDir

// File represents an individual file or directory met during a walk.
type File interface {
	// Path returns the path of the entry as understood by the provider
	Path() string

	// RelativePath returns the path relative to the walked root, with
	// forward slashes
	RelativePath() string

	// Info returns file metadata
	Info() FileInfo

	// ReadContent returns the file's content
	ReadContent() ([]byte, error)
}

// WalkFunc is called for every entry under a Directory, in lexical order.
// Returning SkipDir for a directory prunes it; any other error stops the walk.
type WalkFunc func(file File, err error) error

// Directory represents a directory that can be traversed to discover files.
type Directory interface {
	// Path returns the path of the directory
	Path() string

	// Walk traverses the directory tree, calling fn for each file and directory
	Walk(fn WalkFunc) error
}

// FileSystemProvider is the file access used by the scanner, the scan
// service and the watcher. Missing paths produce errors wrapping
// fs.ErrNotExist.
type FileSystemProvider interface {
	// Open opens a directory at the specified path
	Open(path string) (Directory, error)

	// ReadFile reads a specific file at the given path
	ReadFile(path string) ([]byte, error)

	// Stat returns file information for the given path
	Stat(path string) (FileInfo, error)
}
