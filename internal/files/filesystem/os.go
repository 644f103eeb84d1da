package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// osFile implements File for the OS filesystem. Info is resolved lazily
// because WalkDir only hands out directory entries.
type osFile struct {
	absPath string
	relPath string
	entry   fs.DirEntry
	info    fs.FileInfo
}

func (f *osFile) Path() string         { return f.absPath }
func (f *osFile) RelativePath() string { return f.relPath }

func (f *osFile) Info() FileInfo {
	if f.info == nil {
		info, err := f.entry.Info()
		if err != nil {
			return &entryInfo{entry: f.entry}
		}
		f.info = info
	}
	return f.info
}

func (f *osFile) ReadContent() ([]byte, error) {
	return os.ReadFile(f.absPath)
}

// osDirectory implements Directory for the OS filesystem
type osDirectory struct {
	absPath string
}

func (d *osDirectory) Path() string { return d.absPath }

func (d *osDirectory) Walk(fn WalkFunc) error {
	return filepath.WalkDir(d.absPath, func(path string, entry fs.DirEntry, walkErr error) error {
		var callbackErr error
		func() {
			defer func() {
				if r := recover(); r != nil {
					callbackErr = fmt.Errorf("walk callback panicked at %s: %v", path, r)
				}
			}()

			if walkErr != nil {
				callbackErr = fn(nil, walkErr)
				return
			}

			relPath, relErr := filepath.Rel(d.absPath, path)
			if relErr != nil {
				callbackErr = fn(nil, fmt.Errorf("failed to get relative path: %w", relErr))
				return
			}

			callbackErr = fn(&osFile{
				absPath: path,
				relPath: filepath.ToSlash(relPath),
				entry:   entry,
			}, nil)
		}()

		return callbackErr
	})
}

// OSFileSystem implements FileSystemProvider for the OS filesystem
type OSFileSystem struct{}

// NewOSFileSystem creates a new OS filesystem provider
func NewOSFileSystem() *OSFileSystem {
	return &OSFileSystem{}
}

func (p *OSFileSystem) Open(path string) (Directory, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return &osDirectory{absPath: absPath}, nil
}

func (p *OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func (p *OSFileSystem) Stat(path string) (FileInfo, error) {
	return os.Stat(path)
}

// entryInfo is the fallback FileInfo when a directory entry vanished
// between listing and stat.
type entryInfo struct {
	entry fs.DirEntry
}

func (e *entryInfo) Name() string       { return e.entry.Name() }
func (e *entryInfo) Size() int64        { return 0 }
func (e *entryInfo) Mode() fs.FileMode  { return e.entry.Type() }
func (e *entryInfo) ModTime() time.Time { return time.Time{} }
func (e *entryInfo) IsDir() bool        { return e.entry.IsDir() }
func (e *entryInfo) Sys() interface{}   { return nil }
