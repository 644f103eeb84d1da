package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"

	"github.com/vvka-141/sqlscan/internal/files/filesystem"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

// DefaultInclude selects every Java source file.
func DefaultInclude() []string {
	return []string{"**/*" + sqlscan.SourceExtension}
}

// DefaultExclude skips build output, VCS metadata and vendored JavaScript.
func DefaultExclude() []string {
	return []string{"**/target/**", "**/build/**", "**/.git/**", "**/node_modules/**"}
}

// Options configures a Scanner. Nil pattern lists select the defaults; an
// empty non-nil Exclude disables exclusion.
type Options struct {
	Include []string
	Exclude []string
	FS      filesystem.FileSystemProvider
}

// Scanner discovers Java source files under a root directory.
// Scanner is safe for concurrent use by multiple goroutines as long as the
// filesystem provider is.
type Scanner struct {
	include    []string
	exclude    []string
	fsProvider filesystem.FileSystemProvider
}

// NewScanner creates a scanner. Uses the OS filesystem unless opts.FS is set.
func NewScanner(opts Options) *Scanner {
	s := &Scanner{
		include:    opts.Include,
		exclude:    opts.Exclude,
		fsProvider: opts.FS,
	}
	if s.include == nil {
		s.include = DefaultInclude()
	}
	if s.exclude == nil {
		s.exclude = DefaultExclude()
	}
	if s.fsProvider == nil {
		s.fsProvider = filesystem.NewOSFileSystem()
	}
	return s
}

// FS returns the filesystem provider files are discovered on.
func (s *Scanner) FS() filesystem.FileSystemProvider {
	return s.fsProvider
}

// ScanDirectory recursively scans sourcePath and returns the selected files
// sorted by relative path. A missing root wraps sqlscan.ErrSourceNotFound; a
// malformed pattern wraps sqlscan.ErrInvalidConfig.
func (s *Scanner) ScanDirectory(sourcePath string) (sqlscan.FileScanResult, error) {
	dir, err := s.fsProvider.Open(sourcePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return sqlscan.FileScanResult{}, fmt.Errorf("%s: %w", sourcePath, sqlscan.ErrSourceNotFound)
		}
		return sqlscan.FileScanResult{}, fmt.Errorf("failed to open directory: %w", err)
	}

	var files []sqlscan.SourceFile
	err = dir.Walk(func(file filesystem.File, err error) error {
		if err != nil {
			return fmt.Errorf("error walking path: %w", err)
		}

		rel := file.RelativePath()
		info := file.Info()
		if info.IsDir() {
			if rel == "." {
				return nil
			}
			pruned, err := s.prunes(rel)
			if err != nil {
				return err
			}
			if pruned {
				return filesystem.SkipDir
			}
			return nil
		}

		ok, err := s.Matches(rel)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		files = append(files, sqlscan.SourceFile{
			Path:         file.Path(),
			RelativePath: rel,
			SizeBytes:    info.Size(),
			ModifiedAt:   info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return sqlscan.FileScanResult{}, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].RelativePath < files[j].RelativePath
	})
	return sqlscan.FileScanResult{Files: files}, nil
}

// Matches reports whether a slash-separated path relative to the scan root
// is selected: it matches an include pattern and no exclude pattern.
func (s *Scanner) Matches(rel string) (bool, error) {
	included, err := matchAny(s.include, rel)
	if err != nil || !included {
		return false, err
	}
	excluded, err := matchAny(s.exclude, rel)
	if err != nil {
		return false, err
	}
	return !excluded, nil
}

// prunes reports whether a directory is excluded as a whole: some exclude
// pattern of the form "<dir>/**" matches it.
func (s *Scanner) prunes(rel string) (bool, error) {
	for _, pattern := range s.exclude {
		dirPattern, ok := strings.CutSuffix(pattern, "/**")
		if !ok {
			continue
		}
		matched, err := doublestar.Match(dirPattern, rel)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", pattern, sqlscan.ErrInvalidConfig)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

func matchAny(patterns []string, rel string) (bool, error) {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			return false, fmt.Errorf("pattern %q: %w", pattern, sqlscan.ErrInvalidConfig)
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

// Verify Scanner implements the interface at compile time
var _ sqlscan.FileScanner = (*Scanner)(nil)
