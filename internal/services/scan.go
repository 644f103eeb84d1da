package services

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vvka-141/sqlscan/internal/cache"
	"github.com/vvka-141/sqlscan/internal/checksum"
	"github.com/vvka-141/sqlscan/internal/files/filesystem"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

// ProgressFunc is called after each file completes, from worker goroutines.
type ProgressFunc func(done, total int, relPath string)

// ScanService discovers Java files and extracts their SQL with a bounded
// worker pool. A ScanService may run concurrent scans; the result cache is
// shared between them.
type ScanService struct {
	fileScanner sqlscan.FileScanner
	reader      filesystem.FileSystemProvider
	extractor   sqlscan.Extractor
	calculator  checksum.Calculator
	cache       *cache.Results
	logger      sqlscan.Logger
	progress    ProgressFunc
}

// NewScanService creates a ScanService with all dependencies injected.
// Panics on nil dependencies; results may be nil to disable caching.
func NewScanService(
	fileScanner sqlscan.FileScanner,
	reader filesystem.FileSystemProvider,
	extractor sqlscan.Extractor,
	results *cache.Results,
	logger sqlscan.Logger,
) *ScanService {
	if fileScanner == nil {
		panic("fileScanner cannot be nil")
	}
	if reader == nil {
		panic("reader cannot be nil")
	}
	if extractor == nil {
		panic("extractor cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	return &ScanService{
		fileScanner: fileScanner,
		reader:      reader,
		extractor:   extractor,
		calculator:  checksum.New(),
		cache:       results,
		logger:      logger,
	}
}

// OnProgress registers a progress callback. It must be set before Scan.
func (s *ScanService) OnProgress(fn ProgressFunc) {
	s.progress = fn
}

// fileOutcome is the result slot owned by exactly one worker.
type fileOutcome struct {
	result   sqlscan.FileResult
	err      error
	cacheHit bool
}

// Scan runs one scan. Per-file failures (unreadable file, lexing error,
// panic) are recorded as diagnostics and never abort the run. Cancellation
// of ctx or cfg.Timeout stops scheduling and returns an error; results of
// a canceled run are discarded.
func (s *ScanService) Scan(ctx context.Context, cfg sqlscan.ScanConfig) (*sqlscan.ScanReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	report := &sqlscan.ScanReport{
		RunID:      uuid.New(),
		SourcePath: cfg.SourcePath,
		StartedAt:  time.Now().UTC(),
		Labels:     cfg.Labels,
	}

	discovered, err := s.fileScanner.ScanDirectory(cfg.SourcePath)
	if err != nil {
		return nil, err
	}
	files := discovered.Files
	s.logger.Info("Found %d Java files", len(files))

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	outcomes := make([]fileOutcome, len(files))
	var completed atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, f := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			outcomes[i] = s.scanFile(ctx, f)
			n := completed.Add(1)
			if s.progress != nil {
				s.progress(int(n), len(files), f.RelativePath)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan of %s interrupted: %w", cfg.SourcePath, err)
	}

	report.Stats.FilesDiscovered = len(files)
	for i, out := range outcomes {
		f := files[i]
		if out.err != nil {
			s.logger.Error("Skipping %s: %v", f.RelativePath, out.err)
			report.Diagnostics = append(report.Diagnostics, sqlscan.Diagnostic{
				Path:    f.RelativePath,
				Message: out.err.Error(),
			})
			report.Stats.FilesSkipped++
			continue
		}

		report.Stats.FilesScanned++
		if out.cacheHit {
			report.Stats.CacheHits++
		}
		report.Stats.Candidates += len(out.result.Candidates)
		if len(out.result.Paragraphs) == 0 && !cfg.IncludeEmpty {
			continue
		}
		report.Files = append(report.Files, out.result)
	}

	report.Duration = time.Since(report.StartedAt)
	s.logger.Verbose("Scanned %d files in %s: %d candidates, %d cache hits, %d skipped",
		report.Stats.FilesScanned, report.Duration.Round(time.Millisecond),
		report.Stats.Candidates, report.Stats.CacheHits, report.Stats.FilesSkipped)
	return report, nil
}

// scanFile processes one file. Panics inside extraction are converted into
// the file's error so that one malformed input cannot take down the pool.
func (s *ScanService) scanFile(ctx context.Context, f sqlscan.SourceFile) (out fileOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = fileOutcome{err: fmt.Errorf("internal error: %v", r)}
		}
	}()

	content, err := s.reader.ReadFile(f.Path)
	if err != nil {
		return fileOutcome{err: fmt.Errorf("failed to read file: %w", err)}
	}

	sum := s.calculator.CalculateRaw(content)
	if cached, ok := s.cache.Get(f.Path, sum); ok {
		s.logger.Verbose("Cache hit: %s", f.RelativePath)
		return fileOutcome{result: cached, cacheHit: true}
	}

	result, err := s.extractor.Extract(ctx, f.Path, content)
	if err != nil {
		return fileOutcome{err: err}
	}
	result.RelativePath = f.RelativePath
	s.cache.Put(f.Path, sum, result)
	return fileOutcome{result: result}
}
