// Package watch re-runs a scan whenever Java sources under a directory change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vvka-141/sqlscan/internal/logging"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

// DefaultDebounce groups the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Scanner runs one scan; *services.ScanService satisfies it.
type Scanner interface {
	Scan(ctx context.Context, cfg sqlscan.ScanConfig) (*sqlscan.ScanReport, error)
}

// ReportFunc receives the outcome of every scan, the initial one included.
type ReportFunc func(report *sqlscan.ScanReport, err error)

type Options struct {
	Scanner  Scanner
	Config   sqlscan.ScanConfig
	Debounce time.Duration
	OnReport ReportFunc
	Logger   sqlscan.Logger
}

type Watcher struct {
	scanner  Scanner
	cfg      sqlscan.ScanConfig
	debounce time.Duration
	onReport ReportFunc
	logger   sqlscan.Logger
}

// New creates a Watcher. Panics if Scanner or OnReport is nil.
func New(opts Options) *Watcher {
	if opts.Scanner == nil {
		panic("scanner cannot be nil")
	}
	if opts.OnReport == nil {
		panic("report callback cannot be nil")
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	opts.Logger = logging.OrNull(opts.Logger)
	return &Watcher{
		scanner:  opts.Scanner,
		cfg:      opts.Config,
		debounce: opts.Debounce,
		onReport: opts.OnReport,
		logger:   opts.Logger,
	}
}

// Run scans once, then rescans after each debounced burst of changes until
// ctx is cancelled. Scans never overlap.
func (w *Watcher) Run(ctx context.Context) error {
	root := w.cfg.SourcePath
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s: %w", root, sqlscan.ErrSourceNotFound)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}

	w.scan(ctx)

	trigger := make(chan struct{}, 1)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(watcher, event) {
				continue
			}
			w.logger.Verbose("Changed: %s (%s)", event.Name, event.Op)

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				select {
				case trigger <- struct{}{}:
				default:
				}
			})

		case <-trigger:
			w.scan(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) scan(ctx context.Context) {
	report, err := w.scanner.Scan(ctx, w.cfg)
	if ctx.Err() != nil {
		return
	}
	w.onReport(report, err)
}

// relevant reports whether event should cause a rescan. New directories are
// added to the watch set and count as a change since they may hold sources.
func (w *Watcher) relevant(watcher *fsnotify.Watcher, event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := watchDirRecursive(watcher, event.Name); err != nil {
				w.logger.Error("Failed to watch %s: %v", event.Name, err)
			}
			return true
		}
	}
	return strings.EqualFold(filepath.Ext(event.Name), sqlscan.SourceExtension)
}

func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
