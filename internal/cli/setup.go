package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/sqlscan/internal/cache"
	"github.com/vvka-141/sqlscan/internal/config"
	"github.com/vvka-141/sqlscan/internal/extract"
	"github.com/vvka-141/sqlscan/internal/files/scanner"
	"github.com/vvka-141/sqlscan/internal/params"
	"github.com/vvka-141/sqlscan/internal/services"
	"github.com/vvka-141/sqlscan/internal/store"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

// scanFlagValues holds the flags shared by scan, watch and serve.
type scanFlagValues struct {
	configFile  string
	workers     int
	include     []string
	exclude     []string
	rules       []string
	keywords    []string
	labels      []string
	labelsFiles []string
	all         bool
	noCache     bool
	timeout     time.Duration
	store       string
	storeAuth   string
}

func addScanFlags(cmd *cobra.Command, f *scanFlagValues) {
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "",
		"Configuration file (default: <path>/"+config.ConfigFileName+" when present)")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0,
		"Files analyzed in parallel (default: number of CPUs)")
	cmd.Flags().StringSliceVar(&f.include, "include", nil,
		"Glob of files to scan, relative to the source path (repeatable)\n"+
			"Example: --include 'src/main/**/*.java'")
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil,
		"Glob of files to skip, relative to the source path (repeatable)")
	cmd.Flags().StringArrayVar(&f.rules, "rule", nil,
		"Call classification override as receiver.method=disposition (repeatable)\n"+
			"Dispositions: sink, output, input, none\n"+
			"Example: --rule jdbcTemplate.queryForObject=sink --rule log.info=output")
	cmd.Flags().StringSliceVar(&f.keywords, "keyword", nil,
		"Additional leading SQL keyword (repeatable)\n"+
			"Example: --keyword UPSERT")
	cmd.Flags().StringArrayVar(&f.labels, "label", nil,
		"Label attached to the run as key=value (repeatable)\n"+
			"Example: --label team=payments --label branch=main")
	cmd.Flags().StringSliceVar(&f.labelsFiles, "labels-file", nil,
		"Load labels from .env files (repeatable)\n"+
			"Later files override earlier ones, --label overrides all")
	cmd.Flags().BoolVar(&f.all, "all", false,
		"Include files without SQL in the report")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false,
		"Disable the per-file result cache")
	cmd.Flags().DurationVar(&f.timeout, "timeout", sqlscan.DefaultScanTimeout,
		"Abort a scan that runs longer than this\n"+
			"Examples: 30s, 5m, 1h30m")
	cmd.Flags().StringVar(&f.store, "store", "",
		"Persist results: postgres://..., sqlite://path or file:path\n"+
			"Alternative: "+config.EnvDatabaseURL+" environment variable")
	cmd.Flags().StringVar(&f.storeAuth, "store-auth", "",
		"PostgreSQL store authentication: standard, aws-iam, azure, google-cloudsql")

	_ = cmd.RegisterFlagCompletionFunc("store-auth", completeStoreAuth)
}

// scanSetup is everything a command needs to run scans.
type scanSetup struct {
	project *config.ProjectConfig
	scanCfg sqlscan.ScanConfig
	service *services.ScanService
}

// loadProjectConfig reads the explicit config file, or the optional
// sqlscan.yaml in dir, then applies .env and environment overrides.
func loadProjectConfig(dir, configFile string) (*config.ProjectConfig, error) {
	_ = godotenv.Load()

	var (
		cfg *config.ProjectConfig
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load(dir)
		if errors.Is(err, config.ErrConfigNotFound) {
			cfg, err = &config.ProjectConfig{}, nil
		}
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildScanSetup resolves configuration with precedence
// flags > environment > config file > defaults and wires the scan service.
func buildScanSetup(cmd *cobra.Command, dir string, f scanFlagValues, logger sqlscan.Logger) (*scanSetup, error) {
	project, err := loadProjectConfig(dir, f.configFile)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		project.Workers = f.workers
	}
	if flags.Changed("include") {
		project.Include = f.include
	}
	if flags.Changed("exclude") {
		project.Exclude = f.exclude
	}
	if f.all {
		project.IncludeEmpty = true
	}
	if f.store != "" {
		project.Store.DSN = f.store
	}
	if f.storeAuth != "" {
		project.Store.AuthMethod = f.storeAuth
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}

	timeout := f.timeout
	if !flags.Changed("timeout") {
		if fileTimeout, _ := project.ScanTimeout(); fileTimeout > 0 {
			timeout = fileTimeout
		}
	}

	table, err := project.RuleTable(f.rules...)
	if err != nil {
		return nil, err
	}
	classifier, err := project.Classifier(f.keywords...)
	if err != nil {
		return nil, err
	}

	labels, err := resolveLabels(project, f)
	if err != nil {
		return nil, err
	}

	cacheSize := sqlscan.DefaultCacheSize
	if project.CacheSize != nil {
		cacheSize = *project.CacheSize
	}
	if f.noCache {
		cacheSize = 0
	}
	results, err := cache.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("cache: %v: %w", err, sqlscan.ErrInvalidConfig)
	}

	fileScanner := scanner.NewScanner(scanner.Options{
		Include: project.Include,
		Exclude: project.Exclude,
	})
	extractor := extract.New(extract.Options{
		Rules:        table,
		Classifier:   classifier,
		PlainTypes:   project.PlainTypes,
		BuilderTypes: project.BuilderTypes,
	})

	return &scanSetup{
		project: project,
		scanCfg: sqlscan.ScanConfig{
			SourcePath:   dir,
			Workers:      project.Workers,
			Include:      project.Include,
			Exclude:      project.Exclude,
			IncludeEmpty: project.IncludeEmpty,
			CacheSize:    cacheSize,
			Timeout:      timeout,
			Labels:       labels,
			Verbose:      getVerboseFlag(cmd),
		},
		service: services.NewScanService(fileScanner, fileScanner.FS(), extractor, results, logger),
	}, nil
}

// resolveLabels merges labels: sqlscan.yaml < --labels-file < --label.
func resolveLabels(project *config.ProjectConfig, f scanFlagValues) (map[string]string, error) {
	fromFiles, err := params.LoadLabelFiles(f.labelsFiles)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, sqlscan.ErrInvalidConfig)
	}
	fromFlags, err := params.ParseLabels(f.labels)
	if err != nil {
		return nil, fmt.Errorf("invalid label: %v: %w", err, sqlscan.ErrInvalidConfig)
	}
	return params.Merge(project.Labels, fromFiles, fromFlags), nil
}

// openStore opens the configured result store, or returns nil when none is set.
func (s *scanSetup) openStore(ctx context.Context, logger sqlscan.Logger) (sqlscan.ResultStore, error) {
	if s.project.Store.DSN == "" {
		return nil, nil
	}
	settings, err := s.project.StoreSettings()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, settings, logger)
}

// resolveSourcePath returns the absolute scan root.
func resolveSourcePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", path, err, sqlscan.ErrSourceNotFound)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%s: %w", path, sqlscan.ErrSourceNotFound)
	}
	return abs, nil
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext(parent context.Context, logger sqlscan.Logger) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
			logger.Info("\n[INTERRUPT] Received interrupt signal, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
