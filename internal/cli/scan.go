package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/sqlscan/internal/config"
	"github.com/vvka-141/sqlscan/internal/logging"
	"github.com/vvka-141/sqlscan/internal/report"
	"github.com/vvka-141/sqlscan/internal/tui"
	"github.com/vvka-141/sqlscan/internal/upload"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Extract embedded SQL from Java sources",
	Long: `Scan walks a directory of Java sources and reports every string literal,
concatenation and builder chain that ends up as a SQL statement.

Results go to stdout (or --output) in the selected format. Optionally the run is
persisted to PostgreSQL or SQLite (--store) and the JSON report uploaded to
S3-compatible storage (--upload).

Configuration precedence: flags > environment (.env is loaded) > sqlscan.yaml > defaults.

Examples:
  # Table on the terminal
  sqlscan scan ./src

  # JSON report for tooling
  sqlscan scan ./src --format json --output sql.json

  # Treat custom DAO helpers as execution sinks
  sqlscan scan ./src --rule 'dao.run*=sink' --keyword UPSERT

  # Fail a CI job when SQL appears
  sqlscan scan ./src --fail-on-findings

  # Persist and publish the run
  sqlscan scan ./src --store sqlite://scans.db \
    --upload s3://reports/nightly --label branch=main`,
	Args:              RequireSourcePath,
	ValidArgsFunction: completeDirectories,
	RunE:              runScan,
}

type scanCmdFlagValues struct {
	scanFlagValues
	format         string
	output         string
	upload         string
	failOnFindings bool
}

var scanFlags scanCmdFlagValues

func init() {
	rootCmd.AddCommand(scanCmd)

	addScanFlags(scanCmd, &scanFlags.scanFlagValues)
	scanCmd.Flags().StringVarP(&scanFlags.format, "format", "f", string(report.FormatTable),
		"Output format: "+strings.Join(report.Formats(), ", "))
	scanCmd.Flags().StringVarP(&scanFlags.output, "output", "o", "",
		"Write the report to a file instead of stdout")
	scanCmd.Flags().StringVar(&scanFlags.upload, "upload", "",
		"Upload the JSON report to s3://bucket/prefix\n"+
			"Endpoint and credentials: "+config.EnvS3Endpoint+", "+config.EnvS3AccessKey+", "+config.EnvS3SecretKey)
	scanCmd.Flags().BoolVar(&scanFlags.failOnFindings, "fail-on-findings", false,
		fmt.Sprintf("Exit with code %d when any SQL is found", sqlscan.ExitFindings))

	_ = scanCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runScan(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)
	logger := logging.NewConsoleLogger(verbose)
	interactive := tui.IsInteractive()

	format, err := report.ParseFormat(scanFlags.format)
	if err != nil {
		return fmt.Errorf("invalid argument for --format: %w", err)
	}

	root, err := resolveSourcePath(args[0])
	if err != nil {
		return err
	}

	// live progress owns stderr, so plain log lines are reserved for --verbose
	var scanLogger sqlscan.Logger = logger
	if interactive && !verbose {
		scanLogger = logging.NewNullLogger()
	}

	setup, err := buildScanSetup(cmd, root, scanFlags.scanFlagValues, scanLogger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	rep, err := executeScan(ctx, setup, interactive && !verbose)
	if err != nil {
		return err
	}
	if rep.Stats.FilesDiscovered == 0 {
		return fmt.Errorf("%s: %w", args[0], sqlscan.ErrNoSourceFiles)
	}

	status := tui.NewStatus(cmd.ErrOrStderr())
	for _, d := range rep.Diagnostics {
		status.Warn("Skipped %s: %s", d.Path, d.Message)
	}

	if err := writeReport(cmd.OutOrStdout(), scanFlags.output, format, rep); err != nil {
		return err
	}

	if err := persistReport(ctx, setup, rep, status, logger); err != nil {
		return err
	}

	if err := uploadReport(ctx, setup.project, scanFlags.upload, rep, status); err != nil {
		return err
	}

	if scanFlags.failOnFindings && rep.HasFindings() {
		return fmt.Errorf("%d files contain SQL: %w", countFindingFiles(rep), sqlscan.ErrFindings)
	}
	return nil
}

func executeScan(ctx context.Context, setup *scanSetup, live bool) (*sqlscan.ScanReport, error) {
	if !live {
		return setup.service.Scan(ctx, setup.scanCfg)
	}
	return tui.RunScan(ctx, os.Stderr, "Scanning "+setup.scanCfg.SourcePath,
		func(ctx context.Context, progress tui.ProgressFunc) (*sqlscan.ScanReport, error) {
			setup.service.OnProgress(func(done, total int, path string) { progress(done, total, path) })
			return setup.service.Scan(ctx, setup.scanCfg)
		})
}

func writeReport(stdout io.Writer, output string, format report.Format, rep *sqlscan.ScanReport) error {
	if output == "" {
		return report.Write(stdout, format, rep)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := report.Write(f, format, rep); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	return f.Close()
}

func persistReport(ctx context.Context, setup *scanSetup, rep *sqlscan.ScanReport, status *tui.Status, logger sqlscan.Logger) error {
	resultStore, err := setup.openStore(ctx, logger)
	if err != nil {
		return err
	}
	if resultStore == nil {
		return nil
	}
	defer func() {
		if cerr := resultStore.Close(); cerr != nil {
			logger.Error("Failed to close result store: %v", cerr)
		}
	}()

	if err := resultStore.Save(ctx, rep); err != nil {
		return err
	}
	status.Success("Stored run %s", rep.RunID)
	return nil
}

// uploadReport publishes the report when --upload or an upload bucket is configured.
func uploadReport(ctx context.Context, project *config.ProjectConfig, target string, rep *sqlscan.ScanReport, status *tui.Status) error {
	cfg := project.Upload
	if target != "" {
		bucket, prefix, err := upload.ParseTarget(target)
		if err != nil {
			return err
		}
		cfg.Bucket, cfg.Prefix = bucket, prefix
	}
	if cfg.Bucket == "" {
		return nil
	}

	uploader, err := upload.NewS3Uploader(upload.Config{
		Endpoint:  cfg.Endpoint,
		Region:    cfg.Region,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Prefix:    cfg.Prefix,
		UseSSL:    !cfg.Insecure,
	})
	if err != nil {
		return err
	}

	url, err := uploader.Upload(ctx, rep)
	if err != nil {
		return err
	}
	status.Success("Uploaded report to %s", url)
	return nil
}

func countFindingFiles(rep *sqlscan.ScanReport) int {
	n := 0
	for _, f := range rep.Files {
		if len(f.Candidates) > 0 {
			n++
		}
	}
	return n
}
