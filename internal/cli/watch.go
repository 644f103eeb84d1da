package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/sqlscan/internal/logging"
	"github.com/vvka-141/sqlscan/internal/report"
	"github.com/vvka-141/sqlscan/internal/tui"
	"github.com/vvka-141/sqlscan/internal/watch"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

var watchCmd = &cobra.Command{
	Use:   "watch <path>",
	Short: "Rescan Java sources whenever they change",
	Long: `Watch scans <path> once, then rescans after every change to a .java file
and prints the updated report. Unchanged files are served from the result
cache, so rescans of large trees stay fast. Stop with Ctrl+C.

Examples:
  sqlscan watch ./src
  sqlscan watch ./src --format markdown`,
	Args:              RequireSourcePath,
	ValidArgsFunction: completeDirectories,
	RunE:              runWatch,
}

type watchFlagValues struct {
	scanFlagValues
	format string
}

var watchFlags watchFlagValues

func init() {
	rootCmd.AddCommand(watchCmd)

	addScanFlags(watchCmd, &watchFlags.scanFlagValues)
	watchCmd.Flags().StringVarP(&watchFlags.format, "format", "f", string(report.FormatTable),
		"Output format for each rescan")

	_ = watchCmd.RegisterFlagCompletionFunc("format", completeFormats)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := logging.NewConsoleLogger(getVerboseFlag(cmd))

	format, err := report.ParseFormat(watchFlags.format)
	if err != nil {
		return fmt.Errorf("invalid argument for --format: %w", err)
	}
	root, err := resolveSourcePath(args[0])
	if err != nil {
		return err
	}
	setup, err := buildScanSetup(cmd, root, watchFlags.scanFlagValues, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd.Context(), logger)
	defer cancel()

	resultStore, err := setup.openStore(ctx, logger)
	if err != nil {
		return err
	}
	if resultStore != nil {
		defer func() {
			if cerr := resultStore.Close(); cerr != nil {
				logger.Error("Failed to close result store: %v", cerr)
			}
		}()
	}

	out := cmd.OutOrStdout()
	status := tui.NewStatus(cmd.ErrOrStderr())

	w := watch.New(watch.Options{
		Scanner: setup.service,
		Config:  setup.scanCfg,
		Logger:  logger,
		OnReport: func(rep *sqlscan.ScanReport, err error) {
			if err != nil {
				status.Error("Scan failed: %v", err)
				return
			}
			if err := report.Write(out, format, rep); err != nil {
				status.Error("Failed to write report: %v", err)
				return
			}
			status.Success("%s (%d cached). Watching for changes...", tui.Summary(rep), rep.Stats.CacheHits)
			if resultStore != nil {
				if err := resultStore.Save(ctx, rep); err != nil {
					status.Error("Failed to store run: %v", err)
				}
			}
		},
	})
	return w.Run(ctx)
}
