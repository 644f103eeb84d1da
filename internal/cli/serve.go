package cli

import (
	"github.com/spf13/cobra"

	"github.com/vvka-141/sqlscan/internal/logging"
	"github.com/vvka-141/sqlscan/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve scans over HTTP",
	Long: `Serve starts an HTTP API that scans directories on the server's filesystem:

  POST /java-analyzer/analyze                  body: {"directoryPath": "/src/app"}
  GET  /java-analyzer/analyze/{directoryPath}  URL-escaped path
  GET  /healthz

Both analyze endpoints return the files containing SQL with their paragraphs.
Scan settings come from --config (or ./sqlscan.yaml) and the scan flags; the
result cache is shared between requests. With --store every run is persisted.

Examples:
  sqlscan serve --addr :8080
  curl -s localhost:8080/java-analyzer/analyze -d '{"directoryPath":"/src/app"}'`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

type serveFlagValues struct {
	scanFlagValues
	addr string
}

var serveFlags serveFlagValues

func init() {
	rootCmd.AddCommand(serveCmd)

	addScanFlags(serveCmd, &serveFlags.scanFlagValues)
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", server.DefaultAddr,
		"Address to listen on")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := logging.NewConsoleLogger(getVerboseFlag(cmd))

	setup, err := buildScanSetup(cmd, ".", serveFlags.scanFlagValues, logger)
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

	srv := server.New(server.Config{
		Addr:     serveFlags.addr,
		Scanner:  setup.service,
		Template: setup.scanCfg,
		Store:    resultStore,
		Logger:   logger,
	})
	return srv.Serve(ctx)
}
