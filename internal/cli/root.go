package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sqlscan",
	Short: "Find the SQL embedded in Java sources",
	Long: `sqlscan finds SQL statements embedded in Java source code without compiling it.

String literals, concatenations, StringBuilder chains and text blocks are
followed through local variables until they reach an execution call such as
executeQuery or prepareStatement. Anything that starts with a SQL keyword is
reported with its line range and the source paragraph it came from.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or rule overrides
  11 - Source path missing or without Java files
  12 - Storing results failed
  13 - Uploading the report failed
  14 - SQL found with --fail-on-findings`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout, os.Stderr)
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
