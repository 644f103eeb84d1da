package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/sqlscan/internal/report"
)

// storeAuthMethods contains the accepted --store-auth values for shell completion.
var storeAuthMethods = []string{"standard", "aws-iam", "azure", "google-cloudsql"}

func completeFromList(values []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var matches []string
	for _, v := range values {
		if strings.HasPrefix(v, toComplete) {
			matches = append(matches, v)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}

// completeFormats provides shell completion for --format values.
func completeFormats(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFromList(report.Formats(), toComplete)
}

// completeStoreAuth provides shell completion for --store-auth values.
func completeStoreAuth(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return completeFromList(storeAuthMethods, toComplete)
}

// completeDirectories provides shell completion for directory paths.
func completeDirectories(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	// Let the shell handle directory completion
	return nil, cobra.ShellCompDirectiveFilterDirs
}
