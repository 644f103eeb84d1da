package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vvka-141/sqlscan/internal/report"
	"github.com/vvka-141/sqlscan/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules [path]",
	Short: "Show the effective call classification rules and SQL keywords",
	Long: `Rules prints the classification table and keyword set a scan of [path] would
use, after sqlscan.yaml, --rule and --keyword are applied. Rules are listed in
precedence order: the first matching rule wins.

Examples:
  sqlscan rules
  sqlscan rules ./src --rule 'dao.run*=sink'
  sqlscan rules --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRules,
}

type rulesFlagValues struct {
	configFile string
	rules      []string
	keywords   []string
	format     string
}

var rulesFlags rulesFlagValues

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().StringVarP(&rulesFlags.configFile, "config", "c", "",
		"Configuration file (default: [path]/sqlscan.yaml when present)")
	rulesCmd.Flags().StringArrayVar(&rulesFlags.rules, "rule", nil,
		"Call classification override as receiver.method=disposition (repeatable)")
	rulesCmd.Flags().StringSliceVar(&rulesFlags.keywords, "keyword", nil,
		"Additional leading SQL keyword (repeatable)")
	rulesCmd.Flags().StringVarP(&rulesFlags.format, "format", "f", "table",
		"Output format: table, json")
}

type ruleView struct {
	Receiver    string `json:"receiver"`
	Method      string `json:"method"`
	Disposition string `json:"disposition"`
}

type rulesView struct {
	Rules    []ruleView `json:"rules"`
	Keywords []string   `json:"keywords"`
}

func runRules(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	project, err := loadProjectConfig(dir, rulesFlags.configFile)
	if err != nil {
		return err
	}
	tbl, err := project.RuleTable(rulesFlags.rules...)
	if err != nil {
		return err
	}
	classifier, err := project.Classifier(rulesFlags.keywords...)
	if err != nil {
		return err
	}

	view := rulesView{Keywords: classifier.Keywords()}
	for _, r := range tbl.Rules() {
		view.Rules = append(view.Rules, ruleView{
			Receiver:    r.Receiver,
			Method:      r.Method,
			Disposition: r.Disposition.String(),
		})
	}

	switch strings.ToLower(rulesFlags.format) {
	case "json":
		return report.WriteJSON(cmd.OutOrStdout(), view)
	case "table", "":
		printRules(cmd.OutOrStdout(), tbl.Rules(), view.Keywords)
		return nil
	default:
		return fmt.Errorf("invalid argument %q for --format (expected table or json)", rulesFlags.format)
	}
}

func printRules(w io.Writer, list []rules.Rule, keywords []string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Receiver", "Method", "Disposition"})
	for i, r := range list {
		t.AppendRow(table.Row{i + 1, r.Receiver, r.Method, r.Disposition})
	}
	t.Render()

	fmt.Fprintf(w, "\nKeywords: %s\n", strings.Join(keywords, ", "))
}
