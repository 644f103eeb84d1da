// Package report renders scan reports as a terminal table, markdown, JSON,
// YAML or CSV.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// Formats lists the accepted format names for flag help.
func Formats() []string {
	return []string{string(FormatTable), string(FormatJSON), string(FormatYAML), string(FormatCSV), string(FormatMarkdown)}
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected one of %s)", s, strings.Join(Formats(), ", "))
	}
}

var header = []string{"File", "Lines", "Origin", "Disposition", "Statement"}

// Write renders report to w.
func Write(w io.Writer, format Format, report *sqlscan.ScanReport) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case FormatCSV:
		return writeCSV(w, report)
	case FormatMarkdown:
		return writeMarkdown(w, report)
	case FormatTable, "":
		return writeTable(w, report)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// WriteJSON renders any value the way the json format does.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type row struct {
	file      string
	candidate sqlscan.Candidate
}

func rows(report *sqlscan.ScanReport) []row {
	var out []row
	for _, f := range report.Files {
		name := f.RelativePath
		if name == "" {
			name = f.Path
		}
		for _, c := range f.Candidates {
			out = append(out, row{file: name, candidate: c})
		}
	}
	return out
}

func lineRange(c sqlscan.Candidate) string {
	if c.StartLine == c.EndLine {
		return strconv.Itoa(c.StartLine)
	}
	return fmt.Sprintf("%d-%d", c.StartLine, c.EndLine)
}

// Preview collapses whitespace and truncates text for one-line display.
func Preview(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if limit <= 3 || len(runes) <= limit {
		return text
	}
	return string(runes[:limit-3]) + "..."
}

func writeTable(w io.Writer, report *sqlscan.ScanReport) error {
	all := rows(report)
	if len(all) == 0 {
		_, _ = fmt.Fprintln(w, "No SQL found")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)

	for _, r := range all {
		t.AppendRow(table.Row{
			r.file,
			lineRange(r.candidate),
			r.candidate.Origin.String(),
			r.candidate.Disposition.String(),
			Preview(r.candidate.Text, sqlscan.MaxTextPreviewLength),
		})
	}

	t.Render()
	_, _ = fmt.Fprintln(w, summary(report, len(all)))
	return nil
}

func summary(report *sqlscan.ScanReport, statements int) string {
	files := 0
	for _, f := range report.Files {
		if len(f.Candidates) > 0 {
			files++
		}
	}
	s := fmt.Sprintf("(%d statements in %d files", statements, files)
	if report.Stats.FilesSkipped > 0 {
		s += fmt.Sprintf(", %d skipped", report.Stats.FilesSkipped)
	}
	return s + ")"
}

func writeMarkdown(w io.Writer, report *sqlscan.ScanReport) error {
	all := rows(report)
	if len(all) == 0 {
		_, _ = fmt.Fprintln(w, "_No SQL found_")
		return nil
	}

	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	t.SetCenterSeparator("|")

	for _, r := range all {
		t.Append([]string{
			r.file,
			lineRange(r.candidate),
			r.candidate.Origin.String(),
			r.candidate.Disposition.String(),
			"`" + strings.ReplaceAll(Preview(r.candidate.Text, 1<<20), "|", `\|`) + "`",
		})
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "\n%s\n", summary(report, len(all)))
	return nil
}

func writeCSV(w io.Writer, report *sqlscan.ScanReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"file", "start_line", "end_line", "origin", "disposition", "statement"}); err != nil {
		return err
	}
	for _, r := range rows(report) {
		if err := cw.Write([]string{
			r.file,
			strconv.Itoa(r.candidate.StartLine),
			strconv.Itoa(r.candidate.EndLine),
			r.candidate.Origin.String(),
			r.candidate.Disposition.String(),
			r.candidate.Text,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
