package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/vvka-141/sqlscan/internal/tui/components"
	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

// ProgressFunc matches services.ProgressFunc.
type ProgressFunc func(done, total int, path string)

// ScanFunc runs a scan, reporting every finished file to progress.
type ScanFunc func(ctx context.Context, progress ProgressFunc) (*sqlscan.ScanReport, error)

// RunScan renders live progress on out while fn runs. Pressing q or ctrl+c
// cancels the scan. Rendering failures never fail the scan itself.
func RunScan(ctx context.Context, out io.Writer, title string, fn ScanFunc) (*sqlscan.ScanReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := []tea.ProgramOption{tea.WithOutput(out), tea.WithContext(ctx)}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		opts = append(opts, tea.WithInput(nil))
	}
	program := tea.NewProgram(newScanModel(title, cancel), opts...)

	type result struct {
		report *sqlscan.ScanReport
		err    error
	}
	done := make(chan result, 1)
	go func() {
		report, err := fn(ctx, func(n, total int, path string) {
			program.Send(components.FileScannedMsg{Done: n, Total: total, Path: path})
		})
		program.Send(components.ScanFinishedMsg{Summary: Summary(report), Err: err})
		done <- result{report, err}
	}()

	_, _ = program.Run()
	cancel()

	res := <-done
	return res.report, res.err
}

// Summary describes a finished report in one line.
func Summary(report *sqlscan.ScanReport) string {
	if report == nil {
		return ""
	}
	statements := 0
	for _, f := range report.Files {
		for _, p := range f.Paragraphs {
			statements += len(p.Statements)
		}
	}
	return fmt.Sprintf("%d statements in %d of %d files (%s)",
		statements, len(report.Files), report.Stats.FilesScanned, report.Duration.Round(time.Millisecond))
}

type scanModel struct {
	progress components.ScanProgress
	keys     KeyMap
	cancel   context.CancelFunc
}

func newScanModel(title string, cancel context.CancelFunc) scanModel {
	return scanModel{
		progress: components.NewScanProgress(title),
		keys:     DefaultKeyMap(),
		cancel:   cancel,
	}
}

func (m scanModel) Init() tea.Cmd {
	return m.progress.Init()
}

func (m scanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			// the scan goroutine reports the cancellation as ScanFinishedMsg
			m.cancel()
		}
		return m, nil
	case components.ScanFinishedMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, tea.Batch(cmd, tea.Quit)
	}

	var cmd tea.Cmd
	m.progress, cmd = m.progress.Update(msg)
	return m, cmd
}

func (m scanModel) View() string {
	if m.progress.IsDone() {
		return m.progress.View() + "\n"
	}
	return m.progress.View() + "\n" + MutedStyle.Render(m.keys.HelpText()) + "\n"
}
