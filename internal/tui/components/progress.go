// Package components holds the bubbletea models rendered by the tui package.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 40

// ScanProgress shows a spinner while files are discovered and a progress bar
// once the total is known.
type ScanProgress struct {
	spinner spinner.Model
	bar     progress.Model
	title   string
	done    int
	total   int
	current string

	finished bool
	summary  string
	err      error
	styles   progressStyles
}

type progressStyles struct {
	Title   lipgloss.Style
	Current lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
}

func defaultProgressStyles() progressStyles {
	return progressStyles{
		Title:   lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Current: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("34")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// NewScanProgress creates a progress model with the given title.
func NewScanProgress(title string) ScanProgress {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))

	return ScanProgress{
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		title:   title,
		styles:  defaultProgressStyles(),
	}
}

// FileScannedMsg reports that one more file finished.
type FileScannedMsg struct {
	Done  int
	Total int
	Path  string
}

// ScanFinishedMsg ends the progress display.
type ScanFinishedMsg struct {
	Summary string
	Err     error
}

// Init implements tea.Model.
func (p ScanProgress) Init() tea.Cmd {
	return p.spinner.Tick
}

// Update implements tea.Model.
func (p ScanProgress) Update(msg tea.Msg) (ScanProgress, tea.Cmd) {
	switch msg := msg.(type) {
	case FileScannedMsg:
		// workers report out of order
		if msg.Done > p.done {
			p.done = msg.Done
			p.current = msg.Path
		}
		p.total = msg.Total
		return p, nil
	case ScanFinishedMsg:
		p.finished = true
		p.summary = msg.Summary
		p.err = msg.Err
		return p, nil
	case spinner.TickMsg:
		if p.finished {
			return p, nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		return p, cmd
	}
	return p, nil
}

// View implements tea.Model.
func (p ScanProgress) View() string {
	if p.finished {
		if p.err != nil {
			return p.styles.Error.Render("✗ " + p.err.Error())
		}
		return p.styles.Success.Render("✓ " + p.summary)
	}

	var b strings.Builder
	b.WriteString(p.spinner.View())
	b.WriteString(" ")
	b.WriteString(p.styles.Title.Render(p.title))
	if p.total > 0 {
		fmt.Fprintf(&b, "\n%s %d/%d", p.bar.ViewAs(p.Percent()), p.done, p.total)
		if p.current != "" {
			b.WriteString("\n")
			b.WriteString(p.styles.Current.Render(p.current))
		}
	}
	return b.String()
}

// Percent returns the completed fraction in [0, 1].
func (p ScanProgress) Percent() float64 {
	if p.total == 0 {
		return 0
	}
	return float64(p.done) / float64(p.total)
}

// IsDone returns true once ScanFinishedMsg was received.
func (p ScanProgress) IsDone() bool {
	return p.finished
}

// Err returns the error carried by ScanFinishedMsg.
func (p ScanProgress) Err() error {
	return p.err
}
