package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Status prints one-line progress messages. Colors are used only when the
// terminal is interactive.
type Status struct {
	out    io.Writer
	styled bool
}

func NewStatus(out io.Writer) *Status {
	return &Status{out: out, styled: IsInteractive()}
}

// NewPlainStatus never styles its output.
func NewPlainStatus(out io.Writer) *Status {
	return &Status{out: out}
}

func (s *Status) Start(format string, args ...interface{}) {
	s.line(TitleStyle, SymbolSpinner, format, args)
}

func (s *Status) Success(format string, args ...interface{}) {
	s.line(SuccessStyle, SymbolCheck, format, args)
}

func (s *Status) Warn(format string, args ...interface{}) {
	s.line(WarningStyle, SymbolWarning, format, args)
}

func (s *Status) Error(format string, args ...interface{}) {
	s.line(ErrorStyle, SymbolCross, format, args)
}

func (s *Status) line(style lipgloss.Style, symbol, format string, args []interface{}) {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	text := symbol + " " + msg
	if s.styled {
		text = style.Render(text)
	}
	fmt.Fprintln(s.out, text)
}
