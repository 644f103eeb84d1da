package tui

import (
	"os"

	"golang.org/x/term"
)

// Mode represents the interaction mode for sqlscan.
type Mode int

const (
	// ModeNonInteractive is used for CI/CD pipelines, scripts, and redirected output.
	ModeNonInteractive Mode = iota
	// ModeInteractive is used when a human is watching the terminal.
	ModeInteractive
)

// NonInteractiveEnv forces plain output when set to "1".
const NonInteractiveEnv = "SQLSCAN_NON_INTERACTIVE"

// DetectMode determines whether progress should be rendered live.
//
// Returns ModeNonInteractive if:
//   - SQLSCAN_NON_INTERACTIVE=1 is set
//   - CI is set (common CI/CD convention)
//   - NO_COLOR is set (accessibility/automation indicator)
//   - stderr is not a terminal (progress is drawn there)
//
// Returns ModeInteractive otherwise. Stdout is not consulted: reports may be
// piped while progress stays on the terminal.
func DetectMode() Mode {
	if os.Getenv(NonInteractiveEnv) == "1" {
		return ModeNonInteractive
	}
	if os.Getenv("CI") != "" {
		return ModeNonInteractive
	}
	if os.Getenv("NO_COLOR") != "" {
		return ModeNonInteractive
	}

	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return ModeNonInteractive
	}

	return ModeInteractive
}

// IsInteractive is a convenience function that returns true if running in interactive mode.
func IsInteractive() bool {
	return DetectMode() == ModeInteractive
}
