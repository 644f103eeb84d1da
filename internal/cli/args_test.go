package cli

import (
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

func TestRequireSourcePath(t *testing.T) {
	cmd := &cobra.Command{
		Use: "scan <path>",
	}

	t.Run("returns error when no args", func(t *testing.T) {
		err := RequireSourcePath(cmd, []string{})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "missing required argument: <path>") {
			t.Errorf("expected error to contain 'missing required argument: <path>', got: %s", err.Error())
		}
		if !strings.Contains(err.Error(), "Example:") {
			t.Errorf("expected error to contain 'Example:', got: %s", err.Error())
		}
		if code := sqlscan.ExitCodeForError(err); code != sqlscan.ExitUsageError {
			t.Errorf("exit code = %d, want %d", code, sqlscan.ExitUsageError)
		}
	})

	t.Run("returns nil when arg provided", func(t *testing.T) {
		err := RequireSourcePath(cmd, []string{"./src"})
		if err != nil {
			t.Errorf("expected nil, got: %v", err)
		}
	})

	t.Run("returns error when too many args", func(t *testing.T) {
		err := RequireSourcePath(cmd, []string{"a", "b"})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "accepts 1 arg") {
			t.Errorf("expected error to contain 'accepts 1 arg', got: %s", err.Error())
		}
	})
}
