package logging

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestConsoleLogger_Verbose_WhenEnabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, true)
	logger.Verbose("test message: %s", "value")

	expected := "[VERBOSE] test message: value\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func TestConsoleLogger_Verbose_WhenDisabled(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)
	logger.Verbose("test message: %s", "value")

	if buf.String() != "" {
		t.Errorf("Expected no output, got %q", buf.String())
	}
}

func TestConsoleLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)
	logger.Info("Found %d Java files", 3)

	expected := "Found 3 Java files\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func TestConsoleLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)
	logger.Error("skipping %s: %v", "A.java", "unterminated string literal")

	expected := "[ERROR] skipping A.java: unterminated string literal\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func TestConsoleLogger_NoArgsKeepsPercent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, false)
	logger.Info("100% done")

	if buf.String() != "100% done\n" {
		t.Errorf("Expected literal format without args, got %q", buf.String())
	}
}

func TestConsoleLogger_ConcurrentLinesStayWhole(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLoggerTo(&buf, true)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.Verbose("worker %d finished", i)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 20 {
		t.Fatalf("Expected 20 lines, got %d", len(lines))
	}
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		seen[line] = true
	}
	for i := 0; i < 20; i++ {
		want := fmt.Sprintf("[VERBOSE] worker %d finished", i)
		if !seen[want] {
			t.Errorf("missing line %q", want)
		}
	}
}

func TestNullLogger(t *testing.T) {
	logger := NewNullLogger()
	logger.Verbose("ignored %d", 1)
	logger.Info("ignored")
	logger.Error("ignored")
}

func TestOrNull(t *testing.T) {
	if _, ok := OrNull(nil).(*NullLogger); !ok {
		t.Errorf("OrNull(nil) = %T, want *NullLogger", OrNull(nil))
	}

	console := NewConsoleLoggerTo(&bytes.Buffer{}, false)
	if got := OrNull(console); got != console {
		t.Errorf("OrNull should return a non-nil logger unchanged, got %T", got)
	}
}
