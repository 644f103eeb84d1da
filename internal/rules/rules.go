// Package rules classifies method calls as console output, interactive
// input or SQL execution sinks.
//
// A Table is immutable data: it is built once from defaults, configuration
// and CLI overrides, then shared read-only by every worker.
package rules

import (
	"fmt"
	"path"
	"strings"
)

// Disposition is the classification of a call site.
type Disposition int

const (
	Unclassified Disposition = iota
	IgnoredOutput
	IgnoredInput
	ExecutionSink
)

func (d Disposition) String() string {
	switch d {
	case Unclassified:
		return "unclassified"
	case IgnoredOutput:
		return "ignored-output"
	case IgnoredInput:
		return "ignored-input"
	case ExecutionSink:
		return "execution-sink"
	default:
		return fmt.Sprintf("disposition(%d)", int(d))
	}
}

// Ignored reports whether literals passed to the call are never classified.
func (d Disposition) Ignored() bool {
	return d == IgnoredOutput || d == IgnoredInput
}

// ParseDisposition accepts the names printed by String plus short aliases.
func ParseDisposition(s string) (Disposition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ignored-output", "output", "ignore-output":
		return IgnoredOutput, nil
	case "ignored-input", "input", "ignore-input":
		return IgnoredInput, nil
	case "execution-sink", "sink", "execute":
		return ExecutionSink, nil
	case "unclassified", "none", "default":
		return Unclassified, nil
	default:
		return Unclassified, fmt.Errorf("unknown disposition %q", s)
	}
}

// Rule maps a receiver pattern and method pattern to a disposition.
// Patterns use path.Match syntax. Receivers match case-sensitively against the
// dotted receiver path ("System.out", "this.jdbc"); methods match
// case-insensitively. "*" as receiver also matches calls without a receiver.
type Rule struct {
	Receiver    string
	Method      string
	Disposition Disposition
}

func (r Rule) String() string {
	return fmt.Sprintf("%s.%s=%s", r.Receiver, r.Method, r.Disposition)
}

func (r Rule) matches(receiver, method string) bool {
	if r.Receiver != "*" {
		if ok, _ := path.Match(r.Receiver, receiver); !ok {
			return false
		}
	}
	ok, _ := path.Match(strings.ToLower(r.Method), strings.ToLower(method))
	return ok
}

// ParseRule parses "receiver.method=disposition". A key without a dot applies
// to any receiver: "executeQuery=sink" equals "*.executeQuery=sink".
func ParseRule(s string) (Rule, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok {
		return Rule{}, fmt.Errorf("rule %q: expected receiver.method=disposition", s)
	}
	disp, err := ParseDisposition(value)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: %w", s, err)
	}

	key = strings.TrimSpace(key)
	receiver, method := "*", key
	if i := strings.LastIndex(key, "."); i >= 0 {
		receiver, method = key[:i], key[i+1:]
	}

	rule := Rule{Receiver: receiver, Method: method, Disposition: disp}
	if err := rule.validate(); err != nil {
		return Rule{}, fmt.Errorf("rule %q: %w", s, err)
	}
	return rule, nil
}

func (r Rule) validate() error {
	if r.Receiver == "" || r.Method == "" {
		return fmt.Errorf("receiver and method patterns must not be empty")
	}
	if _, err := path.Match(r.Receiver, ""); err != nil {
		return fmt.Errorf("receiver pattern %q: %w", r.Receiver, err)
	}
	if _, err := path.Match(r.Method, ""); err != nil {
		return fmt.Errorf("method pattern %q: %w", r.Method, err)
	}
	return nil
}

// Table is an ordered list of rules; the first matching rule wins.
type Table struct {
	rules []Rule
}

// NewTable validates and copies rules into a Table.
func NewTable(rules ...Rule) (*Table, error) {
	t := &Table{rules: make([]Rule, 0, len(rules))}
	for _, r := range rules {
		if err := r.validate(); err != nil {
			return nil, err
		}
		t.rules = append(t.rules, r)
	}
	return t, nil
}

// Default returns the built-in table: standard streams are ignored, common
// JDBC/JPA/Spring execution methods are sinks.
func Default() *Table {
	return &Table{rules: DefaultRules()}
}

// DefaultRules returns a fresh copy of the built-in rules.
func DefaultRules() []Rule {
	return []Rule{
		{"System.out", "print*", IgnoredOutput},
		{"System.out", "format", IgnoredOutput},
		{"System.out", "write", IgnoredOutput},
		{"System.out", "append", IgnoredOutput},
		{"System.err", "print*", IgnoredOutput},
		{"System.err", "format", IgnoredOutput},
		{"System.err", "write", IgnoredOutput},
		{"System.err", "append", IgnoredOutput},
		{"System.in", "*", IgnoredInput},
		{"System.console()", "readLine", IgnoredInput},
		{"*", "execute*", ExecutionSink},
		{"*", "*query*", ExecutionSink},
		{"*", "prepare*", ExecutionSink},
		{"*", "*update", ExecutionSink},
		{"*", "addBatch", ExecutionSink},
	}
}

// With returns a new table where extra rules take precedence over t's rules.
func (t *Table) With(extra ...Rule) (*Table, error) {
	return NewTable(append(append([]Rule{}, extra...), t.rules...)...)
}

// Classify returns the disposition of the first rule matching the call.
func (t *Table) Classify(receiver, method string) Disposition {
	for _, r := range t.rules {
		if r.matches(receiver, method) {
			return r.Disposition
		}
	}
	return Unclassified
}

// IsInputSource reports whether receiver is named by an ignored-input rule,
// e.g. System.in passed into new Scanner(...).
func (t *Table) IsInputSource(receiver string) bool {
	for _, r := range t.rules {
		if r.Disposition != IgnoredInput || r.Receiver == "*" {
			continue
		}
		if ok, _ := path.Match(r.Receiver, receiver); ok {
			return true
		}
	}
	return false
}

// Rules returns a copy of the table's rules in precedence order.
func (t *Table) Rules() []Rule {
	return append([]Rule(nil), t.rules...)
}
