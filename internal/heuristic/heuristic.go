// Package heuristic decides whether accumulated string fragments look like a
// SQL statement.
package heuristic

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Fragment is one piece of accumulated text: a literal segment, or an opaque
// placeholder for a value the scanner cannot know.
type Fragment struct {
	Literal bool
	Text    string // literal content, or the referenced expression for placeholders
	Line    int
}

// Lit creates a literal fragment.
func Lit(text string, line int) Fragment {
	return Fragment{Literal: true, Text: text, Line: line}
}

// Opaque creates a placeholder fragment referencing ref.
func Opaque(ref string, line int) Fragment {
	return Fragment{Text: ref, Line: line}
}

// DefaultKeywords returns the statement keywords accepted out of the box.
func DefaultKeywords() []string {
	return []string{
		"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "ALTER",
		"DROP", "TRUNCATE", "MERGE", "WITH", "CALL", "EXEC",
	}
}

// Classifier matches the leading word of literal text against a keyword set.
type Classifier struct {
	keywords map[string]struct{}
}

// NewClassifier builds a classifier from keywords (matched case-insensitively).
func NewClassifier(keywords []string) (*Classifier, error) {
	if len(keywords) == 0 {
		return nil, fmt.Errorf("keyword set must not be empty")
	}

	c := &Classifier{keywords: make(map[string]struct{}, len(keywords))}
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" || strings.IndexFunc(kw, func(r rune) bool { return !unicode.IsLetter(r) }) >= 0 {
			return nil, fmt.Errorf("keyword %q must consist of letters only", kw)
		}
		c.keywords[strings.ToUpper(kw)] = struct{}{}
	}
	return c, nil
}

// Default returns a classifier over DefaultKeywords.
func Default() *Classifier {
	c, _ := NewClassifier(DefaultKeywords())
	return c
}

// Keywords returns the configured keywords in sorted order.
func (c *Classifier) Keywords() []string {
	out := make([]string, 0, len(c.keywords))
	for kw := range c.keywords {
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

// Accepts reports whether the literal-only concatenation of frags begins with
// a keyword. Placeholders are skipped, so only the first contributing
// literal text decides.
func (c *Classifier) Accepts(frags []Fragment) bool {
	var b strings.Builder
	for _, f := range frags {
		if !f.Literal {
			continue
		}
		b.WriteString(f.Text)
		// enough text to see the leading word
		if strings.TrimLeftFunc(b.String(), unicode.IsSpace) != "" && b.Len() > 64 {
			break
		}
	}
	return c.AcceptsText(b.String())
}

// AcceptsText applies the keyword test to plain text.
func (c *Classifier) AcceptsText(text string) bool {
	word := LeadingWord(text)
	if word == "" {
		return false
	}
	_, ok := c.keywords[strings.ToUpper(word)]
	return ok
}

// LeadingWord returns the run of letters after leading whitespace.
func LeadingWord(text string) string {
	text = strings.TrimLeftFunc(text, unicode.IsSpace)
	end := strings.IndexFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
	if end < 0 {
		return text
	}
	return text[:end]
}

// Render reconstructs the statement text, marking placeholders as ${ref}.
func Render(frags []Fragment) string {
	var b strings.Builder
	for _, f := range frags {
		if f.Literal {
			b.WriteString(f.Text)
			continue
		}
		b.WriteString("${")
		b.WriteString(f.Text)
		b.WriteString("}")
	}
	return b.String()
}

// HasLiteral reports whether any fragment carries literal text.
func HasLiteral(frags []Fragment) bool {
	for _, f := range frags {
		if f.Literal {
			return true
		}
	}
	return false
}
