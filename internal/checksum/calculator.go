package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
)

// Calculator is an interface for computing content checksums.
type Calculator interface {
	// CalculateRaw computes a checksum of the raw, unmodified content.
	CalculateRaw(content []byte) string

	// CalculateNormalized computes a checksum of normalized content.
	// Normalization makes checksums resilient to formatting changes.
	CalculateNormalized(content []byte) string
}

// SHA256 implements checksum calculation using SHA-256.
// Normalization:
//  1. Remove Java comments (// and /* */) while preserving string literals
//  2. Collapse whitespace to single spaces
//  3. Trim leading and trailing whitespace
//
// Case is preserved: identifiers and string contents are case-sensitive.
//
// SHA256 is a zero-size type and is safe for concurrent use by multiple goroutines.
type SHA256 struct{}

// New creates a new SHA-256 based calculator.
func New() SHA256 {
	return SHA256{}
}

// CalculateRaw computes SHA-256 of raw content.
func (c SHA256) CalculateRaw(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// CalculateNormalized computes SHA-256 of normalized content.
func (c SHA256) CalculateNormalized(content []byte) string {
	normalized := c.normalize(string(content))
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:])
}

func (c SHA256) normalize(content string) string {
	cleaned := c.removeComments(content)

	var b strings.Builder
	b.Grow(len(cleaned))

	lastWasSpace := false
	for _, r := range cleaned {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				b.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			b.WriteRune(r)
			lastWasSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}

type commentState int

const (
	csNormal commentState = iota
	csLineComment
	csBlockComment
	csString
	csChar
)

// removeComments removes Java comments while preserving string and character
// literals. Text blocks are handled as a run of ordinary strings, which keeps
// their content intact.
func (c SHA256) removeComments(content string) string {
	var b strings.Builder
	b.Grow(len(content))

	state := csNormal
	i := 0

	for i < len(content) {
		ch := content[i]
		var next byte
		if i+1 < len(content) {
			next = content[i+1]
		}

		switch state {
		case csNormal:
			switch {
			case ch == '/' && next == '/':
				state = csLineComment
				b.WriteByte(' ')
				i += 2
			case ch == '/' && next == '*':
				state = csBlockComment
				b.WriteByte(' ')
				i += 2
			case ch == '"':
				state = csString
				b.WriteByte(ch)
				i++
			case ch == '\'':
				state = csChar
				b.WriteByte(ch)
				i++
			default:
				b.WriteByte(ch)
				i++
			}

		case csLineComment:
			if ch == '\n' {
				b.WriteByte(ch)
				state = csNormal
			}
			i++

		case csBlockComment:
			if ch == '*' && next == '/' {
				state = csNormal
				i += 2
			} else {
				i++
			}

		case csString, csChar:
			b.WriteByte(ch)
			quote := byte('"')
			if state == csChar {
				quote = '\''
			}
			switch {
			case ch == '\\' && i+1 < len(content):
				b.WriteByte(next)
				i += 2
			case ch == quote:
				state = csNormal
				i++
			default:
				i++
			}
		}
	}

	return b.String()
}
