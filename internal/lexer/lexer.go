package lexer

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

// LexError reports source text that cannot be tokenized.
type LexError struct {
	Line   int
	Reason string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *LexError) Unwrap() error {
	return sqlscan.ErrLex
}

// Lexer converts Java source text into line-tagged tokens.
type Lexer interface {
	Tokenize(src string) ([]Token, error)
}

// javaLexer implements Lexer using a state machine.
type javaLexer struct{}

// New creates a new Lexer instance.
func New() Lexer {
	return &javaLexer{}
}

// Tokenize is a convenience wrapper around New().Tokenize.
func Tokenize(src string) ([]Token, error) {
	return New().Tokenize(src)
}

// lexState represents the current state of the lexer.
type lexState int

const (
	stateCode lexState = iota
	stateLineComment
	stateBlockComment
	stateString
)

// operators ordered longest first for maximal munch.
var operators = []string{
	">>>=", "<<=", ">>=", ">>>",
	"==", "!=", "<=", ">=", "&&", "||", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "->", "<<", ">>",
	"+", "-", "*", "/", "%", "=", "!", "<", ">", "&", "|", "^", "~",
}

// Tokenize splits src into tokens covering every character exactly once.
// Handles:
// - Line comments: // to end of line
// - Block comments: /* */ spanning lines (Java block comments do not nest)
// - String literals: "..." with backslash escapes, never spanning a raw newline
// - Text blocks: """...""" spanning lines
// - Character literals: '...' lexed as Other so their quotes stay inert
func (l *javaLexer) Tokenize(src string) ([]Token, error) {
	if len(src) == 0 {
		return nil, nil
	}

	runes := []rune(src)
	tokens := make([]Token, 0, len(runes)/4)

	state := stateCode
	textBlock := false
	start := 0
	line := 1

	emit := func(kind Kind, end int) {
		text := string(runes[start:end])
		startLine := line
		endLine := startLine + strings.Count(strings.TrimSuffix(text, "\n"), "\n")
		tokens = append(tokens, Token{Kind: kind, Text: text, StartLine: startLine, EndLine: endLine})
		line += strings.Count(text, "\n")
		start = end
	}

	i := 0
	for i < len(runes) {
		r := runes[i]
		var next rune
		if i+1 < len(runes) {
			next = runes[i+1]
		}

		switch state {
		case stateCode:
			switch {
			case r == '/' && next == '/':
				state = stateLineComment
				i += 2
			case r == '/' && next == '*':
				state = stateBlockComment
				i += 2
			case r == '"':
				state = stateString
				textBlock = hasPrefix(runes, i, `"""`)
				if textBlock {
					i += 3
				} else {
					i++
				}
			case r == '\'':
				i = scanCharLiteral(runes, i)
				emit(Other, i)
			case unicode.IsSpace(r):
				for i < len(runes) && unicode.IsSpace(runes[i]) {
					i++
				}
				emit(Other, i)
			case isIdentStart(r):
				for i < len(runes) && isIdentPart(runes[i]) {
					i++
				}
				emit(Identifier, i)
			case unicode.IsDigit(r):
				i = scanNumber(runes, i)
				emit(Other, i)
			case r == '.' && hasPrefix(runes, i, "..."):
				i += 3
				emit(Punctuation, i)
			case r == ':' && next == ':':
				i += 2
				emit(Punctuation, i)
			case strings.ContainsRune("(){}[];,.@?:", r):
				i++
				emit(Punctuation, i)
			default:
				if op := matchOperator(runes, i); op > 0 {
					i += op
					emit(Operator, i)
				} else {
					i++
					emit(Other, i)
				}
			}

		case stateLineComment:
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			emit(LineComment, i)
			state = stateCode

		case stateBlockComment:
			if r == '*' && next == '/' {
				i += 2
				emit(BlockComment, i)
				state = stateCode
			} else {
				i++
			}

		case stateString:
			switch {
			case r == '\\':
				if !textBlock && next == '\n' {
					return nil, &LexError{Line: line, Reason: "unterminated string literal"}
				}
				i += 2
			case textBlock && hasPrefix(runes, i, `"""`):
				i += 3
				emit(StringLiteral, i)
				state = stateCode
			case !textBlock && r == '"':
				i++
				emit(StringLiteral, i)
				state = stateCode
			case !textBlock && r == '\n':
				return nil, &LexError{Line: line, Reason: "unterminated string literal"}
			default:
				i++
			}
		}
	}

	switch state {
	case stateBlockComment:
		return nil, &LexError{Line: line, Reason: "unterminated block comment"}
	case stateString:
		if textBlock {
			return nil, &LexError{Line: line, Reason: "unterminated text block"}
		}
		return nil, &LexError{Line: line, Reason: "unterminated string literal"}
	case stateLineComment:
		// comment runs to end of input
		emit(LineComment, len(runes))
	}

	return tokens, nil
}

func hasPrefix(runes []rune, i int, prefix string) bool {
	for _, p := range prefix {
		if i >= len(runes) || runes[i] != p {
			return false
		}
		i++
	}
	return true
}

func matchOperator(runes []rune, i int) int {
	for _, op := range operators {
		if hasPrefix(runes, i, op) {
			return len(op)
		}
	}
	return 0
}

// scanCharLiteral returns the index after a character literal starting at i.
// A literal broken by a newline ends before the newline.
func scanCharLiteral(runes []rune, i int) int {
	j := i + 1
	for j < len(runes) && runes[j] != '\n' {
		switch runes[j] {
		case '\\':
			j += 2
			continue
		case '\'':
			return j + 1
		}
		j++
	}
	if j > len(runes) {
		return len(runes)
	}
	return j
}

func scanNumber(runes []rune, i int) int {
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsDigit(r) || unicode.IsLetter(r) || r == '_':
			i++
		case r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1]):
			i++
		default:
			return i
		}
	}
	return i
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '$'
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
