package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind classifies a token.
type Kind int

const (
	Other Kind = iota // whitespace, numbers, character literals, anything unclassified
	StringLiteral
	LineComment
	BlockComment
	Identifier
	Operator
	Punctuation
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "Other"
	case StringLiteral:
		return "StringLiteral"
	case LineComment:
		return "LineComment"
	case BlockComment:
		return "BlockComment"
	case Identifier:
		return "Identifier"
	case Operator:
		return "Operator"
	case Punctuation:
		return "Punctuation"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Token is one lexeme with its exact source text and 1-based line span.
type Token struct {
	Kind      Kind
	Text      string
	StartLine int
	EndLine   int
}

// Is reports whether the token has the given kind and text.
func (t Token) Is(kind Kind, text string) bool {
	return t.Kind == kind && t.Text == text
}

// IsComment reports whether the token is a line or block comment.
func (t Token) IsComment() bool {
	return t.Kind == LineComment || t.Kind == BlockComment
}

// IsSpace reports whether the token is a whitespace run.
func (t Token) IsSpace() bool {
	return t.Kind == Other && strings.TrimSpace(t.Text) == ""
}

// Value returns the content of a string literal with escapes resolved.
// Text blocks have their opening line break and incidental indentation removed.
// For other kinds Value returns Text unchanged.
func (t Token) Value() string {
	if t.Kind != StringLiteral {
		return t.Text
	}
	if strings.HasPrefix(t.Text, `"""`) && len(t.Text) >= 6 {
		return unescape(stripIndent(t.Text[3 : len(t.Text)-3]))
	}
	if len(t.Text) >= 2 {
		return unescape(t.Text[1 : len(t.Text)-1])
	}
	return ""
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d-%d", t.Kind, t.Text, t.StartLine, t.EndLine)
}

// Significant drops comments and whitespace, keeping program order.
func Significant(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens)/2)
	for _, tok := range tokens {
		if tok.IsComment() || tok.IsSpace() {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func stripIndent(body string) string {
	if i := strings.IndexByte(body, '\n'); i >= 0 && strings.TrimSpace(body[:i]) == "" {
		body = body[i+1:]
	}
	lines := strings.Split(body, "\n")

	indent := -1
	for i, line := range lines {
		// the closing delimiter line counts even when blank
		if strings.TrimSpace(line) == "" && i != len(lines)-1 {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return body
	}

	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = strings.TrimRight(line[indent:], " \t")
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 's':
			b.WriteByte(' ')
		case '\n':
			// line continuation inside a text block
		case 'u':
			j := i
			for j < len(s) && s[j] == 'u' {
				j++
			}
			if j+4 <= len(s) {
				if r, err := strconv.ParseUint(s[j:j+4], 16, 32); err == nil {
					var buf [utf8.UTFMax]byte
					n := utf8.EncodeRune(buf[:], rune(r))
					b.Write(buf[:n])
					i = j + 3
					continue
				}
			}
			b.WriteString(`\u`)
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(s) && j < i+3 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i:j], 8, 16)
			b.WriteRune(rune(v))
			i = j - 1
		default:
			b.WriteByte(e)
		}
	}
	return b.String()
}
