package flow

import (
	"github.com/vvka-141/sqlscan/internal/lexer"
)

// ScopeKind distinguishes the bodies a file is split into.
type ScopeKind int

const (
	ScopeMethod      ScopeKind = iota // method or constructor body
	ScopeInitializer                  // static or instance initializer block
	ScopeFields                       // field declarations and member headers of one class body
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeMethod:
		return "method"
	case ScopeInitializer:
		return "initializer"
	case ScopeFields:
		return "fields"
	default:
		return "scope"
	}
}

// Scope is the unit of variable tracking. Tokens are significant tokens only
// (no comments or whitespace), without the enclosing braces.
type Scope struct {
	Kind   ScopeKind
	Name   string // Class.method, Class.<init>, Class
	Tokens []lexer.Token
}

// SplitScopes partitions significant tokens into scopes. Nested and local
// type declarations inside a method stay in the method's scope; member types
// get their own scopes. Unbalanced input is tolerated: an unclosed body runs
// to the end of the tokens.
func SplitScopes(tokens []lexer.Token) []Scope {
	s := &splitter{toks: tokens}
	s.classBody(0, "")
	return s.scopes
}

type splitter struct {
	toks   []lexer.Token
	scopes []Scope
}

// classBody consumes a class body starting at i (after its '{') and returns
// the index after the closing '}'.
func (s *splitter) classBody(i int, class string) int {
	fields := Scope{Kind: ScopeFields, Name: class}
	flush := func() {
		if len(fields.Tokens) > 0 {
			s.scopes = append(s.scopes, fields)
		}
	}

	headerStart := i
	depth := 0
	for i < len(s.toks) {
		t := s.toks[i]
		switch {
		case isPunct(t, "(") || isPunct(t, "["):
			depth++
			i++
		case isPunct(t, ")") || isPunct(t, "]"):
			depth--
			i++
		case depth > 0:
			i++
		case isPunct(t, ";"):
			fields.Tokens = append(fields.Tokens, s.toks[headerStart:i+1]...)
			i++
			headerStart = i
		case isPunct(t, "}"):
			fields.Tokens = append(fields.Tokens, s.toks[headerStart:i]...)
			flush()
			return i + 1
		case isPunct(t, "{"):
			header := s.toks[headerStart:i]
			switch {
			case typeName(header) != "":
				nested := typeName(header)
				if class != "" {
					nested = class + "." + nested
				}
				fields.Tokens = append(fields.Tokens, header...)
				i = s.classBody(i+1, nested)
				headerStart = i
			case hasAssign(header):
				// array initializer, lambda or anonymous class in a field
				i = s.matchBrace(i) + 1
			default:
				end := s.matchBrace(i)
				kind, name := memberName(header)
				if class != "" {
					name = class + "." + name
				}
				fields.Tokens = append(fields.Tokens, header...)
				s.scopes = append(s.scopes, Scope{Kind: kind, Name: name, Tokens: s.toks[i+1 : end]})
				i = end + 1
				headerStart = i
			}
		default:
			i++
		}
	}

	if headerStart < len(s.toks) {
		fields.Tokens = append(fields.Tokens, s.toks[headerStart:]...)
	}
	flush()
	return len(s.toks)
}

// matchBrace returns the index of the '}' closing the '{' at i, or the last
// index when the body is unclosed.
func (s *splitter) matchBrace(i int) int {
	depth := 0
	for j := i; j < len(s.toks); j++ {
		switch {
		case isPunct(s.toks[j], "{"):
			depth++
		case isPunct(s.toks[j], "}"):
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(s.toks)
}

func typeName(header []lexer.Token) string {
	for i, t := range header {
		if !isIdent(t) || !typeWords[t.Text] {
			continue
		}
		if i > 0 && isPunct(header[i-1], ".") {
			continue // Foo.class
		}
		if i+1 < len(header) && isIdent(header[i+1]) {
			return header[i+1].Text
		}
	}
	return ""
}

func hasAssign(header []lexer.Token) bool {
	depth := 0
	for _, t := range header {
		switch {
		case isOpen(t):
			depth++
		case isClose(t):
			depth--
		case depth == 0 && isOp(t, "="):
			return true
		}
	}
	return false
}

// memberName finds the method or constructor name: the identifier before the
// first top-level '(' that does not belong to an annotation.
func memberName(header []lexer.Token) (ScopeKind, string) {
	depth := 0
	for i, t := range header {
		switch {
		case isPunct(t, "("):
			if depth == 0 && i > 0 && isIdent(header[i-1]) && (i < 2 || !isPunct(header[i-2], "@")) {
				return ScopeMethod, header[i-1].Text
			}
			depth++
		case isPunct(t, ")"):
			depth--
		}
	}
	for _, t := range header {
		if isIdent(t) && t.Text == "static" {
			return ScopeInitializer, "<clinit>"
		}
	}
	return ScopeInitializer, "<init>"
}
