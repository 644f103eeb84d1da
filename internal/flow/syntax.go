package flow

import (
	"strings"

	"github.com/vvka-141/sqlscan/internal/lexer"
)

func isPunct(t lexer.Token, s string) bool {
	return t.Kind == lexer.Punctuation && t.Text == s
}

func isOp(t lexer.Token, s string) bool {
	return t.Kind == lexer.Operator && t.Text == s
}

func isIdent(t lexer.Token) bool {
	return t.Kind == lexer.Identifier
}

func isOpen(t lexer.Token) bool {
	return t.Kind == lexer.Punctuation && (t.Text == "(" || t.Text == "[" || t.Text == "{")
}

func isClose(t lexer.Token) bool {
	return t.Kind == lexer.Punctuation && (t.Text == ")" || t.Text == "]" || t.Text == "}")
}

// keywords are reserved words that never name a variable.
var keywords = toSet(
	"abstract", "assert", "boolean", "break", "byte", "case", "catch", "char",
	"class", "const", "continue", "default", "do", "double", "else", "enum",
	"extends", "final", "finally", "float", "for", "goto", "if", "implements",
	"import", "instanceof", "int", "interface", "long", "native", "new",
	"package", "private", "protected", "public", "return", "short", "static",
	"strictfp", "super", "switch", "synchronized", "this", "throw", "throws",
	"transient", "try", "void", "volatile", "while", "true", "false", "null",
	"yield",
)

// notType are words that may start a statement but never a declaration type.
var notType = toSet(
	"assert", "break", "case", "catch", "class", "continue", "default", "do",
	"else", "enum", "extends", "finally", "for", "goto", "if", "implements",
	"import", "instanceof", "interface", "new", "package", "return", "super",
	"switch", "synchronized", "this", "throw", "throws", "try", "while",
	"yield", "true", "false", "null", "final", "static", "private", "public",
	"protected", "abstract", "native", "transient", "volatile", "strictfp",
)

// notCall are words followed by '(' that open a statement, not a call.
var notCall = toSet(
	"if", "for", "while", "switch", "catch", "synchronized", "return", "try",
	"assert", "throw", "yield", "case",
)

// typeWords open a nested type declaration.
var typeWords = toSet("class", "interface", "enum", "record")

// stringMethods return a value derived from their receiver's text.
var stringMethods = toSet(
	"formatted", "trim", "strip", "stripIndent", "stripLeading", "stripTrailing",
	"toUpperCase", "toLowerCase", "intern", "replace", "replaceAll",
	"replaceFirst", "concat", "translateEscapes",
)

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// isTerminator reports whether t ends a concatenation at depth zero.
func isTerminator(t lexer.Token) bool {
	switch t.Kind {
	case lexer.Punctuation:
		switch t.Text {
		case ";", ",", "?", ":":
			return true
		}
	case lexer.Operator:
		switch t.Text {
		case "+", "-", "*", "/", "%", "++", "--", "!", "~":
			return false
		}
		return true
	case lexer.Identifier:
		return t.Text == "instanceof"
	}
	return false
}

// compact renders tokens for placeholder names.
func compact(toks []lexer.Token) string {
	const limit = 60

	var b strings.Builder
	for i, t := range toks {
		if i > 0 && wordy(toks[i-1]) && wordy(t) {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
		if b.Len() > limit {
			r := []rune(b.String())
			if len(r) > limit {
				r = r[:limit]
			}
			return string(r) + "..."
		}
	}
	return b.String()
}

func wordy(t lexer.Token) bool {
	return t.Kind == lexer.Identifier || t.Kind == lexer.StringLiteral || t.Kind == lexer.Other
}

// literalValue returns the text of a char or numeric literal token.
func literalValue(t lexer.Token) (string, bool) {
	if t.Kind != lexer.Other || t.Text == "" {
		return "", false
	}
	switch c := t.Text[0]; {
	case c == '\'' && len(t.Text) >= 2 && strings.HasSuffix(t.Text, "'"):
		return lexer.Token{Kind: lexer.StringLiteral, Text: t.Text}.Value(), true
	case c >= '0' && c <= '9':
		return strings.TrimRight(t.Text, "lL"), true
	}
	return "", false
}
