package lexer

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sqlscan/pkg/sqlscan"
)

func kindsAndTexts(tokens []Token) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range Significant(tokens) {
		out = append(out, t.Kind.String()+":"+t.Text)
	}
	return out
}

func TestTokenize_CoversEveryCharacter(t *testing.T) {
	inputs := []string{
		"class A { String s = \"x\"; }",
		"/* a\n b */ int x = 1; // tail",
		"String q = \"SELECT \\\"quoted\\\" FROM t\";\n\n",
		"char c = '\"'; String s = \"//not a comment\";",
		"String tb = \"\"\"\n    SELECT *\n    FROM t\n    \"\"\";",
	}

	for _, in := range inputs {
		tokens, err := Tokenize(in)
		require.NoError(t, err, in)

		var b strings.Builder
		for _, tok := range tokens {
			b.WriteString(tok.Text)
		}
		assert.Equal(t, in, b.String())
	}
}

func TestTokenize_Kinds(t *testing.T) {
	tokens, err := Tokenize(`sb.append("a" + x) += 1;`)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Identifier:sb", "Punctuation:.", "Identifier:append", "Punctuation:(",
		`StringLiteral:"a"`, "Operator:+", "Identifier:x", "Punctuation:)",
		"Operator:+=", "Other:1", "Punctuation:;",
	}, kindsAndTexts(tokens))
}

func TestTokenize_Comments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kinds []Kind
	}{
		{"line comment", "// SELECT * FROM users", []Kind{LineComment}},
		{"block comment", "/* SELECT 1 */", []Kind{BlockComment}},
		{"javadoc", "/** doc */", []Kind{BlockComment}},
		{"quote inside comment is inert", `// say "hi`, []Kind{LineComment}},
		{"comment marker inside string is inert", `"/* not */ // not"`, []Kind{StringLiteral}},
		{"star slash without opener", "a */ b", []Kind{Identifier, Operator, Operator, Identifier}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			require.NoError(t, err)

			var kinds []Kind
			for _, tok := range tokens {
				if !tok.IsSpace() {
					kinds = append(kinds, tok.Kind)
				}
			}
			assert.Equal(t, tt.kinds, kinds)
		})
	}
}

func TestTokenize_BlockCommentResumesCodeOnSameLine(t *testing.T) {
	src := "int a;\n/* This is a comment */String mixedCase = \"select * from CUSTOMERS\";\n"
	tokens, err := Tokenize(src)
	require.NoError(t, err)

	var comment, literal Token
	for _, tok := range tokens {
		switch tok.Kind {
		case BlockComment:
			comment = tok
		case StringLiteral:
			literal = tok
		}
	}

	assert.Equal(t, 2, comment.StartLine)
	assert.Equal(t, 2, comment.EndLine)
	assert.Equal(t, `"select * from CUSTOMERS"`, literal.Text)
	assert.Equal(t, 2, literal.StartLine)

	sig := Significant(tokens)
	assert.Equal(t, "String", sig[3].Text)
	assert.Equal(t, 2, sig[3].StartLine)
}

func TestTokenize_LineNumbers(t *testing.T) {
	src := "a\n/* one\ntwo\nthree */ b\n\n\"c\""
	tokens, err := Tokenize(src)
	require.NoError(t, err)

	got := map[string][2]int{}
	for _, tok := range tokens {
		if tok.IsSpace() {
			continue
		}
		got[tok.Text] = [2]int{tok.StartLine, tok.EndLine}
	}

	assert.Equal(t, [2]int{1, 1}, got["a"])
	assert.Equal(t, [2]int{2, 4}, got["/* one\ntwo\nthree */"])
	assert.Equal(t, [2]int{4, 4}, got["b"])
	assert.Equal(t, [2]int{6, 6}, got[`"c"`])
}

func TestTokenize_Escapes(t *testing.T) {
	tokens, err := Tokenize(`"a\"b\\" + "c"`)
	require.NoError(t, err)

	sig := Significant(tokens)
	require.Len(t, sig, 3)
	assert.Equal(t, `"a\"b\\"`, sig[0].Text)
	assert.Equal(t, `a"b\`, sig[0].Value())
	assert.Equal(t, "c", sig[2].Value())
}

func TestTokenize_CharLiterals(t *testing.T) {
	tokens, err := Tokenize(`x = '\'' + '"' + "s";`)
	require.NoError(t, err)

	var literals []string
	for _, tok := range tokens {
		if tok.Kind == StringLiteral {
			literals = append(literals, tok.Text)
		}
	}
	assert.Equal(t, []string{`"s"`}, literals)
}

func TestTokenize_TextBlock(t *testing.T) {
	src := "String q = \"\"\"\n    SELECT id\n      FROM users\n    \"\"\";\nint x;"
	tokens, err := Tokenize(src)
	require.NoError(t, err)

	var block Token
	for _, tok := range tokens {
		if tok.Kind == StringLiteral {
			block = tok
		}
	}
	assert.Equal(t, 1, block.StartLine)
	assert.Equal(t, 4, block.EndLine)
	assert.Equal(t, "SELECT id\n  FROM users\n", block.Value())

	last := tokens[len(tokens)-2]
	assert.Equal(t, "x", last.Text)
	assert.Equal(t, 5, last.StartLine)
}

func TestTokenize_Operators(t *testing.T) {
	tokens, err := Tokenize("a>>>=b->c!=d<=e")
	require.NoError(t, err)

	var ops []string
	for _, tok := range tokens {
		if tok.Kind == Operator {
			ops = append(ops, tok.Text)
		}
	}
	assert.Equal(t, []string{">>>=", "->", "!=", "<="}, ops)
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		line   int
		reason string
	}{
		{"unterminated string", "int a;\nString s = \"SELECT\n;", 2, "unterminated string literal"},
		{"unterminated string at eof", `"abc`, 1, "unterminated string literal"},
		{"escaped newline", "\"abc\\\n\"", 1, "unterminated string literal"},
		{"unterminated block comment", "a\nb /* never\nclosed", 2, "unterminated block comment"},
		{"unterminated text block", "\"\"\"\nSELECT", 1, "unterminated text block"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, sqlscan.ErrLex))

			var lexErr *LexError
			require.ErrorAs(t, err, &lexErr)
			assert.Equal(t, tt.line, lexErr.Line)
			assert.Equal(t, tt.reason, lexErr.Reason)
		})
	}
}

func TestTokenize_Empty(t *testing.T) {
	tokens, err := Tokenize("")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestTokenize_TrailingLineComment(t *testing.T) {
	tokens, err := Tokenize("x; // end")
	require.NoError(t, err)
	last := tokens[len(tokens)-1]
	assert.Equal(t, LineComment, last.Kind)
	assert.Equal(t, "// end", last.Text)
}

func TestValue_UnicodeAndOctal(t *testing.T) {
	tok := Token{Kind: StringLiteral, Text: `"A\101\tz\u0042"`}
	assert.Equal(t, "AA\tzB", tok.Value())
}
