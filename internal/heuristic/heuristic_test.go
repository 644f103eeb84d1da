package heuristic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_AcceptsText(t *testing.T) {
	c := Default()

	tests := []struct {
		text string
		want bool
	}{
		{"SELECT * FROM users", true},
		{"select * from CUSTOMERS", true},
		{"   \n\tINSERT INTO t VALUES (1)", true},
		{"UPDATE users SET a = 1", true},
		{"delete from t", true},
		{"WITH x AS (SELECT 1) SELECT * FROM x", true},
		{"CALL proc()", true},
		{"EXEC sp_who", true},
		{"MERGE INTO t", true},
		{"TRUNCATE TABLE t", true},
		{"SELECT*FROM t", true},
		{"WHERE p.price > 50", false},
		{"price > 100", false},
		{"Selection of items", false},
		{"products", false},
		{"(SELECT 1)", false},
		{"", false},
		{"   ", false},
		{"Creating user failed, no rows affected.", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, c.AcceptsText(tt.text))
		})
	}
}

func TestClassifier_AcceptsUsesLiteralsOnly(t *testing.T) {
	c := Default()

	assert.True(t, c.Accepts([]Fragment{Opaque("prefix", 1), Lit("SELECT a ", 1), Opaque("cols", 2)}))
	assert.False(t, c.Accepts([]Fragment{Lit(" FROM t", 1), Lit("SELECT", 2)}))
	assert.True(t, c.Accepts([]Fragment{Lit("  ", 1), Lit("sel", 1), Lit("ect 1", 2)}))
	assert.False(t, c.Accepts([]Fragment{Opaque("userSql", 1)}))
	assert.False(t, c.Accepts(nil))
}

func TestNewClassifier(t *testing.T) {
	c, err := NewClassifier([]string{"upsert", " Select "})
	require.NoError(t, err)
	assert.Equal(t, []string{"SELECT", "UPSERT"}, c.Keywords())
	assert.True(t, c.AcceptsText("Upsert into t"))
	assert.False(t, c.AcceptsText("DELETE FROM t"))

	_, err = NewClassifier(nil)
	assert.Error(t, err)

	_, err = NewClassifier([]string{"SELECT*"})
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	frags := []Fragment{Lit("SELECT * FROM ", 1), Opaque("table", 1), Lit(" WHERE id = ", 2), Opaque("id", 2)}
	assert.Equal(t, "SELECT * FROM ${table} WHERE id = ${id}", Render(frags))
	assert.True(t, HasLiteral(frags))
	assert.False(t, HasLiteral([]Fragment{Opaque("x", 1)}))
}

func TestLeadingWord(t *testing.T) {
	assert.Equal(t, "SELECT", LeadingWord("  SELECT 1"))
	assert.Equal(t, "abc", LeadingWord("abc"))
	assert.Equal(t, "", LeadingWord("1abc"))
}
