package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/sqlscan/internal/lexer"
)

func significant(t *testing.T, src string) []lexer.Token {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	require.NoError(t, err)
	return lexer.Significant(toks)
}

func scopeNames(scopes []Scope) []string {
	names := make([]string, len(scopes))
	for i, s := range scopes {
		names[i] = s.Kind.String() + ":" + s.Name
	}
	return names
}

func TestSplitScopes_MethodsAndFields(t *testing.T) {
	src := `package demo;

import java.sql.*;

public class UserDao {
    private static final String TABLE = "users";

    public UserDao() {
        init();
    }

    public List<User> findAll(Connection c) throws SQLException {
        return null;
    }

    static {
        load();
    }
}
`
	scopes := SplitScopes(significant(t, src))

	assert.Equal(t, []string{
		"method:UserDao.UserDao",
		"method:UserDao.findAll",
		"initializer:UserDao.<clinit>",
		"fields:UserDao",
		"fields:",
	}, scopeNames(scopes))
}

func TestSplitScopes_FieldScopeCarriesFieldsAndHeaders(t *testing.T) {
	src := `class A {
    String q = "SELECT 1";
    @Query("SELECT 2")
    void run(String arg) { go(); }
}`
	scopes := SplitScopes(significant(t, src))
	require.Len(t, scopes, 3)

	fields := scopes[1]
	assert.Equal(t, ScopeFields, fields.Kind)
	assert.Equal(t, "A", fields.Name)

	var texts []string
	for _, tok := range fields.Tokens {
		texts = append(texts, tok.Text)
	}
	assert.Contains(t, texts, `"SELECT 1"`)
	assert.Contains(t, texts, `"SELECT 2"`)
	assert.Contains(t, texts, "arg")
	assert.NotContains(t, texts, "go")
}

func TestSplitScopes_NestedTypes(t *testing.T) {
	src := `class Outer {
    static class Inner {
        void a() { x(); }
    }
    void b() {
        Runnable r = new Runnable() { public void run() { y(); } };
    }
}`
	scopes := SplitScopes(significant(t, src))

	assert.Equal(t, []string{
		"method:Outer.Inner.a",
		"fields:Outer.Inner",
		"method:Outer.b",
		"fields:Outer",
		"fields:",
	}, scopeNames(scopes))

	// anonymous classes stay in the enclosing method
	var texts []string
	for _, tok := range scopes[2].Tokens {
		texts = append(texts, tok.Text)
	}
	assert.Contains(t, texts, "y")
}

func TestSplitScopes_FieldInitializerBlockSkipped(t *testing.T) {
	src := `class A {
    int[] xs = { 1, 2 };
    void m() {}
}`
	scopes := SplitScopes(significant(t, src))
	assert.Equal(t, []string{"method:A.m", "fields:A", "fields:"}, scopeNames(scopes))
}

func TestSplitScopes_Unbalanced(t *testing.T) {
	src := `class A {
    void m() {
        String s = "SELECT 1";
`
	scopes := SplitScopes(significant(t, src))
	require.NotEmpty(t, scopes)
	assert.Equal(t, "A.m", scopes[0].Name)
}

func TestSplitScopes_Empty(t *testing.T) {
	assert.Empty(t, SplitScopes(nil))
}
