package statement

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func collectAll(t *testing.T, input string) []Statement {
	t.Helper()
	tok := NewTokenizer(strings.NewReader(input))
	var out []Statement
	for {
		s, ok, err := tok.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, s)
	}
	return out
}

func TestTokenizer_SplitsOnUnquotedSemicolon(t *testing.T) {
	stmts := collectAll(t, "CREATE (:A {id:1}); CREATE (:A {id:2});")
	require.Len(t, stmts, 2)
	require.Equal(t, "CREATE (:A {id:1})", stmts[0].Query)
	require.Equal(t, " CREATE (:A {id:2})", stmts[1].Query)
	require.Equal(t, 0, stmts[0].Index)
	require.Equal(t, 1, stmts[1].Index)
}

func TestTokenizer_QuotedSemicolonIsNotATerminator(t *testing.T) {
	stmts := collectAll(t, `CREATE (:A {name:"a;b"});`)
	require.Len(t, stmts, 1)
	require.Equal(t, `CREATE (:A {name:"a;b"})`, stmts[0].Query)
}

func TestTokenizer_EscapedQuoteDoesNotCloseString(t *testing.T) {
	stmts := collectAll(t, `CREATE (:A {name:"a\"b"});`)
	require.Len(t, stmts, 1)
	require.True(t, stmts[0].Features.HasCreate)
}

func TestTokenizer_TrailingUnterminatedStatementIsDiscarded(t *testing.T) {
	stmts := collectAll(t, "CREATE (:A {id:1}); CREATE (:A {id:2})")
	require.Len(t, stmts, 1)
}

func TestTokenizer_LineNumberIsFirstLineOfStatement(t *testing.T) {
	stmts := collectAll(t, "CREATE (:A\n{id:1});")
	require.Len(t, stmts, 1)
	require.Equal(t, 1, stmts[0].LineNumber)
}

func TestTokenizer_LineNumberTracksAcrossPriorStatements(t *testing.T) {
	stmts := collectAll(t, "CREATE (:A {id:1});\nMATCH (n) CREATE (m);")
	require.Len(t, stmts, 2)
	require.Equal(t, 1, stmts[0].LineNumber)
	require.Equal(t, 2, stmts[1].LineNumber)
}

func TestTokenizer_LineNumberOfQuotedStatementStart(t *testing.T) {
	stmts := collectAll(t, "CREATE (:A {id:1});\n\"unterminated")
	require.Len(t, stmts, 1)

	tok := NewTokenizer(strings.NewReader("\n\n'x' CREATE (:A);"))
	s, ok, err := tok.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, s.LineNumber)
}

func TestTokenizer_EmptyInputYieldsNoStatements(t *testing.T) {
	stmts := collectAll(t, "")
	require.Empty(t, stmts)
}
