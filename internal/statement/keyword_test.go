package statement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTopLevelKeywordCount_CountsOutsideNesting(t *testing.T) {
	require.Equal(t, 0, TopLevelKeywordCount("CREATE (n:Person {name: 'MATCH'})", "MATCH"))
	require.Equal(t, 1, TopLevelKeywordCount("MATCH (n) RETURN n", "MATCH"))
}

func TestTopLevelKeywordCount_SkipsComments(t *testing.T) {
	require.Equal(t, 0, TopLevelKeywordCount("// MATCH (n) RETURN n\nCREATE (n)", "MATCH"))
}

func TestTopLevelKeywordCount_RequiresWordBoundary(t *testing.T) {
	require.Equal(t, 0, TopLevelKeywordCount("CREATE (n:MATCHED)", "MATCH"))
}

func TestTopLevelKeywordCount_CaseInsensitive(t *testing.T) {
	require.Equal(t, 1, TopLevelKeywordCount("match (n) return n", "MATCH"))
}

func TestTopLevelKeywordCount_CountsMultipleOccurrences(t *testing.T) {
	require.Equal(t, 2, TopLevelKeywordCount("MATCH (a) MATCH (b) RETURN a, b", "MATCH"))
}
