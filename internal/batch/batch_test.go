package batch

import (
	"testing"

	"github.com/orneryd/cybolt/internal/statement"
	"github.com/stretchr/testify/require"
)

func stmt(q string, bucket statement.Bucket) statement.Statement {
	f := statement.Features{}
	switch bucket {
	case statement.BucketPre:
		f.HasCreateIndex = true
	case statement.BucketVertex:
		f.HasCreate = true
	case statement.BucketEdge:
		f.HasCreate = true
		f.HasMatch = true
	}
	return statement.Statement{Query: q, Features: f}
}

func TestBatch_RecordFailureDoublesAndClamps(t *testing.T) {
	b := New(10, 0)
	require.Equal(t, 1, b.BackoffMs)

	for want := []int{2, 4, 8, 16, 32, 64}; len(want) > 0; want = want[1:] {
		b.RecordFailure()
		require.Equal(t, want[0], b.BackoffMs)
	}
	b.RecordFailure() // 64*2=128 > 100 -> recycle to 1
	require.Equal(t, 1, b.BackoffMs)
	require.Equal(t, 7, b.Attempts)
}

func TestBatch_FullAtCapacity(t *testing.T) {
	b := New(2, 0)
	require.False(t, b.Full())
	b.Append(stmt("a", statement.BucketVertex))
	require.False(t, b.Full())
	b.Append(stmt("b", statement.BucketVertex))
	require.True(t, b.Full())
}

func TestGrouper_SealsVertexBatchesAtCapacity(t *testing.T) {
	g := NewGrouper(2)
	g.Add(stmt("v1", statement.BucketVertex))
	g.Add(stmt("v2", statement.BucketVertex))
	g.Add(stmt("v3", statement.BucketVertex))
	set := g.Finish()

	require.Len(t, set.Vertex, 2)
	require.Len(t, set.Vertex[0].Queries, 2)
	require.Len(t, set.Vertex[1].Queries, 1)
	require.Equal(t, 0, set.Vertex[0].Index)
	require.Equal(t, 1, set.Vertex[1].Index)
}

func TestGrouper_PreAndPostAreSingletons(t *testing.T) {
	g := NewGrouper(100)
	g.Add(stmt("CREATE INDEX", statement.BucketPre))
	g.Add(stmt("CREATE INDEX 2", statement.BucketPre))
	g.Add(stmt("RETURN 1", statement.Bucket(3)))
	set := g.Finish()

	require.Len(t, set.Pre, 2)
	require.Equal(t, 1, set.Pre[0].Capacity)
	require.Equal(t, 1, set.Pre[1].Capacity)
	require.Len(t, set.Post, 1)
}

func TestGrouper_PreservesArrivalOrderWithinBucket(t *testing.T) {
	g := NewGrouper(1)
	g.Add(stmt("v1", statement.BucketVertex))
	g.Add(stmt("v2", statement.BucketVertex))
	g.Add(stmt("v3", statement.BucketVertex))
	set := g.Finish()

	require.Len(t, set.Vertex, 3)
	var order []string
	for _, b := range set.Vertex {
		for _, q := range b.Queries {
			order = append(order, q.Query)
		}
	}
	require.Equal(t, []string{"v1", "v2", "v3"}, order)
}

func TestGrouper_EmptyOpenBatchNotAppendedAtFinish(t *testing.T) {
	g := NewGrouper(10)
	set := g.Finish()
	require.Empty(t, set.Vertex)
	require.Empty(t, set.Edge)
}

func TestSet_TotalStatements(t *testing.T) {
	g := NewGrouper(2)
	g.Add(stmt("v1", statement.BucketVertex))
	g.Add(stmt("e1", statement.BucketEdge))
	g.Add(stmt("p1", statement.BucketPre))
	set := g.Finish()
	require.Equal(t, 3, set.TotalStatements())
}
