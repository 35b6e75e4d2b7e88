package batch

import "github.com/orneryd/cybolt/internal/statement"

// Grouper consumes the Tokenizer+Classifier's Statement sequence and
// assembles a Set. It keeps two open, partially filled Batches (vertex and
// edge); pre and post statements are appended as singleton one-Statement
// Batches so the Scheduler can treat all four buckets uniformly.
type Grouper struct {
	capacity int

	vertex      *Batch
	vertexIndex int
	edge        *Batch
	edgeIndex   int

	set Set
}

// NewGrouper returns a Grouper that seals vertex/edge Batches at the given
// capacity.
func NewGrouper(capacity int) *Grouper {
	g := &Grouper{capacity: capacity}
	g.vertex = New(capacity, 0)
	g.edge = New(capacity, 0)
	return g
}

// Add routes one Statement to its bucket and appends it, sealing and
// reopening the bucket's open Batch at capacity.
func (g *Grouper) Add(s statement.Statement) {
	switch s.Features.Bucket() {
	case statement.BucketPre:
		g.set.Pre = append(g.set.Pre, singleton(s, len(g.set.Pre)))
	case statement.BucketVertex:
		g.vertex.Append(s)
		if g.vertex.Full() {
			g.sealVertex()
		}
	case statement.BucketEdge:
		g.edge.Append(s)
		if g.edge.Full() {
			g.sealEdge()
		}
	default:
		g.set.Post = append(g.set.Post, singleton(s, len(g.set.Post)))
	}
}

func singleton(s statement.Statement, index int) *Batch {
	b := New(1, index)
	b.Append(s)
	return b
}

func (g *Grouper) sealVertex() {
	g.set.Vertex = append(g.set.Vertex, g.vertex)
	g.vertexIndex++
	g.vertex = New(g.capacity, g.vertexIndex)
}

func (g *Grouper) sealEdge() {
	g.set.Edge = append(g.set.Edge, g.edge)
	g.edgeIndex++
	g.edge = New(g.capacity, g.edgeIndex)
}

// Finish seals any non-empty open vertex/edge Batch and returns the
// completed Set. The Grouper must not be reused after Finish.
func (g *Grouper) Finish() Set {
	if len(g.vertex.Queries) > 0 {
		g.sealVertex()
	}
	if len(g.edge.Queries) > 0 {
		g.sealEdge()
	}
	return g.set
}
