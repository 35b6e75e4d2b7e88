// Package batch holds the Batch and Set value types the Grouper fills and
// the Scheduler executes.
package batch

import "github.com/orneryd/cybolt/internal/statement"

// Batch is an ordered sequence of Statements from one Bucket, executed
// inside a single database transaction. The backoff fields track retry
// state for the batch as a whole.
type Batch struct {
	Capacity   int
	Index      int
	Queries    []statement.Statement
	IsExecuted bool
	Attempts   int
	BackoffMs  int
}

// New returns an open Batch of the given capacity and monotonic index, with
// backoff starting at 1ms.
func New(capacity, index int) *Batch {
	return &Batch{Capacity: capacity, Index: index, BackoffMs: 1}
}

// Full reports whether the Batch has reached capacity and must be sealed.
func (b *Batch) Full() bool {
	return len(b.Queries) >= b.Capacity
}

// Append adds one Statement to the Batch. The caller is responsible for
// checking Full beforehand; Append does not enforce capacity itself.
func (b *Batch) Append(s statement.Statement) {
	b.Queries = append(b.Queries, s)
}

// backoffCeilingMs and backoffRecycleMs implement the retry schedule:
// double on failure, and once the doubled delay exceeds the ceiling, recycle
// to the floor rather than continuing to grow unbounded (1, 2, 4, ..., 64,
// then back to 1).
const (
	backoffCeilingMs = 100
	backoffRecycleMs = 1
)

// RecordFailure applies the exponential-backoff-with-clamp-and-recycle
// policy on a failed attempt. IsExecuted is left false by the caller;
// RecordFailure only updates the retry bookkeeping.
func (b *Batch) RecordFailure() {
	b.Attempts++
	b.BackoffMs *= 2
	if b.BackoffMs > backoffCeilingMs {
		b.BackoffMs = backoffRecycleMs
	}
}

// MarkExecuted sets IsExecuted exactly once. A Batch is never mutated after
// IsExecuted becomes true.
func (b *Batch) MarkExecuted() {
	b.IsExecuted = true
}

// Set groups four ordered sequences of Batches, one per bucket, assembled
// in arrival order. Pre and Post are singleton runs rather than
// capacity-bounded batches, but are represented the same way for uniform
// Scheduler handling: each pre/post Statement becomes its own Batch of
// capacity 1.
type Set struct {
	Pre    []*Batch
	Vertex []*Batch
	Edge   []*Batch
	Post   []*Batch
}

// Bucket returns the slice for a given bucket, for callers that want to
// iterate generically over the four buckets in pre->vertex->edge->post
// order.
func (s *Set) Bucket(b statement.Bucket) []*Batch {
	switch b {
	case statement.BucketPre:
		return s.Pre
	case statement.BucketVertex:
		return s.Vertex
	case statement.BucketEdge:
		return s.Edge
	default:
		return s.Post
	}
}

// TotalStatements counts every Statement across every Batch in the Set.
func (s *Set) TotalStatements() int {
	n := 0
	for _, bucket := range [][]*Batch{s.Pre, s.Vertex, s.Edge, s.Post} {
		for _, b := range bucket {
			n += len(b.Queries)
		}
	}
	return n
}
