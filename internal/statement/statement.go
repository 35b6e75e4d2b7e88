// Package statement tokenizes a byte stream of Cypher statements and
// classifies each one with a lightweight inline recognizer. The classifier
// is folded into the tokenizer's byte loop so each input byte is scanned
// exactly once.
package statement

// Features is the set of boolean clause flags the classifier records for one
// statement.
type Features struct {
	HasCreate       bool
	HasMatch        bool
	HasMerge        bool
	HasDetachDelete bool
	HasCreateIndex  bool
	HasDropIndex    bool
	HasRemove       bool
	HasStorageMode  bool
}

// Bucket is one of the four scheduling buckets a statement can fall into.
type Bucket int

const (
	BucketPre Bucket = iota
	BucketVertex
	BucketEdge
	BucketPost
)

func (b Bucket) String() string {
	switch b {
	case BucketPre:
		return "pre"
	case BucketVertex:
		return "vertex"
	case BucketEdge:
		return "edge"
	default:
		return "post"
	}
}

// Bucket classifies the statement by the clauses its Features report.
// Schema changes (index/drop/storage mode) run before anything else.
// Pure node creation runs in the vertex bucket, in parallel. Anything that
// matches before creating, or deletes/removes/sets, runs in the edge or
// post buckets so it never races ahead of the vertices it depends on.
func (f Features) Bucket() Bucket {
	if f.HasCreateIndex || f.HasDropIndex || f.HasStorageMode {
		return BucketPre
	}
	if f.HasCreate && !f.HasMatch && !f.HasMerge && !f.HasDetachDelete && !f.HasRemove {
		return BucketVertex
	}
	if f.HasMatch && f.HasCreate {
		return BucketEdge
	}
	return BucketPost
}

// Statement is one parsed Cypher statement.
type Statement struct {
	LineNumber int
	Index      int
	Query      string
	Features   Features
}
