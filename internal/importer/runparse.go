package importer

import (
	"fmt"
	"io"

	"github.com/orneryd/cybolt/internal/logx"
	"github.com/orneryd/cybolt/internal/statement"
)

// parseKeywords are the clause keywords RunParse tallies per statement.
var parseKeywords = []string{"CREATE", "MATCH", "MERGE", "DELETE", "SET", "REMOVE", "RETURN", "CALL"}

// ParseReport is RunParse's result: a total query count plus a per-bucket
// and per-keyword breakdown.
type ParseReport struct {
	QueryCount    int64
	BucketCounts  map[statement.Bucket]int64
	KeywordCounts map[string]int64
}

// RunParse performs a dry-run classification pass over r without connecting
// to a database: useful for sizing an import (bucket and keyword counts)
// before committing to a live run.
func RunParse(r io.Reader, log *logx.Logger) (ParseReport, error) {
	report := ParseReport{
		BucketCounts:  map[statement.Bucket]int64{},
		KeywordCounts: map[string]int64{},
	}

	tok := statement.NewTokenizer(r)
	for {
		stmt, ok, err := tok.Next()
		if err != nil {
			return report, fmt.Errorf("%w: reading input: %v", ErrIO, err)
		}
		if !ok {
			break
		}

		report.QueryCount++
		report.BucketCounts[stmt.Features.Bucket()]++
		for _, kw := range parseKeywords {
			if n := statement.TopLevelKeywordCount(stmt.Query, kw); n > 0 {
				report.KeywordCounts[kw] += int64(n)
			}
		}
	}

	log.Info("Parsed %d queries", report.QueryCount)
	for _, b := range []statement.Bucket{statement.BucketPre, statement.BucketVertex, statement.BucketEdge, statement.BucketPost} {
		if n := report.BucketCounts[b]; n > 0 {
			log.Verbose("  %s: %d", b, n)
		}
	}

	return report, nil
}
