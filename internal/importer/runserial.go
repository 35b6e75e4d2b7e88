package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/orneryd/cybolt/internal/boltclient"
	"github.com/orneryd/cybolt/internal/logx"
	"github.com/orneryd/cybolt/internal/output"
	"github.com/orneryd/cybolt/internal/statement"
)

// RunSerial executes every statement from r, one at a time, on a single
// session, printing any result rows as it goes. A query failure echoes the
// failing query and the error, then either stops (ErrConnection, if the
// session itself went bad) or is simply reported and the import continues
// (a per-statement failure that leaves the session ready is tolerated).
// Classification/bucketing is irrelevant here: commit granularity is one
// statement at a time regardless of bucket.
func RunSerial(ctx context.Context, r io.Reader, cfg boltclient.Config, w io.Writer, log *logx.Logger) error {
	session, err := boltclient.Connect(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer session.Destroy()

	tok := statement.NewTokenizer(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		stmt, ok, err := tok.Next()
		if err != nil {
			return fmt.Errorf("%w: reading input: %v", ErrIO, err)
		}
		if !ok {
			log.Info("Bye")
			return nil
		}

		rows, execErr := runOne(session, stmt.Query)
		if execErr != nil {
			log.Fatal("Failed query", "%s", stmt.Query)
			log.Fatal("Client received query exception", "%v", execErr)
			if session.Status() == boltclient.StateBad {
				return fmt.Errorf("%w: %v", ErrConnection, execErr)
			}
			continue
		}

		if len(rows) > 0 {
			header := session.Fields()
			if header == nil {
				header = make([]string, len(rows[0]))
				for i := range header {
					header[i] = fmt.Sprintf("col%d", i)
				}
			}
			output.WriteTable(w, header, rows)
		}
		output.WriteSummary(w, len(rows))
	}
}

// runOne runs one statement in its own auto-commit and drains all rows.
func runOne(session *boltclient.Session, query string) ([][]any, error) {
	if err := session.Run(query, nil); err != nil {
		return nil, err
	}
	if err := session.Pull(); err != nil {
		return nil, err
	}

	var rows [][]any
	for {
		res, err := session.Fetch()
		if err != nil {
			return nil, err
		}
		if res.Done {
			return rows, nil
		}
		rows = append(rows, res.Row)
	}
}
