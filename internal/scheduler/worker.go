package scheduler

import (
	"context"
	"fmt"

	"github.com/orneryd/cybolt/internal/batch"
	"github.com/orneryd/cybolt/internal/boltclient"
)

// executeBatch runs every statement of b in order inside a single
// transaction on session: open a transaction, run and pull every statement
// in order, commit. A failure while running, pulling or fetching a
// statement rolls back (best effort, ignoring the rollback's own error); a
// failure of BEGIN or COMMIT is not followed by a rollback. Every failure
// is returned to the caller, which decides retry policy.
//
// ctx is checked between statements, never mid-statement: a worker finishes
// its current statement even after the context is cancelled, but won't
// start the next one.
func executeBatch(ctx context.Context, session *boltclient.Session, b *batch.Batch) error {
	if err := session.BeginTx(); err != nil {
		return fmt.Errorf("begin tx for batch %d: %w", b.Index, err)
	}

	for _, stmt := range b.Queries {
		if err := ctx.Err(); err != nil {
			_ = session.Rollback()
			return err
		}
		if err := session.Run(stmt.Query, nil); err != nil {
			_ = session.Rollback()
			return fmt.Errorf("run statement at line %d: %w", stmt.LineNumber, err)
		}
		if err := session.Pull(); err != nil {
			_ = session.Rollback()
			return fmt.Errorf("pull statement at line %d: %w", stmt.LineNumber, err)
		}
		for {
			res, err := session.Fetch()
			if err != nil {
				_ = session.Rollback()
				return fmt.Errorf("fetch statement at line %d: %w", stmt.LineNumber, err)
			}
			if res.Done {
				break
			}
		}
	}

	if err := session.Commit(); err != nil {
		return fmt.Errorf("commit batch %d: %w", b.Index, err)
	}
	return nil
}

// attempt runs one worker-task cycle for b on the given pool slot: sleep
// for the current backoff if any, attempt the Batch, update retry
// bookkeeping on failure, and repair the slot's session if it was left bad.
// The caller is responsible for emitting the ReadinessToken either way.
func attempt(ctx context.Context, pool *SessionPool, slot int, b *batch.Batch, sleep func(ms int)) error {
	if b.BackoffMs > 1 {
		sleep(b.BackoffMs)
	}

	session := pool.Lease(slot)
	err := executeBatch(ctx, session, b)
	if err == nil {
		b.MarkExecuted()
	} else {
		b.RecordFailure()
	}

	if session.Status() == boltclient.StateBad {
		if repairErr := pool.Repair(slot); repairErr != nil {
			// A failed repair must abort the scheduler, not silently retry
			// on a session nobody can connect.
			return fmt.Errorf("repair slot %d: %w", slot, repairErr)
		}
	}

	return nil
}
