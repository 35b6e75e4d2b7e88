// Package scheduler implements the bounded worker pool and bucket ordering
// for batch execution: pre and post statements run serially on one session;
// vertex and edge Batches run in parallel across up to W worker slots.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/orneryd/cybolt/internal/batch"
)

// Scheduler owns a SessionPool and drives the four-bucket execution order:
// pre -> vertex -> edge -> post, with strict happens-before between
// buckets.
type Scheduler struct {
	pool    *SessionPool
	workers int
	sleep   func(ms int)
}

// New returns a Scheduler bound to pool, dispatching at most pool.Size()
// Batches concurrently.
func New(pool *SessionPool) *Scheduler {
	return &Scheduler{
		pool:    pool,
		workers: pool.Size(),
		sleep:   func(ms int) { time.Sleep(time.Duration(ms) * time.Millisecond) },
	}
}

// RunSet executes a full Set to completion in bucket order. It returns on
// the first fatal error (a failed session repair, or context
// cancellation); transient per-statement failures are retried internally
// and never surface here.
func (s *Scheduler) RunSet(ctx context.Context, set batch.Set) error {
	if err := s.RunSerial(ctx, set.Pre); err != nil {
		return fmt.Errorf("pre phase: %w", err)
	}
	if err := s.RunParallel(ctx, set.Vertex); err != nil {
		return fmt.Errorf("vertex phase: %w", err)
	}
	if err := s.RunParallel(ctx, set.Edge); err != nil {
		return fmt.Errorf("edge phase: %w", err)
	}
	if err := s.RunSerial(ctx, set.Post); err != nil {
		return fmt.Errorf("post phase: %w", err)
	}
	return nil
}

// RunSerial executes batches in arrival order on worker slot 0, used for
// the pre and post buckets. Each batch still retries under the same
// backoff policy as a parallel batch; only the lack of concurrency
// differs.
func (s *Scheduler) RunSerial(ctx context.Context, batches []*batch.Batch) error {
	const slot = 0
	for _, b := range batches {
		for !b.IsExecuted {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := attempt(ctx, s.pool, slot, b, s.sleep); err != nil {
				return err
			}
		}
	}
	return nil
}

// RunParallel executes one bucket's Batches in parallel, at most W at a
// time, with no ordering guarantee among them. It returns when every Batch
// in the slice is executed, or on the first fatal error.
func (s *Scheduler) RunParallel(ctx context.Context, batches []*batch.Batch) error {
	if len(batches) == 0 {
		return nil
	}

	notifier := NewNotifier(s.workers)
	fatal := make(chan error, 1)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		dispatched := 0
		for _, b := range batches {
			if dispatched >= s.workers {
				break
			}
			if b.IsExecuted {
				continue
			}
			slot := dispatched
			dispatched++
			go func(slot int, b *batch.Batch) {
				if err := attempt(ctx, s.pool, slot, b, s.sleep); err != nil {
					select {
					case fatal <- err:
					default:
					}
				}
				notifier.Notify(ReadinessToken{BatchIndex: b.Index})
			}(slot, b)
		}

		if dispatched == 0 {
			// Nothing left to dispatch: every Batch is executed. A failed
			// Batch is always re-dispatched on the next pass (its backoff
			// sleep happens inside the dispatched goroutine), so this is
			// reached only once no Batch is left unexecuted.
			break
		}

		for i := 0; i < dispatched; i++ {
			notifier.Await()
		}

		select {
		case err := <-fatal:
			return err
		default:
		}
	}

	return allExecuted(batches)
}

func allExecuted(batches []*batch.Batch) error {
	for _, b := range batches {
		if !b.IsExecuted {
			return fmt.Errorf("batch %d did not complete", b.Index)
		}
	}
	return nil
}
