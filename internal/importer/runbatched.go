package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/orneryd/cybolt/internal/batch"
	"github.com/orneryd/cybolt/internal/boltclient"
	"github.com/orneryd/cybolt/internal/logx"
	"github.com/orneryd/cybolt/internal/scheduler"
	"github.com/orneryd/cybolt/internal/statement"
)

// RunBatchedParallel is cybolt's batched-parallel import core: statements
// are tokenized and routed into pre/vertex/edge/post Batches, each window of
// at most batchSize*maxBatches statements is drained to completion by the
// Scheduler before the next window is read.
func RunBatchedParallel(ctx context.Context, r io.Reader, cfg boltclient.Config, batchSize, workers, maxBatches int, log *logx.Logger) error {
	pool, err := scheduler.NewSessionPool(cfg, workers)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer pool.Close()

	sched := scheduler.New(pool)
	tok := statement.NewTokenizer(r)
	windowLimit := batchSize * maxBatches

	total := 0
	for {
		grouper := batch.NewGrouper(batchSize)
		windowCount := 0

		for windowCount < windowLimit {
			stmt, ok, err := tok.Next()
			if err != nil {
				return fmt.Errorf("%w: reading input: %v", ErrIO, err)
			}
			if !ok {
				break
			}
			grouper.Add(stmt)
			windowCount++
		}

		if windowCount == 0 {
			break
		}

		set := grouper.Finish()
		total += set.TotalStatements()
		log.Verbose("executing window of %d statements (%d total so far)", windowCount, total)

		if err := sched.RunSet(ctx, set); err != nil {
			return fmt.Errorf("running batch window: %w", err)
		}

		if windowCount < windowLimit {
			break
		}
	}

	log.Info("%d statements imported", total)
	return nil
}
