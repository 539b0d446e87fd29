// Package workerpool runs a fixed-size pool of concurrent jobs over a
// slice of inputs, each job pinned to one of a small number of worker
// slots so a caller can keep one piece of per-slot state (here,
// internal/workdir's per-worker working directory) alive across many
// jobs instead of recreating it per job. Grounded on the teacher's
// internal/concurrency.WorkerPool/Worker/Job/JobResult shape, with
// golang.org/x/sync/errgroup standing in for its hand-rolled
// sync.WaitGroup + context.Context pairing.
package workerpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Func is the work a pool runs for one job. workerID is in [0, size) and
// identifies which worker slot the call was made from; at most one
// goroutine ever holds a given workerID at a time, so a caller may use it
// to index into a fixed-size array of worker-private resources.
type Func[T any, R any] func(ctx context.Context, workerID int, job T) (R, error)

// Run evaluates fn over every element of jobs, holding at most size calls
// in flight at once, and returns results in the same order as jobs.
//
// fn should report an error only for conditions the caller wants to abort
// the whole run over (a Fatal repairerr.Kind); anything the fitness
// engine wants contained to a single candidate should be folded into R
// instead; an fn error here cancels ctx and aborts every other in-flight
// and not-yet-started job, and Run returns the first such error.
func Run[T any, R any](ctx context.Context, size int, jobs []T, fn Func[T, R]) ([]R, error) {
	if size < 1 {
		size = 1
	}

	results := make([]R, len(jobs))
	slots := make(chan int, size)
	for i := 0; i < size; i++ {
		slots <- i
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(size)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			workerID := <-slots
			defer func() { slots <- workerID }()

			r, err := fn(gctx, workerID, job)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
