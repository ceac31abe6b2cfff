package sweep

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/metrics"
	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/sidereal"
)

// computeJob is a unit of work for the worker pool.
type computeJob struct {
	index int
	at    time.Time
}

// computeResult is the output of a single computation.
type computeResult struct {
	index    int
	position sidereal.Position
	err      error
}

// Batch holds the collected outcome of ComputeBatch.
type Batch struct {
	Positions []sidereal.Position // ordered like the input times
	Success   int
	Errors    int
	FirstErr  error
}

// WorkerPool manages a fixed number of goroutines for parallel computation.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// ComputeBatch evaluates c at every time using the worker pool. Positions are
// returned in input order. Failed samples are logged and skipped.
func (wp *WorkerPool) ComputeBatch(ctx context.Context, c Computer, times []time.Time) Batch {
	if len(times) == 0 {
		return Batch{}
	}

	jobs := make(chan computeJob, wp.workers*2)
	results := make(chan computeResult, wp.workers*2)

	// Start workers.
	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				pos, err := c.Compute(job.at)
				metrics.RecordComputation(err)
				select {
				case results <- computeResult{index: job.index, position: pos, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Feed jobs in a goroutine.
	go func() {
		defer close(jobs)
		for i, at := range times {
			select {
			case jobs <- computeJob{index: i, at: at}:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Close results when all workers are done.
	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results into their input slots.
	slots := make([]sidereal.Position, len(times))
	ok := make([]bool, len(times))
	var b Batch

	for result := range results {
		if result.err != nil {
			b.Errors++
			if b.FirstErr == nil {
				b.FirstErr = result.err
			}
			wp.logger.Warn("computation failed",
				"timestamp", times[result.index].UTC().Format(time.RFC3339),
				"error", result.err,
			)
			continue
		}
		b.Success++
		slots[result.index] = result.position
		ok[result.index] = true
	}

	b.Positions = make([]sidereal.Position, 0, b.Success)
	for i, p := range slots {
		if ok[i] {
			b.Positions = append(b.Positions, p)
		}
	}
	return b
}
