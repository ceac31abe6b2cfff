// Package sweep evaluates sidereal positions over a time range and
// summarizes the nakshatra-tithi states visited.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/turbotrail/geocentric-astrology-astronomy-playbook/internal/metrics"
)

// Sweeper runs sweeps against a Computer with a worker pool.
type Sweeper struct {
	computer Computer
	pool     *WorkerPool
	logger   *slog.Logger
}

// NewSweeper creates a Sweeper with the given number of workers.
func NewSweeper(computer Computer, workers int, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		computer: computer,
		pool:     NewWorkerPool(workers, logger),
		logger:   logger,
	}
}

// Run evaluates every sample time of req. Individual failures are logged,
// counted in Result.Errors, and skipped. Run fails when the request is
// invalid, the context is cancelled, or every sample failed.
func (s *Sweeper) Run(ctx context.Context, req Request) (*Result, error) {
	times, err := req.Times()
	if err != nil {
		return nil, fmt.Errorf("invalid sweep request: %w", err)
	}

	s.logger.Debug("sweep starting",
		"start", req.Start.UTC().Format(time.RFC3339),
		"end", req.End.UTC().Format(time.RFC3339),
		"samples", len(times),
		"workers", s.pool.workers,
	)

	start := time.Now()
	b := s.pool.ComputeBatch(ctx, s.computer, times)
	duration := time.Since(start)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("sweep cancelled after %d samples: %w", b.Success+b.Errors, err)
	}
	if len(times) > 0 && b.Success == 0 {
		return nil, fmt.Errorf("all %d samples failed: %w", b.Errors, b.FirstErr)
	}

	res := &Result{
		Request:  req,
		Samples:  b.Positions,
		Errors:   b.Errors,
		Duration: duration,
	}
	res.Visited, res.Transitions = summarize(res)

	metrics.RecordSweep(duration, len(times), len(res.Visited))

	s.logger.Info("sweep complete",
		"samples", len(res.Samples),
		"errors", res.Errors,
		"visited", len(res.Visited),
		"coverage_pct", res.Coverage(),
		"transitions", res.Transitions,
		"duration_ms", duration.Milliseconds(),
	)

	return res, nil
}

// summarize returns the distinct states in grid order and the number of
// state changes between consecutive samples.
func summarize(res *Result) ([]State, int) {
	seen := make(map[State]struct{})
	transitions := 0
	for i, p := range res.Samples {
		st := StateOf(p)
		seen[st] = struct{}{}
		if i > 0 && st != StateOf(res.Samples[i-1]) {
			transitions++
		}
	}

	visited := make([]State, 0, len(seen))
	for st := range seen {
		visited = append(visited, st)
	}
	sort.Slice(visited, func(i, j int) bool {
		if visited[i].Nakshatra != visited[j].Nakshatra {
			return visited[i].Nakshatra < visited[j].Nakshatra
		}
		return visited[i].Tithi < visited[j].Tithi
	})
	return visited, transitions
}
