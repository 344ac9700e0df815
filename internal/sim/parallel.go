package sim

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/san-kum/latchsim/internal/dynamo"
)

// Job is one independent run of a sweep. Build is called on the worker
// goroutine so hybrid systems, which carry mutable mode state, are never
// shared between runs.
type Job struct {
	Name  string
	Build func() (*Simulator, dynamo.State, error)
}

type Sweep struct {
	jobs    []Job
	workers int
}

// NewSweep runs jobs on the given number of workers, one per CPU when
// workers is not positive.
func NewSweep(jobs []Job, workers int) *Sweep {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Sweep{jobs: jobs, workers: workers}
}

// Run executes every job with cfg and returns the results in job order.
// The first failing job cancels the rest and its error is returned.
func (w *Sweep) Run(ctx context.Context, cfg dynamo.Config) ([]*dynamo.Result, error) {
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*dynamo.Result, len(w.jobs))

	var (
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	idx := make(chan int)
	var wg sync.WaitGroup
	for k := 0; k < w.workers; k++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				r, err := w.runOne(ctx, w.jobs[i], cfg)
				if err != nil {
					fail(fmt.Errorf("sweep %s: %w", w.jobs[i].Name, err))
					continue
				}
				results[i] = r
			}
		}()
	}

feed:
	for i := range w.jobs {
		select {
		case idx <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(idx)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := parent.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (w *Sweep) runOne(ctx context.Context, job Job, cfg dynamo.Config) (*dynamo.Result, error) {
	s, x0, err := job.Build()
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, x0, cfg)
}
