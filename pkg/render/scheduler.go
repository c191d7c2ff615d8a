package render

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is used when the CPU count cannot be determined.
const DefaultWorkers = 4

// Scheduler runs independent jobs on a bounded number of goroutines.
type Scheduler struct {
	workers int
}

// NewScheduler creates a scheduler running at most workers jobs at once.
// A non-positive count selects one worker per CPU.
func NewScheduler(workers int) *Scheduler {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Scheduler{workers: workers}
}

// Workers returns the concurrency limit.
func (s *Scheduler) Workers() int {
	return s.workers
}

// Run calls job(i) for every i in [0, n) and returns once all of them have
// finished. It returns the first error reported by a job. A panicking job is
// reported as an error.
func (s *Scheduler) Run(n int, job func(i int) error) error {
	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range n {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("job %d panicked: %v", i, r)
				}
			}()
			return job(i)
		})
	}
	return g.Wait()
}
