package harness

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
)

// Job pairs a scenario with the builder that produces its specification.
type Job struct {
	Scenario *Scenario
	Builder  Builder
}

// Outcome is the result of one Job. Err is set only for construction
// errors, mirroring Run.
type Outcome struct {
	Result *Result
	Err    error
}

// RunAll runs jobs on a pool of at most parallel workers and returns one
// Outcome per job, in job order. A failing scenario never stops the others.
//
// Scenarios that share a working directory would remove each other's
// artifacts, so RunAll rejects them up front. Scenarios without a working
// directory each get their own temporary one.
func (h *Harness) RunAll(ctx context.Context, jobs []Job, parallel int) ([]Outcome, error) {
	if err := checkWorkDirs(jobs); err != nil {
		return nil, err
	}
	if parallel < 1 {
		parallel = 1
	}
	if parallel > len(jobs) {
		parallel = len(jobs)
	}

	jobChan := make(chan int, len(jobs))
	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	outcomes := make([]Outcome, len(jobs))
	var wg sync.WaitGroup
	for w := 0; w < parallel; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobChan {
				job := jobs[i]
				h.logger.Debug("worker picked scenario", "worker", workerID, "scenario", job.Scenario.Name)
				res, err := h.Run(ctx, job.Scenario, job.Builder)
				outcomes[i] = Outcome{Result: res, Err: err}
			}
		}(w)
	}
	wg.Wait()

	return outcomes, nil
}

func checkWorkDirs(jobs []Job) error {
	owners := make(map[string]string)
	for i, job := range jobs {
		if job.Scenario == nil {
			return fmt.Errorf("job %d: nil scenario", i)
		}
		if job.Scenario.WorkDir == "" {
			continue
		}
		dir, err := filepath.Abs(job.Scenario.WorkDir)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", job.Scenario.Name, err)
		}
		if other, ok := owners[dir]; ok {
			return fmt.Errorf("scenarios %s and %s share working directory %s", other, job.Scenario.Name, dir)
		}
		owners[dir] = job.Scenario.Name
	}
	return nil
}
