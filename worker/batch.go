package worker

import (
	"context"
	"runtime"
	"slices"
	"sync"

	"github.com/gofhir/fhirpathlab/engine"
)

// Batch evaluates a slice of requests on a bounded number of goroutines.
type Batch struct {
	evaluator Evaluator
	workers   int
}

// NewBatch creates a batch runner.
// If workers <= 0, it defaults to runtime.NumCPU().
func NewBatch(evaluator Evaluator, workers int) *Batch {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Batch{
		evaluator: evaluator,
		workers:   workers,
	}
}

// Run evaluates requests in parallel. Results are in request order.
// Requests not started before ctx is done fail with ctx.Err().
func (b *Batch) Run(ctx context.Context, requests []engine.Request) *BatchResult {
	if len(requests) == 0 {
		return &BatchResult{Results: make([]*JobResult, 0)}
	}

	// For small batches, don't use parallelism
	if len(requests) <= 2 || b.workers == 1 {
		return b.runSequential(ctx, requests)
	}
	return b.runParallel(ctx, requests)
}

func (b *Batch) runSequential(ctx context.Context, requests []engine.Request) *BatchResult {
	results := make([]*JobResult, len(requests))
	for i, req := range requests {
		results[i] = process(ctx, b.evaluator, Job{Index: i, Request: req})
	}
	return summarize(results)
}

func (b *Batch) runParallel(ctx context.Context, requests []engine.Request) *BatchResult {
	numWorkers := min(b.workers, len(requests))

	jobs := make(chan Job)
	results := make([]*JobResult, len(requests))

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for range numWorkers {
		go func() {
			defer wg.Done()
			for job := range jobs {
				// Each index is written by exactly one worker.
				results[job.Index] = process(ctx, b.evaluator, job)
			}
		}()
	}

	for i, req := range requests {
		jobs <- Job{Index: i, Request: req}
	}
	close(jobs)
	wg.Wait()

	return summarize(results)
}

func summarize(results []*JobResult) *BatchResult {
	br := &BatchResult{
		Results:   results,
		TotalJobs: len(results),
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		br.CompletedJobs++
		br.TotalDuration += r.Duration
		if r.Error != nil {
			br.FailedJobs++
		}
	}
	return br
}

func sortByIndex(results []*JobResult) {
	slices.SortFunc(results, func(a, b *JobResult) int {
		return a.Index - b.Index
	})
}

// RunSimple is a convenience function for batch evaluation with one
// worker per CPU.
func RunSimple(ctx context.Context, evaluator Evaluator, requests []engine.Request) *BatchResult {
	return NewBatch(evaluator, runtime.NumCPU()).Run(ctx, requests)
}
