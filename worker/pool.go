package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	fv "github.com/gofhir/fhirpathlab"
	"github.com/gofhir/fhirpathlab/engine"
)

// Evaluator is the interface the workers use to evaluate requests.
// *engine.Engine implements it.
type Evaluator interface {
	Evaluate(ctx context.Context, req engine.Request) (*fv.Result, error)
}

// Pool manages a pool of worker goroutines for parallel evaluation.
type Pool struct {
	workers    int
	jobsChan   chan Job
	resultChan chan *JobResult
	evaluator  Evaluator
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closeOnce  sync.Once
	mu         sync.RWMutex
	closed     bool

	// Metrics
	jobsSubmitted atomic.Uint64
	jobsCompleted atomic.Uint64
	totalDuration atomic.Uint64
}

// NewPool creates a new worker pool with the specified number of workers.
// If workers <= 0, it defaults to runtime.NumCPU().
func NewPool(evaluator Evaluator, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pool{
		workers:    workers,
		jobsChan:   make(chan Job, workers*2),
		resultChan: make(chan *JobResult, workers*2),
		evaluator:  evaluator,
		ctx:        ctx,
		cancel:     cancel,
	}

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}

	return p
}

// Submit submits a job to the pool for processing.
// It blocks while the job queue is full and returns false once the pool
// is closed.
func (p *Pool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}

	select {
	case <-p.ctx.Done():
		return false
	case p.jobsChan <- job:
		p.jobsSubmitted.Add(1)
		return true
	}
}

// Results returns the channel for receiving job results. Results arrive
// in completion order; use JobResult.Index to restore input order. The
// channel is closed by Close.
func (p *Pool) Results() <-chan *JobResult {
	return p.resultChan
}

// Close cancels pending jobs, waits for the workers to exit and closes
// Results. Results still unread are discarded.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		p.cancel()

		p.mu.Lock()
		p.closed = true
		close(p.jobsChan)
		p.mu.Unlock()

		go func() {
			p.wg.Wait()
			close(p.resultChan)
		}()
		for range p.resultChan {
			// Discard results
		}
	})
}

// Drain stops accepting jobs, waits for every queued job and returns all
// results not yet read from Results, ordered by job index. It must not
// run concurrently with Submit.
func (p *Pool) Drain() []*JobResult {
	var results []*JobResult
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobsChan)
		p.mu.Unlock()

		go func() {
			p.wg.Wait()
			close(p.resultChan)
		}()
		for r := range p.resultChan {
			results = append(results, r)
		}
		p.cancel()
	})
	sortByIndex(results)
	return results
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:       p.workers,
		JobsSubmitted: p.jobsSubmitted.Load(),
		JobsCompleted: p.jobsCompleted.Load(),
		AvgDuration:   p.averageDuration(),
	}
}

// PoolStats contains pool statistics.
type PoolStats struct {
	Workers       int
	JobsSubmitted uint64
	JobsCompleted uint64
	AvgDuration   time.Duration
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobsChan {
		result := process(p.ctx, p.evaluator, job)
		p.jobsCompleted.Add(1)
		p.totalDuration.Add(uint64(result.Duration)) //nolint:gosec // durations are never negative
		p.resultChan <- result
	}
}

// process evaluates one job.
func process(ctx context.Context, evaluator Evaluator, job Job) *JobResult {
	start := time.Now()

	result := &JobResult{
		Index:      job.Index,
		ID:         job.Request.ID,
		Expression: job.Request.Expression,
	}

	switch {
	case evaluator == nil:
		result.Error = ErrNoEvaluator
	case ctx.Err() != nil:
		result.Error = ctx.Err()
	default:
		result.Result, result.Error = evaluator.Evaluate(ctx, job.Request)
	}

	result.Duration = time.Since(start).Nanoseconds()
	return result
}

func (p *Pool) averageDuration() time.Duration {
	completed := p.jobsCompleted.Load()
	if completed == 0 {
		return 0
	}
	return time.Duration(p.totalDuration.Load() / completed) //nolint:gosec // nanoseconds within int64 range
}

// ErrNoEvaluator is returned when the pool has no evaluator configured.
var ErrNoEvaluator = poolError("no evaluator configured")

type poolError string

func (e poolError) Error() string {
	return string(e)
}
