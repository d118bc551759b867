// Package stream evaluates FHIRPath requests read from a stream, emitting
// results in input order.
package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	fv "github.com/gofhir/fhirpathlab"
	"github.com/gofhir/fhirpathlab/worker"
)

// EntryResult is the outcome of one streamed request.
type EntryResult struct {
	// Index is the position of the request in the stream, or -1 for an
	// error that ended the stream.
	Index int

	// ID and Expression echo the request.
	ID         string
	Expression string

	// Result is the evaluation report.
	Result *fv.Result

	// Error is set if the request could not be decoded or evaluated.
	Error error
}

// Failed reports whether the entry ended in an error.
func (r *EntryResult) Failed() bool {
	return r.Error != nil || (r.Result != nil && r.Result.HasErrors())
}

// Runner evaluates request streams.
type Runner struct {
	evaluator   worker.Evaluator
	bufferSize  int
	workerCount int
}

// NewRunner creates a stream runner.
func NewRunner(evaluator worker.Evaluator) *Runner {
	return &Runner{
		evaluator:   evaluator,
		bufferSize:  100,
		workerCount: 4,
	}
}

// WithBufferSize sets the output channel buffer size.
func (r *Runner) WithBufferSize(size int) *Runner {
	if size > 0 {
		r.bufferSize = size
	}
	return r
}

// WithWorkerCount sets the number of parallel workers.
func (r *Runner) WithWorkerCount(count int) *Runner {
	if count > 0 {
		r.workerCount = count
	}
	return r
}

// Evaluate evaluates requests from in one at a time.
func (r *Runner) Evaluate(ctx context.Context, in io.Reader) <-chan *EntryResult {
	results := make(chan *EntryResult, r.bufferSize)

	go func() {
		defer close(results)

		_, err := Decode(in, func(e Entry) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results <- r.evaluateEntry(ctx, e)
			return nil
		})
		if err != nil {
			results <- &EntryResult{Index: -1, Error: err}
		}
	}()

	return results
}

func (r *Runner) evaluateEntry(ctx context.Context, e Entry) *EntryResult {
	result := &EntryResult{
		Index:      e.Index,
		ID:         e.Request.ID,
		Expression: e.Request.Expression,
	}
	switch {
	case e.Err != nil:
		result.Error = fmt.Errorf("request %d: %w", e.Index, e.Err)
	case r.evaluator == nil:
		result.Error = worker.ErrNoEvaluator
	default:
		result.Result, result.Error = r.evaluator.Evaluate(ctx, e.Request)
	}
	return result
}

// EvaluateParallel evaluates requests from in on a worker pool while
// preserving input order in the output.
func (r *Runner) EvaluateParallel(ctx context.Context, in io.Reader) <-chan *EntryResult {
	results := make(chan *EntryResult, r.bufferSize)

	go func() {
		defer close(results)

		pool := worker.NewPool(r.evaluator, r.workerCount)
		defer pool.Close()

		type decodeDone struct {
			count int
			err   error
		}
		done := make(chan decodeDone, 1)
		rejected := make(chan *EntryResult, r.bufferSize)

		go func() {
			n, err := Decode(in, func(e Entry) error {
				if e.Err != nil {
					select {
					case rejected <- r.evaluateEntry(ctx, e):
						return nil
					case <-ctx.Done():
						return ctx.Err()
					}
				}
				if !pool.Submit(worker.Job{Index: e.Index, Request: e.Request}) {
					if err := ctx.Err(); err != nil {
						return err
					}
					return errPoolClosed
				}
				return nil
			})
			done <- decodeDone{count: n, err: err}
		}()

		pending := make(map[int]*EntryResult)
		next, total := 0, -1
		var decodeErr error

		emit := func(res *EntryResult) {
			pending[res.Index] = res
			for {
				ready, ok := pending[next]
				if !ok {
					return
				}
				results <- ready
				delete(pending, next)
				next++
			}
		}

		for total < 0 || next < total {
			select {
			case d := <-done:
				total, decodeErr = d.count, d.err
				done = nil
			case res := <-rejected:
				emit(res)
			case jr := <-pool.Results():
				emit(fromJob(jr))
			case <-ctx.Done():
				results <- &EntryResult{Index: -1, Error: ctx.Err()}
				return
			}
		}

		if decodeErr != nil && !errors.Is(decodeErr, ctx.Err()) {
			results <- &EntryResult{Index: -1, Error: decodeErr}
		}
	}()

	return results
}

var errPoolClosed = errors.New("worker pool closed")

func fromJob(jr *worker.JobResult) *EntryResult {
	return &EntryResult{
		Index:      jr.Index,
		ID:         jr.ID,
		Expression: jr.Expression,
		Result:     jr.Result,
		Error:      jr.Error,
	}
}

// Summary aggregates the results of a stream.
type Summary struct {
	// TotalEntries is the number of requests processed.
	TotalEntries int

	// FailedEntries is the number of requests that ended in an error.
	FailedEntries int

	// TotalValues is the number of result values across all requests.
	TotalValues int

	// TotalSnapshots is the number of debug trace snapshots across all
	// requests.
	TotalSnapshots int

	// StreamErrors are errors that ended the stream early.
	StreamErrors []error

	// Outcomes holds the OperationOutcome of each failed request, by index.
	Outcomes map[int]*fv.OperationOutcome
}

// Aggregate collects all results from a stream.
func Aggregate(results <-chan *EntryResult) *Summary {
	sum := &Summary{
		Outcomes: make(map[int]*fv.OperationOutcome),
	}

	for result := range results {
		if result.Index < 0 {
			sum.StreamErrors = append(sum.StreamErrors, result.Error)
			continue
		}

		sum.TotalEntries++
		if result.Failed() {
			sum.FailedEntries++
			if result.Result != nil && result.Result.Outcome != nil {
				sum.Outcomes[result.Index] = result.Result.Outcome
			} else {
				sum.Outcomes[result.Index] = fv.OutcomeFromError(result.Error)
			}
			continue
		}
		if result.Result != nil {
			sum.TotalValues += result.Result.ResultCount
			sum.TotalSnapshots += result.Result.SnapshotCount
		}
	}

	return sum
}

// HasErrors returns true if any request failed or the stream ended early.
func (s *Summary) HasErrors() bool {
	return s.FailedEntries > 0 || len(s.StreamErrors) > 0
}

// String returns a human-readable summary.
func (s *Summary) String() string {
	return fmt.Sprintf(
		"Evaluated %d requests: %d failed, %d values, %d trace snapshots",
		s.TotalEntries,
		s.FailedEntries,
		s.TotalValues,
		s.TotalSnapshots,
	)
}
