package worker

import (
	fv "github.com/gofhir/fhirpathlab"
	"github.com/gofhir/fhirpathlab/engine"
)

// Job is one request to be processed by a worker.
type Job struct {
	// Index is the position of the request in its input. Results carry it
	// back so callers can restore input order.
	Index int

	// Request is the evaluation request.
	Request engine.Request
}

// JobResult is the result of a job.
type JobResult struct {
	// Index matches the Job.Index that produced this result.
	Index int

	// ID and Expression echo the request.
	ID         string
	Expression string

	// Result is the evaluation result, nil when Error is set.
	Result *fv.Result

	// Error is any error that occurred during evaluation.
	Error error

	// Duration is the time taken to evaluate (in nanoseconds).
	Duration int64
}

// Failed reports whether the job ended in an error.
func (r *JobResult) Failed() bool {
	return r.Error != nil || (r.Result != nil && r.Result.HasErrors())
}

// Resolved returns Result, or a failed Result built from Error.
func (r *JobResult) Resolved() *fv.Result {
	if r.Error == nil && r.Result != nil {
		return r.Result
	}
	res := fv.FailedResult(r.Expression, r.Error)
	res.JobID = r.ID
	return res
}

// BatchResult aggregates results from multiple jobs.
type BatchResult struct {
	// Results holds one entry per request, in request order.
	Results []*JobResult

	// TotalJobs is the number of requests.
	TotalJobs int

	// CompletedJobs is the number of jobs completed (including errors).
	CompletedJobs int

	// FailedJobs is the number of jobs that failed with an error.
	FailedJobs int

	// TotalDuration is the summed evaluation time (in nanoseconds).
	TotalDuration int64
}

// HasErrors returns true if any job failed.
func (br *BatchResult) HasErrors() bool {
	for _, r := range br.Results {
		if r != nil && r.Failed() {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of failed jobs.
func (br *BatchResult) ErrorCount() int {
	count := 0
	for _, r := range br.Results {
		if r != nil && r.Failed() {
			count++
		}
	}
	return count
}
