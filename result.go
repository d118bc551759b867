package fhirpathlab

import (
	"time"

	"github.com/gofhir/fhirpathlab/pkg/param"
)

// Result is the outcome of one evaluation: a report on success, an
// OperationOutcome on failure.
type Result struct {
	// Parameters is the evaluation report. Nil when Outcome is set.
	Parameters *param.Parameters `json:"parameters,omitempty"`

	// Outcome describes why the evaluation failed.
	Outcome *OperationOutcome `json:"outcome,omitempty"`

	// JobID is set when using batch evaluation to correlate results
	JobID string `json:"jobId,omitempty"`

	// Expression is the evaluated expression
	Expression string `json:"expression"`

	// ResultCount is the number of result values
	ResultCount int `json:"resultCount"`

	// SnapshotCount is the number of debug trace snapshots
	SnapshotCount int `json:"snapshotCount"`

	// Duration is the time the evaluation took
	Duration time.Duration `json:"duration"`
}

// NewResult creates a result for a successful evaluation.
func NewResult(expression string, report *param.Parameters) *Result {
	return &Result{
		Expression: expression,
		Parameters: report,
	}
}

// FailedResult creates a result carrying the outcome for err.
func FailedResult(expression string, err error) *Result {
	return &Result{
		Expression: expression,
		Outcome:    OutcomeFromError(err),
	}
}

// HasErrors returns true if the evaluation failed.
func (r *Result) HasErrors() bool {
	return r.Outcome != nil && r.Outcome.HasErrors()
}

// ErrorCount returns the number of error and fatal issues.
func (r *Result) ErrorCount() int {
	if r.Outcome == nil {
		return 0
	}
	count := 0
	for _, issue := range r.Outcome.Issue {
		if issue.IsError() {
			count++
		}
	}
	return count
}

// Resource returns the FHIR resource to hand back to a caller: the
// report, or the outcome when the evaluation failed.
func (r *Result) Resource() any {
	if r.Outcome != nil {
		return r.Outcome
	}
	return r.Parameters
}

// MarshalIndent renders Resource as indented JSON.
func (r *Result) MarshalIndent() ([]byte, error) {
	if r.Outcome != nil {
		return r.Outcome.MarshalIndent()
	}
	if r.Parameters == nil {
		return param.NewParameters().MarshalIndent()
	}
	return r.Parameters.MarshalIndent()
}
