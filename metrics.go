package fhirpathlab

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks evaluation metrics using lock-free atomic operations.
// All methods are safe for concurrent use.
//
// Metrics implements prometheus.Collector, so one instance can be
// registered with a prometheus.Registry and scraped as is.
type Metrics struct {
	// Evaluation counts
	evaluationsTotal  atomic.Uint64
	evaluationsFailed atomic.Uint64

	// Timing (stored as nanoseconds)
	evaluationTimeTotal atomic.Uint64
	evaluationTimeMin   atomic.Uint64
	evaluationTimeMax   atomic.Uint64

	// Report contents
	resultsTotal   atomic.Uint64
	snapshotsTotal atomic.Uint64

	// Compiled expression cache, as last observed
	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64

	// Outcome issues by severity
	errorsTotal   atomic.Uint64
	warningsTotal atomic.Uint64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	// Initialize min to max uint64 so first value becomes the minimum
	m.evaluationTimeMin.Store(^uint64(0))
	return m
}

// --- Recording Methods ---

// RecordEvaluation records a completed evaluation with the number of
// result values and debug trace snapshots it produced.
func (m *Metrics) RecordEvaluation(duration time.Duration, results, snapshots int) {
	m.evaluationsTotal.Add(1)
	m.resultsTotal.Add(uint64(results))     //nolint:gosec // counts are never negative
	m.snapshotsTotal.Add(uint64(snapshots)) //nolint:gosec // counts are never negative
	m.recordDuration(duration)
}

// RecordFailure records an evaluation that ended in an error.
func (m *Metrics) RecordFailure(duration time.Duration) {
	m.evaluationsTotal.Add(1)
	m.evaluationsFailed.Add(1)
	m.recordDuration(duration)
}

func (m *Metrics) recordDuration(duration time.Duration) {
	ns := uint64(duration.Nanoseconds()) //nolint:gosec // Safe: nanoseconds are always positive for valid durations
	m.evaluationTimeTotal.Add(ns)

	for {
		old := m.evaluationTimeMin.Load()
		if ns >= old || m.evaluationTimeMin.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.evaluationTimeMax.Load()
		if ns <= old || m.evaluationTimeMax.CompareAndSwap(old, ns) {
			break
		}
	}
}

// ObserveCache stores the current hit and miss totals of the compiled
// expression cache.
func (m *Metrics) ObserveCache(hits, misses uint64) {
	m.cacheHits.Store(hits)
	m.cacheMisses.Store(misses)
}

// RecordIssue records an outcome issue based on severity.
func (m *Metrics) RecordIssue(severity IssueSeverity) {
	switch severity {
	case SeverityError, SeverityFatal:
		m.errorsTotal.Add(1)
	case SeverityWarning:
		m.warningsTotal.Add(1)
	}
}

// --- Query Methods ---

// EvaluationsTotal returns the number of evaluations, failed ones included.
func (m *Metrics) EvaluationsTotal() uint64 {
	return m.evaluationsTotal.Load()
}

// EvaluationsFailed returns the number of failed evaluations.
func (m *Metrics) EvaluationsFailed() uint64 {
	return m.evaluationsFailed.Load()
}

// ResultsTotal returns the number of result values produced.
func (m *Metrics) ResultsTotal() uint64 {
	return m.resultsTotal.Load()
}

// SnapshotsTotal returns the number of debug trace snapshots produced.
func (m *Metrics) SnapshotsTotal() uint64 {
	return m.snapshotsTotal.Load()
}

// AverageEvaluationTime returns the average evaluation duration.
func (m *Metrics) AverageEvaluationTime() time.Duration {
	total := m.evaluationsTotal.Load()
	if total == 0 {
		return 0
	}
	return time.Duration(m.evaluationTimeTotal.Load() / total) //nolint:gosec // Safe: nanoseconds within int64 range
}

// MinEvaluationTime returns the minimum evaluation duration.
func (m *Metrics) MinEvaluationTime() time.Duration {
	minVal := m.evaluationTimeMin.Load()
	if minVal == ^uint64(0) {
		return 0
	}
	return time.Duration(minVal) //nolint:gosec // Safe: nanoseconds within int64 range
}

// MaxEvaluationTime returns the maximum evaluation duration.
func (m *Metrics) MaxEvaluationTime() time.Duration {
	return time.Duration(m.evaluationTimeMax.Load()) //nolint:gosec // Safe: nanoseconds within int64 range
}

// CacheHitRate returns the compiled expression cache hit rate (0.0 to 1.0).
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// ErrorsTotal returns the number of error issues reported.
func (m *Metrics) ErrorsTotal() uint64 {
	return m.errorsTotal.Load()
}

// WarningsTotal returns the number of warning issues reported.
func (m *Metrics) WarningsTotal() uint64 {
	return m.warningsTotal.Load()
}

// --- Prometheus ---

var (
	descEvaluations = prometheus.NewDesc(
		"fhirpathlab_evaluations_total",
		"Total number of FHIRPath evaluations.",
		[]string{"status"}, nil,
	)
	descEvaluationSeconds = prometheus.NewDesc(
		"fhirpathlab_evaluation_seconds_total",
		"Total time spent evaluating, in seconds.",
		nil, nil,
	)
	descResults = prometheus.NewDesc(
		"fhirpathlab_result_values_total",
		"Total number of result values produced.",
		nil, nil,
	)
	descSnapshots = prometheus.NewDesc(
		"fhirpathlab_trace_snapshots_total",
		"Total number of debug trace snapshots produced.",
		nil, nil,
	)
	descCache = prometheus.NewDesc(
		"fhirpathlab_expression_cache_lookups_total",
		"Compiled expression cache lookups.",
		[]string{"result"}, nil,
	)
	descIssues = prometheus.NewDesc(
		"fhirpathlab_outcome_issues_total",
		"OperationOutcome issues reported.",
		[]string{"severity"}, nil,
	)
)

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- descEvaluations
	ch <- descEvaluationSeconds
	ch <- descResults
	ch <- descSnapshots
	ch <- descCache
	ch <- descIssues
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	failed := m.evaluationsFailed.Load()
	ok := m.evaluationsTotal.Load() - failed

	ch <- prometheus.MustNewConstMetric(descEvaluations, prometheus.CounterValue, float64(ok), "ok")
	ch <- prometheus.MustNewConstMetric(descEvaluations, prometheus.CounterValue, float64(failed), "failed")
	ch <- prometheus.MustNewConstMetric(descEvaluationSeconds, prometheus.CounterValue,
		time.Duration(m.evaluationTimeTotal.Load()).Seconds()) //nolint:gosec // Safe: nanoseconds within int64 range
	ch <- prometheus.MustNewConstMetric(descResults, prometheus.CounterValue, float64(m.resultsTotal.Load()))
	ch <- prometheus.MustNewConstMetric(descSnapshots, prometheus.CounterValue, float64(m.snapshotsTotal.Load()))
	ch <- prometheus.MustNewConstMetric(descCache, prometheus.CounterValue, float64(m.cacheHits.Load()), "hit")
	ch <- prometheus.MustNewConstMetric(descCache, prometheus.CounterValue, float64(m.cacheMisses.Load()), "miss")
	ch <- prometheus.MustNewConstMetric(descIssues, prometheus.CounterValue, float64(m.errorsTotal.Load()), "error")
	ch <- prometheus.MustNewConstMetric(descIssues, prometheus.CounterValue, float64(m.warningsTotal.Load()), "warning")
}

var _ prometheus.Collector = (*Metrics)(nil)
