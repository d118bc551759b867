package fhirpathlab

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestMetrics_Basic(t *testing.T) {
	m := NewMetrics()

	if m.EvaluationsTotal() != 0 {
		t.Errorf("EvaluationsTotal() = %d; want 0", m.EvaluationsTotal())
	}

	m.RecordEvaluation(10*time.Millisecond, 2, 5)
	m.RecordFailure(time.Millisecond)

	if m.EvaluationsTotal() != 2 {
		t.Errorf("EvaluationsTotal() = %d; want 2", m.EvaluationsTotal())
	}
	if m.EvaluationsFailed() != 1 {
		t.Errorf("EvaluationsFailed() = %d; want 1", m.EvaluationsFailed())
	}
	if m.ResultsTotal() != 2 {
		t.Errorf("ResultsTotal() = %d; want 2", m.ResultsTotal())
	}
	if m.SnapshotsTotal() != 5 {
		t.Errorf("SnapshotsTotal() = %d; want 5", m.SnapshotsTotal())
	}
}

func TestMetrics_EvaluationTime(t *testing.T) {
	m := NewMetrics()

	if avg := m.AverageEvaluationTime(); avg != 0 {
		t.Errorf("AverageEvaluationTime() = %v; want 0", avg)
	}
	if minT := m.MinEvaluationTime(); minT != 0 {
		t.Errorf("MinEvaluationTime() = %v; want 0", minT)
	}

	m.RecordEvaluation(100*time.Millisecond, 0, 0)
	m.RecordEvaluation(200*time.Millisecond, 0, 0)
	m.RecordEvaluation(300*time.Millisecond, 0, 0)

	if avg := m.AverageEvaluationTime(); avg != 200*time.Millisecond {
		t.Errorf("AverageEvaluationTime() = %v; want 200ms", avg)
	}
	if minT := m.MinEvaluationTime(); minT != 100*time.Millisecond {
		t.Errorf("MinEvaluationTime() = %v; want 100ms", minT)
	}
	if maxT := m.MaxEvaluationTime(); maxT != 300*time.Millisecond {
		t.Errorf("MaxEvaluationTime() = %v; want 300ms", maxT)
	}
}

func TestMetrics_Cache(t *testing.T) {
	m := NewMetrics()

	if rate := m.CacheHitRate(); rate != 0 {
		t.Errorf("CacheHitRate() = %f; want 0", rate)
	}

	m.ObserveCache(3, 1)
	if rate := m.CacheHitRate(); rate != 0.75 {
		t.Errorf("CacheHitRate() = %f; want 0.75", rate)
	}

	// Observations replace, not accumulate.
	m.ObserveCache(1, 1)
	if rate := m.CacheHitRate(); rate != 0.5 {
		t.Errorf("CacheHitRate() = %f; want 0.5", rate)
	}
}

func TestMetrics_RecordIssue(t *testing.T) {
	m := NewMetrics()

	m.RecordIssue(SeverityError)
	m.RecordIssue(SeverityFatal)
	m.RecordIssue(SeverityWarning)
	m.RecordIssue(SeverityInformation)

	if m.ErrorsTotal() != 2 {
		t.Errorf("ErrorsTotal() = %d; want 2", m.ErrorsTotal())
	}
	if m.WarningsTotal() != 1 {
		t.Errorf("WarningsTotal() = %d; want 1", m.WarningsTotal())
	}
}

func TestMetrics_Concurrent(t *testing.T) {
	m := NewMetrics()
	var wg sync.WaitGroup

	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				m.RecordEvaluation(time.Millisecond, 1, 1)
			}
		}()
	}
	wg.Wait()

	if m.EvaluationsTotal() != 1000 {
		t.Errorf("EvaluationsTotal() = %d; want 1000", m.EvaluationsTotal())
	}
}

func TestMetrics_Collector(t *testing.T) {
	m := NewMetrics()
	m.RecordEvaluation(time.Millisecond, 3, 4)
	m.RecordFailure(time.Millisecond)
	m.ObserveCache(5, 2)
	m.RecordIssue(SeverityError)

	reg := prometheus.NewRegistry()
	if err := reg.Register(m); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	got := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			got[mf.GetName()+labelSuffix(metric)] = metric.GetCounter().GetValue()
		}
	}

	want := map[string]float64{
		"fhirpathlab_evaluations_total{ok}":                1,
		"fhirpathlab_evaluations_total{failed}":            1,
		"fhirpathlab_result_values_total":                  3,
		"fhirpathlab_trace_snapshots_total":                4,
		"fhirpathlab_expression_cache_lookups_total{hit}":  5,
		"fhirpathlab_expression_cache_lookups_total{miss}": 2,
		"fhirpathlab_outcome_issues_total{error}":          1,
		"fhirpathlab_outcome_issues_total{warning}":        0,
	}
	for name, value := range want {
		if got[name] != value {
			t.Errorf("%s = %v; want %v", name, got[name], value)
		}
	}
	if got["fhirpathlab_evaluation_seconds_total"] <= 0 {
		t.Error("fhirpathlab_evaluation_seconds_total should be positive")
	}
}

func labelSuffix(m *dto.Metric) string {
	if len(m.GetLabel()) == 0 {
		return ""
	}
	return "{" + m.GetLabel()[0].GetValue() + "}"
}
