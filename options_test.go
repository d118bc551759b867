package fhirpathlab

import (
	"runtime"
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.Version != R4 {
		t.Errorf("Version = %v; want R4", opts.Version)
	}
	if !opts.FullFidelity {
		t.Error("FullFidelity should be true by default")
	}
	if !opts.IncludeRawTree {
		t.Error("IncludeRawTree should be true by default")
	}
	if !opts.IncludeDebugTrace {
		t.Error("IncludeDebugTrace should be true by default")
	}
	if opts.WorkerCount != runtime.NumCPU() {
		t.Errorf("WorkerCount = %d; want %d", opts.WorkerCount, runtime.NumCPU())
	}
	if opts.ExpressionCacheSize != 2000 {
		t.Errorf("ExpressionCacheSize = %d; want 2000", opts.ExpressionCacheSize)
	}
	if opts.Timeout != 0 {
		t.Errorf("Timeout = %v; want 0", opts.Timeout)
	}
}

func TestApply(t *testing.T) {
	opts := Apply(
		WithVersion(R5),
		WithFullFidelity(false),
		WithRawTree(false),
		WithDebugTrace(false),
		WithWorkerCount(3),
		WithExpressionCacheSize(10),
		WithTimeout(time.Second),
	)

	if opts.Version != R5 {
		t.Errorf("Version = %v; want R5", opts.Version)
	}
	if opts.FullFidelity || opts.IncludeRawTree || opts.IncludeDebugTrace {
		t.Errorf("report flags = %v/%v/%v; want all false",
			opts.FullFidelity, opts.IncludeRawTree, opts.IncludeDebugTrace)
	}
	if opts.WorkerCount != 3 {
		t.Errorf("WorkerCount = %d; want 3", opts.WorkerCount)
	}
	if opts.ExpressionCacheSize != 10 {
		t.Errorf("ExpressionCacheSize = %d; want 10", opts.ExpressionCacheSize)
	}
	if opts.Timeout != time.Second {
		t.Errorf("Timeout = %v; want 1s", opts.Timeout)
	}
}

func TestOptions_IgnoreInvalidValues(t *testing.T) {
	opts := Apply(
		WithVersion("R3"),
		WithWorkerCount(0),
		WithExpressionCacheSize(-1),
		WithTimeout(-time.Second),
	)
	def := DefaultOptions()

	if opts.Version != def.Version {
		t.Errorf("Version = %v; want %v", opts.Version, def.Version)
	}
	if opts.WorkerCount != def.WorkerCount {
		t.Errorf("WorkerCount = %d; want %d", opts.WorkerCount, def.WorkerCount)
	}
	if opts.ExpressionCacheSize != def.ExpressionCacheSize {
		t.Errorf("ExpressionCacheSize = %d; want %d", opts.ExpressionCacheSize, def.ExpressionCacheSize)
	}
	if opts.Timeout != 0 {
		t.Errorf("Timeout = %v; want 0", opts.Timeout)
	}
}

func TestOptions_Evaluator(t *testing.T) {
	if got := Apply().Evaluator(); got != "gofhir/fhirpath (R4)" {
		t.Errorf("Evaluator() = %q; want default R4 label", got)
	}
	if got := Apply(WithVersion(R5)).Evaluator(); got != "gofhir/fhirpath (R5)" {
		t.Errorf("Evaluator() = %q; want R5 label", got)
	}
	if got := Apply(WithEvaluatorName("fhirpath.js 3.15")).Evaluator(); got != "fhirpath.js 3.15" {
		t.Errorf("Evaluator() = %q; want override", got)
	}
}

func TestPresets(t *testing.T) {
	opts := Apply(ResultOnlyOptions()...)
	if opts.IncludeRawTree || opts.IncludeDebugTrace {
		t.Error("ResultOnlyOptions should disable raw tree and debug trace")
	}
	if !opts.FullFidelity {
		t.Error("ResultOnlyOptions should keep full fidelity")
	}

	opts = Apply(CompactOptions()...)
	if opts.IncludeRawTree || opts.FullFidelity {
		t.Error("CompactOptions should disable raw tree and full fidelity")
	}
	if !opts.IncludeDebugTrace {
		t.Error("CompactOptions should keep the debug trace")
	}
}
