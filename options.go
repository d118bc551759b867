package fhirpathlab

import (
	"runtime"
	"time"
)

// Option configures an evaluation engine.
type Option func(*Options)

// Options holds all configuration for an evaluation engine.
type Options struct {
	// Version selects the FHIR release the evaluator is labelled with.
	Version FHIRVersion

	// EvaluatorName overrides the evaluator label in reports.
	EvaluatorName string

	// Report sections
	FullFidelity      bool
	IncludeRawTree    bool
	IncludeDebugTrace bool

	// Performance
	WorkerCount         int
	ExpressionCacheSize int
	Timeout             time.Duration
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		Version: R4,

		FullFidelity:      true,
		IncludeRawTree:    true,
		IncludeDebugTrace: true,

		WorkerCount:         runtime.NumCPU(),
		ExpressionCacheSize: 2000,
		Timeout:             0, // no timeout
	}
}

// Apply returns DefaultOptions with opts applied in order.
func Apply(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Evaluator returns the evaluator label: EvaluatorName when set, else the
// version's label.
func (o *Options) Evaluator() string {
	if o.EvaluatorName != "" {
		return o.EvaluatorName
	}
	return o.Version.EvaluatorLabel()
}

// WithVersion sets the FHIR version. Unsupported versions are ignored.
func WithVersion(v FHIRVersion) Option {
	return func(o *Options) {
		if v.IsValid() {
			o.Version = v
		}
	}
}

// WithEvaluatorName overrides the evaluator label written into reports.
func WithEvaluatorName(name string) Option {
	return func(o *Options) {
		o.EvaluatorName = name
	}
}

// WithFullFidelity renders result values no typed slot can hold as JSON
// extensions. When disabled they are reduced to their resource path.
func WithFullFidelity(enable bool) Option {
	return func(o *Options) {
		o.FullFidelity = enable
	}
}

// WithRawTree echoes the parser's raw tree JSON as parseDebugTreeJs.
func WithRawTree(enable bool) Option {
	return func(o *Options) {
		o.IncludeRawTree = enable
	}
}

// WithDebugTrace adds the per-node debug-trace parameter.
func WithDebugTrace(enable bool) Option {
	return func(o *Options) {
		o.IncludeDebugTrace = enable
	}
}

// WithWorkerCount sets the number of workers for batch evaluation.
// Defaults to runtime.NumCPU().
func WithWorkerCount(count int) Option {
	return func(o *Options) {
		if count > 0 {
			o.WorkerCount = count
		}
	}
}

// WithExpressionCacheSize sets the compiled expression cache size.
func WithExpressionCacheSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.ExpressionCacheSize = size
		}
	}
}

// WithTimeout bounds each evaluation. Use 0 for no timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		if timeout >= 0 {
			o.Timeout = timeout
		}
	}
}

// --- Presets ---

// ResultOnlyOptions returns options for reports without parse tree echo
// or debug trace.
func ResultOnlyOptions() []Option {
	return []Option{
		WithRawTree(false),
		WithDebugTrace(false),
	}
}

// CompactOptions returns options for small reports: no raw tree and
// unclassifiable values reduced to their resource path.
func CompactOptions() []Option {
	return []Option{
		WithRawTree(false),
		WithFullFidelity(false),
	}
}
