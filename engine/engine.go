// Package engine evaluates FHIRPath requests and assembles their reports.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"time"

	gojson "github.com/goccy/go-json"

	fv "github.com/gofhir/fhirpathlab"
	"github.com/gofhir/fhirpathlab/pkg/ast"
	"github.com/gofhir/fhirpathlab/pkg/classify"
	"github.com/gofhir/fhirpathlab/pkg/evaluator"
	"github.com/gofhir/fhirpathlab/pkg/logger"
	"github.com/gofhir/fhirpathlab/pkg/param"
	"github.com/gofhir/fhirpathlab/pkg/report"
	"github.com/gofhir/fhirpathlab/pkg/trace"
)

// Errors returned for requests missing a required input.
var (
	ErrNoExpression = &fv.InputError{Code: fv.IssueTypeRequired, Field: "expression", Message: "expression is required"}
	ErrNoResource   = &fv.InputError{Code: fv.IssueTypeRequired, Field: "resource", Message: "resource is required"}
)

// Request is one expression to evaluate against one resource.
type Request struct {
	// ID correlates batch results. Optional.
	ID string `json:"id,omitempty"`

	// Expression is the FHIRPath source text.
	Expression string `json:"expression"`

	// Resource is the FHIR resource as JSON.
	Resource gojson.RawMessage `json:"resource"`

	// Tree is the raw parse tree JSON from a FHIRPath parser. Optional;
	// without it the report has no parseDebugTree.
	Tree gojson.RawMessage `json:"tree,omitempty"`

	// Trace is a recorded debug trace dump. Optional; without it the debug
	// trace holds a single snapshot for the whole expression.
	Trace gojson.RawMessage `json:"trace,omitempty"`

	// Variables are bound as %name for the evaluation, next to %resource
	// and %rootResource. Optional.
	Variables map[string]evaluator.Variable `json:"variables,omitempty"`
}

// Engine evaluates requests. It is safe for concurrent use.
type Engine struct {
	options *fv.Options
	eval    *evaluator.Evaluator
	metrics *fv.Metrics
	log     *logger.Logger
}

// New creates an Engine with the given options.
func New(opts ...fv.Option) *Engine {
	options := fv.Apply(opts...)
	return &Engine{
		options: options,
		eval:    evaluator.New(options.Evaluator(), options.ExpressionCacheSize),
		metrics: fv.NewMetrics(),
		log:     logger.Default(),
	}
}

// SetLogger replaces the logger, which defaults to logger.Default().
func (e *Engine) SetLogger(l *logger.Logger) {
	if l != nil {
		e.log = l
	}
}

// Evaluate runs req and returns its report.
func (e *Engine) Evaluate(ctx context.Context, req Request) (*fv.Result, error) {
	start := time.Now()
	result, err := e.evaluate(ctx, req)
	elapsed := time.Since(start)

	stats := e.eval.CacheStats()
	e.metrics.ObserveCache(stats.Hits, stats.Misses)

	if err != nil {
		e.metrics.RecordFailure(elapsed)
		e.metrics.RecordIssue(fv.SeverityError)
		e.log.Debug("evaluate %q failed after %v: %v", req.Expression, elapsed, err)
		return nil, err
	}

	result.JobID = req.ID
	result.Duration = elapsed
	e.metrics.RecordEvaluation(elapsed, result.ResultCount, result.SnapshotCount)
	e.log.Debug("evaluate %q: %d values, %d snapshots in %v",
		req.Expression, result.ResultCount, result.SnapshotCount, elapsed)
	return result, nil
}

// EvaluateResult runs req and reports a failure as a Result carrying an
// OperationOutcome instead of an error.
func (e *Engine) EvaluateResult(ctx context.Context, req Request) *fv.Result {
	result, err := e.Evaluate(ctx, req)
	if err != nil {
		result = fv.FailedResult(req.Expression, err)
		result.JobID = req.ID
	}
	return result
}

func (e *Engine) evaluate(ctx context.Context, req Request) (*fv.Result, error) {
	if req.Expression == "" {
		return nil, ErrNoExpression
	}
	if len(bytes.TrimSpace(req.Resource)) == 0 {
		return nil, ErrNoResource
	}

	if e.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.options.Timeout)
		defer cancel()
	}

	focus, err := resourceValue(req.Resource)
	if err != nil {
		return nil, err
	}

	var tree *ast.RawNode
	if len(req.Tree) > 0 {
		parsed, err := ast.Decode(req.Tree)
		if err != nil {
			return nil, fmt.Errorf("failed to decode parse tree: %w", err)
		}
		tree = ast.ExpressionRoot(parsed)
	}

	values, err := e.eval.Evaluate(ctx, req.Expression, req.Resource, req.Variables)
	if err != nil {
		return nil, err
	}

	var (
		snapshots []trace.Snapshot
		calls     []trace.Call
	)
	if len(req.Trace) > 0 {
		dump, err := trace.DecodeDump(req.Trace)
		if err != nil {
			return nil, err
		}
		snapshots, calls = dump.Snapshots, dump.Calls
	} else {
		rec := trace.NewRecorder()
		rec.Record(trace.Visit{
			Node:   rootNode(req.Expression, tree),
			Focus:  focus,
			Root:   focus,
			Result: values,
		})
		snapshots = rec.Snapshots()
	}

	if e.log.Level() <= logger.LevelDebug {
		for i := range snapshots {
			e.log.Debug("%s", safeLabel(req.Expression, &snapshots[i]))
		}
	}

	params, err := e.build(report.Input{
		Evaluator:  e.options.Evaluator(),
		Expression: req.Expression,
		Tree:       tree,
		RawTree:    req.Tree,
		Results:    values,
		Calls:      calls,
		Snapshots:  snapshots,
	})
	if err != nil {
		return nil, err
	}

	result := fv.NewResult(req.Expression, params)
	result.ResultCount = len(values)
	result.SnapshotCount = len(snapshots)
	return result, nil
}

// build assembles the report. A snapshot positioned outside the expression
// makes position resolution panic; that is reported as an error.
func (e *Engine) build(in report.Input) (params *param.Parameters, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to resolve trace positions: %v", r)
		}
	}()
	return report.Build(in, report.Options{
		FullFidelity:      e.options.FullFidelity,
		IncludeRawTree:    e.options.IncludeRawTree,
		IncludeDebugTrace: e.options.IncludeDebugTrace,
	}), nil
}

func safeLabel(expression string, s *trace.Snapshot) (label string) {
	defer func() {
		if recover() != nil {
			label = fmt.Sprintf("?,%d,%s: position outside expression", s.Length, s.Name)
		}
	}()
	return trace.FormatLabel(expression, s)
}

// rootNode is the node the whole-expression snapshot is taken at: the
// parse tree root when known, else a node spanning the source text.
func rootNode(expression string, tree *ast.RawNode) *ast.RawNode {
	if tree != nil {
		node := *tree
		if node.Text == "" {
			node.Text = expression
		}
		return &node
	}
	return &ast.RawNode{
		Type:   "Expression",
		Text:   expression,
		Start:  &ast.Position{Line: 1, Column: 1},
		Length: trace.Length(expression),
	}
}

// resourceValue decodes the resource as the root focus of the evaluation.
func resourceValue(resource []byte) ([]classify.Value, error) {
	dec := gojson.NewDecoder(bytes.NewReader(resource))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to parse resource JSON: %w", err)
	}
	item := &classify.Item{Raw: data}
	if obj, ok := data.(map[string]any); ok {
		if rt, ok := obj["resourceType"].(string); ok {
			item.FHIRNodeType = rt
			item.Path = rt
		}
	}
	return []classify.Value{item}, nil
}

// Metrics returns the engine's metrics.
func (e *Engine) Metrics() *fv.Metrics {
	return e.metrics
}

// Options returns the engine's options.
func (e *Engine) Options() *fv.Options {
	return e.options
}

// Evaluator returns the underlying FHIRPath evaluator.
func (e *Engine) Evaluator() *evaluator.Evaluator {
	return e.eval
}
