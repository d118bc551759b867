// Package report assembles the Parameters resource returned for one
// FHIRPath evaluation: request echo and parse tree, typed results,
// trace() output and the per-node debug trace.
package report

import (
	gojson "github.com/goccy/go-json"

	"github.com/gofhir/fhirpathlab/pkg/ast"
	"github.com/gofhir/fhirpathlab/pkg/classify"
	"github.com/gofhir/fhirpathlab/pkg/param"
	"github.com/gofhir/fhirpathlab/pkg/trace"
	"github.com/gofhir/fhirpathlab/pool"
)

// Parameter names of the report layout.
const (
	NameParameters       = "parameters"
	NameEvaluator        = "evaluator"
	NameExpression       = "expression"
	NameResource         = "resource"
	NameParseDebugTree   = "parseDebugTree"
	NameParseDebugTreeJs = "parseDebugTreeJs"
	NameResult           = "result"
	NameTrace            = "trace"
	NameDebugTrace       = "debug-trace"
	NameIndex            = "index"

	PrefixThis  = "this-"
	PrefixFocus = "focus-"
)

// Input is everything known about one evaluation.
type Input struct {
	Evaluator  string
	Expression string

	// Tree is the expression node of the parse tree, if available.
	Tree *ast.RawNode

	// RawTree is the parser's JSON for Tree, echoed when IncludeRawTree
	// is set.
	RawTree []byte

	// Results is the evaluation result. When nil, the values of the last
	// snapshot are used instead.
	Results []classify.Value

	Calls     []trace.Call
	Snapshots []trace.Snapshot
}

// Options control which sections are written.
type Options struct {
	// FullFidelity renders unclassifiable results as JSON extensions.
	FullFidelity bool

	IncludeRawTree    bool
	IncludeDebugTrace bool
}

// DefaultOptions writes every section with full-fidelity results.
func DefaultOptions() Options {
	return Options{
		FullFidelity:      true,
		IncludeRawTree:    true,
		IncludeDebugTrace: true,
	}
}

// Build assembles the report. Snapshot labels resolve positions against
// in.Expression; a snapshot positioned past the end of the expression
// panics (see trace.Offset).
func Build(in Input, opts Options) *param.Parameters {
	out := param.NewParameters()

	meta := out.Add(param.New(NameParameters))
	meta.AddPart(param.String(NameEvaluator, in.Evaluator))
	meta.AddPart(param.String(NameExpression, in.Expression))
	meta.AddPart(param.New(NameResource))
	if in.Tree != nil {
		if b, err := ast.Simplify(in.Tree).MarshalIndent(); err == nil {
			meta.AddPart(param.String(NameParseDebugTree, string(b)))
		}
		if opts.IncludeRawTree && len(in.RawTree) > 0 {
			buf := pool.AcquireBuffer()
			if err := gojson.Indent(buf, in.RawTree, "", "  "); err == nil {
				meta.AddPart(param.String(NameParseDebugTreeJs, buf.String()))
			}
			pool.ReleaseBuffer(buf)
		}
	}

	result := out.Add(param.New(NameResult))
	results := in.Results
	if results == nil && len(in.Snapshots) > 0 {
		results = in.Snapshots[len(in.Snapshots)-1].Values
	}
	for _, v := range results {
		result.AddPart(classify.Classify(v, opts.FullFidelity))
	}
	for _, call := range in.Calls {
		t := result.AddPart(param.String(NameTrace, call.Label))
		for _, v := range call.Values {
			t.AddPart(classify.Classify(v, opts.FullFidelity))
		}
	}

	if opts.IncludeDebugTrace {
		out.Add(DebugTrace(in.Expression, in.Snapshots))
	}
	return out
}

// DebugTrace renders snapshots as a "debug-trace" parameter with one part
// per snapshot, in snapshot order.
func DebugTrace(expression string, snapshots []trace.Snapshot) *param.Parameter {
	dt := param.New(NameDebugTrace)
	for i := range snapshots {
		s := &snapshots[i]
		item := dt.AddPart(param.New(trace.NodeLabel(expression, s)))
		for _, v := range s.Values {
			item.AddPart(classify.Classify(v, false))
		}
		addPrefixed(item, PrefixThis, s.This)
		addPrefixed(item, PrefixFocus, s.Focus)
		if s.Index != nil {
			item.AddPart(param.Integer(NameIndex, int64(*s.Index)))
		}
	}
	return dt
}

func addPrefixed(item *param.Parameter, prefix string, values []classify.Value) {
	for _, v := range values {
		p := classify.Classify(v, false)
		p.Name = prefix + p.Name
		item.AddPart(p)
	}
}
