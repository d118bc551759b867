// Package trace records evaluator state at visited expression nodes and
// resolves node positions into offsets and labels.
//
// A Snapshot is captured for each visited node whose kind is displayed in
// the debug tree. Snapshots are kept in visit order; consumers rely on
// that order, so nothing in this package reorders them.
package trace

import "github.com/gofhir/fhirpathlab/pkg/classify"

// Snapshot is the evaluator state captured at one expression node.
type Snapshot struct {
	// Name is the display name of the node: its source text, "constant"
	// for literals and "[]" for indexers.
	Name string

	// Type is the parse tree production of the node.
	Type string

	// Line and Column are 0-based. HasPosition is false when the parser
	// reported no start position.
	Line        int
	Column      int
	HasPosition bool

	// Length is the node's span in characters.
	Length int

	// Values is the node's result collection.
	Values []classify.Value

	// This holds the $this context, or the root data outside iterations.
	This []classify.Value

	// Focus is the input collection of the node.
	Focus []classify.Value

	// Index is $index inside iterating functions, nil elsewhere.
	Index *int

	// Total is $total inside aggregate(), nil elsewhere.
	Total []classify.Value
}

// Call is one explicit trace() invocation made by the expression.
type Call struct {
	Label  string
	Values []classify.Value
}
