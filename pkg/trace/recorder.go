package trace

import (
	"sync"

	"github.com/gofhir/fhirpathlab/pkg/ast"
	"github.com/gofhir/fhirpathlab/pkg/classify"
)

// Node kinds that produce a snapshot when visited.
var tracedKinds = map[string]bool{
	ast.KindLiteralTerm:          true,
	ast.KindExternalConstantTerm: true,
	ast.KindMemberInvocation:     true,
	ast.KindFunctionInvocation:   true,
	"ThisInvocation":             true,
	"IndexInvocation":            true,
	"TotalInvocation":            true,
	"IndexerExpression":          true,
	"PolarityExpression":         true,
	"MultiplicativeExpression":   true,
	"AdditiveExpression":         true,
	"TypeExpression":             true,
	"UnionExpression":            true,
	"InequalityExpression":       true,
	"EqualityExpression":         true,
	"MembershipExpression":       true,
	"AndExpression":              true,
	"OrExpression":               true,
	"ImpliesExpression":          true,
}

// Traced reports whether visiting a node of kind records a snapshot.
func Traced(kind string) bool {
	return tracedKinds[kind]
}

// Visit describes one node visit reported by the evaluator.
type Visit struct {
	// Node is the parse tree node being evaluated. Its Start is 1-based.
	Node *ast.RawNode

	// Focus is the node's input collection.
	Focus []classify.Value

	// This is the $this context; Root is used when This is empty.
	This []classify.Value
	Root []classify.Value

	// Index is $index inside iterating functions.
	Index *int

	// Total is $total inside aggregate().
	Total []classify.Value

	// Result is the node's output collection.
	Result []classify.Value
}

// Recorder accumulates snapshots and trace() calls for one evaluation.
// It is safe for concurrent use, but snapshots are only meaningful in
// the order a single evaluation reports them.
type Recorder struct {
	mu        sync.Mutex
	snapshots []Snapshot
	calls     []Call
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Visit records a snapshot for v if its node kind is traced. It reports
// whether a snapshot was recorded.
func (r *Recorder) Visit(v Visit) bool {
	if v.Node == nil || !Traced(v.Node.Type) {
		return false
	}
	r.Record(v)
	return true
}

// Record records a snapshot for v whatever its node kind. It is used for
// the outermost expression node, which has no traced kind of its own when
// it is a plain invocation chain.
func (r *Recorder) Record(v Visit) {
	if v.Node == nil {
		return
	}
	s := Snapshot{
		Name:   v.Node.Text,
		Type:   v.Node.Type,
		Length: v.Node.Length,
		Index:  v.Index,
		Total:  v.Total,
		Focus:  compact(v.Focus),
		Values: compact(v.Result),
	}
	if v.Node.Start != nil {
		s.Line = v.Node.Start.Line - 1
		s.Column = v.Node.Start.Column - 1
		s.HasPosition = true
	}
	switch v.Node.Type {
	case ast.KindLiteralTerm:
		s.Name = "constant"
	case "IndexerExpression":
		s.Name = "[]"
	}
	if len(v.This) > 0 {
		s.This = compact(v.This)
	} else {
		s.This = compact(v.Root)
	}

	r.mu.Lock()
	r.snapshots = append(r.snapshots, s)
	r.mu.Unlock()
}

// Trace records an explicit trace() call.
func (r *Recorder) Trace(label string, values ...classify.Value) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{Label: label, Values: compact(values)})
	r.mu.Unlock()
}

// Snapshots returns the recorded snapshots in visit order.
func (r *Recorder) Snapshots() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snapshots...)
}

// Calls returns the recorded trace() calls in call order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Last returns the most recent snapshot, which for a complete evaluation
// is the outermost expression node.
func (r *Recorder) Last() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return Snapshot{}, false
	}
	return r.snapshots[len(r.snapshots)-1], true
}

// compact drops nil entries, keeping order.
func compact(values []classify.Value) []classify.Value {
	out := make([]classify.Value, 0, len(values))
	for _, v := range values {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}
