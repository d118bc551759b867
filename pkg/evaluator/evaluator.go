// Package evaluator runs FHIRPath expressions with github.com/gofhir/fhirpath
// and exposes the results as classify.Value items.
package evaluator

import (
	"context"
	"fmt"

	"github.com/gofhir/fhirpath"
	"github.com/gofhir/fhirpath/types"

	"github.com/gofhir/fhirpathlab/cache"
	"github.com/gofhir/fhirpathlab/pkg/classify"
)

// DefaultName is the evaluator label written into reports.
const DefaultName = "gofhir/fhirpath (R4)"

// Evaluator compiles and evaluates FHIRPath expressions. Compiled
// expressions are cached by source text. It is safe for concurrent use.
type Evaluator struct {
	name  string
	exprs *cache.LRU[string, *fhirpath.Expression]
}

// New creates an Evaluator. A non-positive cacheSize uses
// cache.DefaultCapacity.
func New(name string, cacheSize int) *Evaluator {
	if name == "" {
		name = DefaultName
	}
	return &Evaluator{
		name:  name,
		exprs: cache.New[string, *fhirpath.Expression](cacheSize),
	}
}

// Name returns the evaluator label.
func (e *Evaluator) Name() string {
	return e.name
}

// Compile returns the compiled form of expression, from cache when
// available.
func (e *Evaluator) Compile(expression string) (*fhirpath.Expression, error) {
	compiled, err := e.exprs.Load(expression, func() (*fhirpath.Expression, error) {
		return fhirpath.Compile(expression)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile FHIRPath expression '%s': %w", expression, err)
	}
	return compiled, nil
}

// Evaluate evaluates expression against a JSON resource.
//
// The resource is bound to %resource and %rootResource. vars are bound
// after them, so a variable of the same name replaces either binding.
// ctx is checked by the evaluator while it iterates, and the library's
// own evaluation timeout is disabled in favor of ctx.
func (e *Evaluator) Evaluate(ctx context.Context, expression string, resource []byte, vars map[string]Variable) ([]classify.Value, error) {
	compiled, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}

	opts, err := evalOptions(ctx, resource, vars)
	if err != nil {
		return nil, err
	}

	result, err := compiled.EvaluateWithOptions(resource, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate FHIRPath expression '%s': %w", expression, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	values := make([]classify.Value, 0, len(result))
	for _, item := range result {
		values = append(values, Wrap(item))
	}
	return values, nil
}

func evalOptions(ctx context.Context, resource []byte, vars map[string]Variable) ([]fhirpath.EvalOption, error) {
	root, err := types.JSONToCollection(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to parse resource JSON: %w", err)
	}

	opts := make([]fhirpath.EvalOption, 0, len(vars)+4)
	opts = append(opts,
		fhirpath.WithContext(ctx),
		fhirpath.WithTimeout(0),
		fhirpath.WithVariable("resource", root),
		fhirpath.WithVariable("rootResource", root),
	)
	for name, v := range vars {
		value, err := v.Collection()
		if err != nil {
			return nil, fmt.Errorf("invalid variable %%%s: %w", name, err)
		}
		opts = append(opts, fhirpath.WithVariable(name, value))
	}
	return opts, nil
}

// CacheStats reports compiled-expression cache usage.
func (e *Evaluator) CacheStats() cache.Stats {
	return e.exprs.Stats()
}
