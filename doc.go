// Package fhirpathlab turns FHIRPath evaluations into inspectable FHIR
// Parameters resources.
//
// An evaluation report carries three views of one expression run against
// one resource: the simplified parse tree, the typed result values and a
// debug trace of the intermediate collections at each expression node.
//
// # Quick Start
//
//	import (
//	    lab "github.com/gofhir/fhirpathlab"
//	    "github.com/gofhir/fhirpathlab/engine"
//	)
//
//	e := engine.New(lab.WithFullFidelity(true))
//
//	res, err := e.Evaluate(ctx, engine.Request{
//	    Expression: "Patient.name.given",
//	    Resource:   patientJSON,
//	})
//	if err != nil {
//	    outcome := lab.OutcomeFromError(err)
//	    // report outcome
//	}
//	out, _ := res.Parameters.MarshalIndent()
//
// # Components
//
//   - pkg/ast: simplifies a raw FHIRPath parse tree into a display tree
//   - pkg/classify: maps result values onto typed Parameters slots
//   - pkg/trace: records node snapshots and resolves their source offsets
//   - pkg/report: assembles the Parameters resource
//   - engine: orchestrates one evaluation; worker runs batches in parallel
//   - stream: evaluates JSON or NDJSON request streams in input order
//   - pkg/location: finds the line and column of a resource path
//
// # Functional Options
//
//	e := engine.New(
//	    lab.WithDebugTrace(true),
//	    lab.WithRawTree(false),
//	    lab.WithExpressionCacheSize(500),
//	)
package fhirpathlab
