package main

import (
	"fmt"
	"io"
	"os"

	gojson "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	fv "github.com/gofhir/fhirpathlab"
	"github.com/gofhir/fhirpathlab/engine"
	"github.com/gofhir/fhirpathlab/pkg/logger"
	"github.com/gofhir/fhirpathlab/stream"
)

var batchCmd = &cobra.Command{
	Use:   "batch [flags] [requests.json...]",
	Short: "Evaluate streams of requests",
	Long: `Batch evaluates the requests in each file, or standard input when no file is
given. A file holds a JSON array of requests or newline-delimited requests.
Each request is an object with "expression", "resource" and the optional
"id", "tree" and "trace" members, or a FHIR Parameters resource with the
same parameters.

Results are printed in input order.`,
	Example: `  fhirpathlab batch requests.ndjson
  fhirpathlab batch --workers 8 -o json a.json b.json
  cat requests.json | fhirpathlab batch --metrics`,
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringP("output", "o", "text", "output format (text|json)")
	batchCmd.Flags().Bool("sequential", false, "evaluate one request at a time")
	batchCmd.Flags().Bool("metrics", false, "print evaluation metrics to stderr when done")
}

// batchEntry is one evaluated request in JSON output.
type batchEntry struct {
	Source     string `json:"source"`
	Index      int    `json:"index"`
	ID         string `json:"id,omitempty"`
	Expression string `json:"expression,omitempty"`
	Resource   any    `json:"resource"`
}

func newBatchEntry(source string, r *stream.EntryResult) batchEntry {
	e := batchEntry{
		Source:     source,
		Index:      r.Index,
		ID:         r.ID,
		Expression: r.Expression,
	}
	if r.Result != nil {
		e.Resource = r.Result.Resource()
	} else {
		e.Resource = fv.OutcomeFromError(r.Error)
	}
	return e
}

func runBatch(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown output format: %s", format)
	}
	sequential, _ := cmd.Flags().GetBool("sequential")
	withMetrics, _ := cmd.Flags().GetBool("metrics")

	eng := engine.New(cfg.engineOptions()...)
	eng.SetLogger(logger.Default())
	runner := stream.NewRunner(eng).WithWorkerCount(eng.Options().WorkerCount)

	sources := args
	if len(sources) == 0 {
		sources = []string{"-"}
	}

	out := cmd.OutOrStdout()
	var entries []batchEntry
	failed := false

	for _, source := range sources {
		in, closeFn, err := openInput(cmd.InOrStdin(), source)
		if err != nil {
			return err
		}

		var results <-chan *stream.EntryResult
		if sequential {
			results = runner.Evaluate(cmd.Context(), in)
		} else {
			results = runner.EvaluateParallel(cmd.Context(), in)
		}

		summary := consume(results, func(r *stream.EntryResult) {
			if format == "json" {
				entries = append(entries, newBatchEntry(source, r))
				return
			}
			printEntry(out, r)
		})
		closeFn()

		logger.Info("%s: %s", source, summary)
		if format == "text" {
			printSummary(out, source, summary)
		}
		if summary.HasErrors() {
			failed = true
		}
	}

	if format == "json" {
		if entries == nil {
			entries = []batchEntry{}
		}
		b, err := gojson.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode results: %w", err)
		}
		fmt.Fprintln(out, string(b))
	}

	if withMetrics {
		if err := writeMetrics(cmd.ErrOrStderr(), eng.Metrics()); err != nil {
			return err
		}
	}

	if failed {
		return errFailed
	}
	return nil
}

// consume hands every result to fn in order and returns their summary.
func consume(results <-chan *stream.EntryResult, fn func(*stream.EntryResult)) *stream.Summary {
	tee := make(chan *stream.EntryResult)
	done := make(chan *stream.Summary, 1)
	go func() {
		done <- stream.Aggregate(tee)
	}()

	for r := range results {
		fn(r)
		tee <- r
	}
	close(tee)
	return <-done
}

func openInput(stdin io.Reader, path string) (io.Reader, func(), error) {
	if path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// writeMetrics renders the engine metrics in the Prometheus text format.
func writeMetrics(w io.Writer, metrics *fv.Metrics) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}
