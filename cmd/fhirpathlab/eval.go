package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	fv "github.com/gofhir/fhirpathlab"
	"github.com/gofhir/fhirpathlab/engine"
	"github.com/gofhir/fhirpathlab/pkg/logger"
)

var evalCmd = &cobra.Command{
	Use:   "eval [flags] expression resource.json",
	Short: "Evaluate an expression against a resource",
	Long: `Eval evaluates a FHIRPath expression against a FHIR resource read from a
file, or standard input when the file is "-".

A raw parse tree (--tree) adds the simplified parseDebugTree to the report.
A recorded debug trace dump (--trace) replaces the synthesized debug trace.`,
	Example: `  fhirpathlab eval 'Patient.name.given' patient.json
  fhirpathlab eval --tree tree.json --trace dump.json 'Patient.id' patient.json
  cat patient.json | fhirpathlab eval -o json 'name.family' -`,
	Args: cobra.ExactArgs(2),
	RunE: runEval,
}

func init() {
	evalCmd.Flags().String("tree", "", "raw parse tree JSON file")
	evalCmd.Flags().String("trace", "", "debug trace dump JSON file")
	evalCmd.Flags().StringP("output", "o", "text", "output format (text|json)")
	evalCmd.Flags().Bool("no-debug-trace", false, "omit the debug-trace parameter")
	evalCmd.Flags().Bool("no-raw-tree", false, "omit the parseDebugTreeJs echo")
}

func runEval(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	if format != "text" && format != "json" {
		return fmt.Errorf("unknown output format: %s", format)
	}

	req := engine.Request{Expression: args[0]}
	if req.Resource, err = readInput(cmd.InOrStdin(), args[1]); err != nil {
		return err
	}
	if req.Tree, err = readFlagFile(cmd, "tree"); err != nil {
		return err
	}
	if req.Trace, err = readFlagFile(cmd, "trace"); err != nil {
		return err
	}

	var extra []fv.Option
	if off, _ := cmd.Flags().GetBool("no-debug-trace"); off {
		extra = append(extra, fv.WithDebugTrace(false))
	}
	if off, _ := cmd.Flags().GetBool("no-raw-tree"); off {
		extra = append(extra, fv.WithRawTree(false))
	}

	eng := engine.New(cfg.engineOptions(extra...)...)
	eng.SetLogger(logger.Default())

	result := eng.EvaluateResult(cmd.Context(), req)

	out := cmd.OutOrStdout()
	if format == "json" {
		b, err := result.MarshalIndent()
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Fprintln(out, string(b))
	} else {
		printResult(out, result, req.Resource)
	}

	if result.HasErrors() {
		return errFailed
	}
	return nil
}

// readInput reads path, or stdin when path is "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func readFlagFile(cmd *cobra.Command, name string) ([]byte, error) {
	path, err := cmd.Flags().GetString(name)
	if err != nil || path == "" {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read --%s: %w", name, err)
	}
	return data, nil
}
