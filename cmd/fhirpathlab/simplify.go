package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gofhir/fhirpathlab/pkg/ast"
)

var simplifyCmd = &cobra.Command{
	Use:   "simplify [flags] [tree.json]",
	Short: "Simplify a raw FHIRPath parse tree",
	Long: `Simplify reads a raw parse tree as produced by a FHIRPath parser and prints
the simplified display tree. The tree is read from standard input when no
file is given.

By default the two wrapper levels of a full parser result are skipped; use
--root when the input is already the expression node.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSimplify,
}

func init() {
	simplifyCmd.Flags().Bool("root", false, "input is the expression node, not a full parser result")
}

func runSimplify(cmd *cobra.Command, args []string) error {
	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	data, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	isRoot, _ := cmd.Flags().GetBool("root")
	tree, err := simplify(data, isRoot)
	if err != nil {
		return err
	}

	b, err := tree.MarshalIndent()
	if err != nil {
		return fmt.Errorf("failed to encode tree: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}

func simplify(data []byte, isRoot bool) (*ast.DisplayNode, error) {
	raw, err := ast.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode parse tree: %w", err)
	}
	if !isRoot {
		raw = ast.ExpressionRoot(raw)
	}
	tree := ast.Simplify(raw)
	if tree == nil {
		return nil, errors.New("empty parse tree")
	}
	return tree, nil
}
