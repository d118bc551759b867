package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	fv "github.com/gofhir/fhirpathlab"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and supported FHIR releases",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "fhirpathlab %s\n", color.New(color.FgYellow, color.Bold).Sprint("v"+version))
		for _, v := range []fv.FHIRVersion{fv.R4, fv.R4B, fv.R5} {
			marker := " "
			if cfg != nil && cfg.Version == v {
				marker = "*"
			}
			fmt.Fprintf(out, " %s %-4s %-6s %s\n", marker, v, v.FHIRVersionString(), v.EvaluatorLabel())
		}
	},
}
