// Package main implements the fhirpathlab CLI tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// errFailed signals that a command already reported its failure and only
// the exit status remains.
var errFailed = errors.New("evaluation failed")

// cfg is resolved from the environment and flags before any subcommand runs.
var cfg *Config

var rootCmd = &cobra.Command{
	Use:   "fhirpathlab",
	Short: "FHIRPath evaluation lab",
	Long: `fhirpathlab evaluates FHIRPath expressions against FHIR resources and
reports the result values, the simplified parse tree and a per-node debug
trace as a FHIR Parameters resource.

Configuration is read from FHIRPATHLAB_* environment variables, optionally
loaded from a .env file, and can be overridden by flags.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(evalCmd)
	rootCmd.AddCommand(simplifyCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("env-file", "", "load environment from this file instead of .env")
	flags.String("fhir-version", "", "FHIR version: R4, R4B, R5 (env "+envFHIRVersion+")")
	flags.String("log-level", "", "log level: debug, info, warn, error, none (env "+envLogLevel+")")
	flags.Int("workers", 0, "parallel workers for batch evaluation (env "+envWorkers+")")
	flags.Duration("timeout", 0, "per-evaluation timeout, 0 for none (env "+envTimeout+")")
	flags.String("color", "", "colorize output: auto, on, off (env "+envColor+")")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, _ []string) error {
	envFile, err := cmd.Flags().GetString("env-file")
	if err != nil {
		return err
	}
	if err := loadEnv(envFile); err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}

	c, err := configFromEnv(os.LookupEnv)
	if err != nil {
		return err
	}
	if err := c.applyFlags(cmd); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	c.apply()
	cfg = c
	return nil
}
