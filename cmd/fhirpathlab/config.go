package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	fv "github.com/gofhir/fhirpathlab"
	"github.com/gofhir/fhirpathlab/pkg/logger"
)

// Environment variables read by the CLI.
const (
	envFHIRVersion  = "FHIRPATHLAB_FHIR_VERSION"
	envLogLevel     = "FHIRPATHLAB_LOG_LEVEL"
	envWorkers      = "FHIRPATHLAB_WORKERS"
	envTimeout      = "FHIRPATHLAB_TIMEOUT"
	envFullFidelity = "FHIRPATHLAB_FULL_FIDELITY"
	envColor        = "FHIRPATHLAB_COLOR"
)

// Config holds CLI configuration.
type Config struct {
	Version      fv.FHIRVersion
	LogLevel     logger.Level
	Workers      int
	Timeout      time.Duration
	FullFidelity bool
	Color        string
}

func defaultConfig() *Config {
	return &Config{
		Version:      fv.R4,
		LogLevel:     logger.LevelWarn,
		Workers:      runtime.NumCPU(),
		FullFidelity: true,
		Color:        "auto",
	}
}

// loadEnv loads file into the process environment. Without a file the
// optional .env in the working directory is loaded. Variables already set
// are not overridden.
func loadEnv(file string) error {
	if file != "" {
		return godotenv.Load(file)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// configFromEnv reads the FHIRPATHLAB_* variables through lookup.
func configFromEnv(lookup func(string) (string, bool)) (*Config, error) {
	c := defaultConfig()

	if v, ok := lookup(envFHIRVersion); ok && v != "" {
		c.Version = fv.FHIRVersion(strings.ToUpper(strings.TrimSpace(v)))
	}
	if v, ok := lookup(envLogLevel); ok {
		level, err := logger.ParseLevel(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", envLogLevel, err)
		}
		c.LogLevel = level
	}
	if v, ok := lookup(envWorkers); ok && v != "" {
		n, err := cast.ToIntE(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", envWorkers, err)
		}
		c.Workers = n
	}
	if v, ok := lookup(envTimeout); ok && v != "" {
		d, err := cast.ToDurationE(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", envTimeout, err)
		}
		c.Timeout = d
	}
	if v, ok := lookup(envFullFidelity); ok && v != "" {
		b, err := cast.ToBoolE(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", envFullFidelity, err)
		}
		c.FullFidelity = b
	}
	if v, ok := lookup(envColor); ok && v != "" {
		c.Color = strings.ToLower(strings.TrimSpace(v))
	}

	return c, nil
}

// applyFlags overrides c with the persistent flags set on the command line.
func (c *Config) applyFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()

	if flags.Changed("fhir-version") {
		v, err := flags.GetString("fhir-version")
		if err != nil {
			return err
		}
		c.Version = fv.FHIRVersion(strings.ToUpper(v))
	}
	if flags.Changed("log-level") {
		v, err := flags.GetString("log-level")
		if err != nil {
			return err
		}
		level, err := logger.ParseLevel(v)
		if err != nil {
			return err
		}
		c.LogLevel = level
	}
	if flags.Changed("workers") {
		n, err := flags.GetInt("workers")
		if err != nil {
			return err
		}
		c.Workers = n
	}
	if flags.Changed("timeout") {
		d, err := flags.GetDuration("timeout")
		if err != nil {
			return err
		}
		c.Timeout = d
	}
	if flags.Changed("color") {
		v, err := flags.GetString("color")
		if err != nil {
			return err
		}
		c.Color = strings.ToLower(v)
	}
	return nil
}

func (c *Config) validate() error {
	if !c.Version.IsValid() {
		return fmt.Errorf("unsupported FHIR version %q (use R4, R4B or R5)", c.Version)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", c.Timeout)
	}
	switch c.Color {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("unknown color mode %q (use auto, on or off)", c.Color)
	}
	return nil
}

// apply installs the logger and color mode.
func (c *Config) apply() {
	logger.SetDefault(logger.New(os.Stderr, c.LogLevel))

	switch c.Color {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	}
}

// engineOptions returns the engine options for c followed by extra.
func (c *Config) engineOptions(extra ...fv.Option) []fv.Option {
	opts := []fv.Option{
		fv.WithVersion(c.Version),
		fv.WithWorkerCount(c.Workers),
		fv.WithTimeout(c.Timeout),
		fv.WithFullFidelity(c.FullFidelity),
	}
	return append(opts, extra...)
}
