// Package cmd implements the freedact CLI.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sdrasco/freedact/internal/otel"
	"github.com/sdrasco/freedact/internal/pipeline"
)

// Exit codes, matched by external drivers.
const (
	ExitOK           = 0
	ExitIO           = 3
	ExitConfig       = 4
	ExitPipeline     = 5
	ExitVerification = 6
)

// Version info injected via ldflags at build time.
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

var (
	otelShutdown func(context.Context) error

	cfgFile   string
	verbose   bool
	logLevel  string
	logFormat string
	otelFlag  bool
)

// resolvedVersion returns Version unless it is "dev" and Go build info
// carries a real module version.
func resolvedVersion() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}

var rootCmd = &cobra.Command{
	Use:   "freedact",
	Short: "Deterministic PII pseudonymization for text documents",
	Long: `Freedact sanitizes free-form text by replacing personally identifying
information with deterministic, shape-preserving pseudonyms. It runs
fully offline and records every change in a signed audit trail.`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()

		otelEnabled := otelFlag || os.Getenv("FREEDACT_OTEL_ENABLED") == "true"
		shutdown, err := otel.Setup("freedact", resolvedVersion(), otelEnabled)
		if err != nil {
			return fmt.Errorf("initializing OpenTelemetry: %w", err)
		}
		otelShutdown = shutdown
		return nil
	},
}

func setupLogging() {
	level := zerolog.WarnLevel
	if parsed, err := zerolog.ParseLevel(logLevel); err == nil && logLevel != "" {
		level = parsed
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if logFormat != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// exitCodeFor maps an error to the documented exit codes.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, pipeline.ErrVerification):
		return ExitVerification
	case errors.Is(err, pipeline.ErrConfig):
		return ExitConfig
	case errors.Is(err, errIO):
		return ExitIO
	default:
		return ExitPipeline
	}
}

// errIO tags filesystem problems for exit-code mapping.
var errIO = errors.New("io error")

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = otelShutdown(ctx)
		cancel()
	}
	if err != nil {
		log.Error().Err(err).Msg("freedact failed")
		return exitCodeFor(err)
	}
	return ExitOK
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console|json)")
	rootCmd.PersistentFlags().BoolVar(&otelFlag, "otel", false, "enable OpenTelemetry tracing")
}
