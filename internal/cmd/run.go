package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sdrasco/freedact/internal/audit"
	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/pipeline"
)

var (
	runInput      string
	runOutput     string
	runAuditPath  string
	runPlanPath   string
	runVerifyPath string
	runAuditDB    string
	runSigningKey string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Sanitize a document",
	Long: `Reads text from --in (or stdin), sanitizes it, and writes the result
to --out (or stdout). Optional flags export the audit trail, the plan,
and the verification report as JSON. Audit files contain the original
PII and must be handled as sensitive material.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
		}
		secret, err := cfg.ResolveSecret()
		if err != nil {
			return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
		}

		raw, err := readInput(runInput)
		if err != nil {
			return fmt.Errorf("%w: %v", errIO, err)
		}

		res, runErr := pipeline.Run(cmd.Context(), raw, cfg, secret, pipeline.Providers{})
		if res == nil && runErr != nil {
			return runErr
		}

		if err := writeOutput(runOutput, []byte(res.Sanitized)); err != nil {
			return fmt.Errorf("%w: %v", errIO, err)
		}

		rec := audit.NewRecord(raw, res.Plan, res.CharMap, res.Warnings, res.Verification)

		if runAuditPath != "" {
			if err := writeJSON(runAuditPath, rec); err != nil {
				return fmt.Errorf("%w: %v", errIO, err)
			}
		}
		if runPlanPath != "" {
			if err := writeJSON(runPlanPath, res.Plan); err != nil {
				return fmt.Errorf("%w: %v", errIO, err)
			}
		}
		if runVerifyPath != "" {
			if err := writeJSON(runVerifyPath, res.Verification); err != nil {
				return fmt.Errorf("%w: %v", errIO, err)
			}
		}
		if runAuditDB != "" {
			signingKey := runSigningKey
			if signingKey == "" {
				signingKey = os.Getenv("FREEDACT_SIGNING_KEY")
			}
			store, err := audit.NewStore(runAuditDB, signingKey)
			if err != nil {
				return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
			}
			defer store.Close()
			if err := store.Save(cmd.Context(), rec); err != nil {
				return fmt.Errorf("%w: %v", errIO, err)
			}
			log.Info().Str("run_id", rec.ID).Msg("audit record stored")
		}

		// Strict-mode verification failures surface after all artifacts
		// are written so the report is available for inspection.
		return runErr
	},
}

func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

func init() {
	runCmd.Flags().StringVarP(&runInput, "in", "i", "", "input file (default stdin)")
	runCmd.Flags().StringVarP(&runOutput, "out", "o", "", "output file (default stdout)")
	runCmd.Flags().StringVar(&runAuditPath, "audit", "", "write audit JSON to this path (sensitive)")
	runCmd.Flags().StringVar(&runPlanPath, "plan", "", "write plan JSON to this path")
	runCmd.Flags().StringVar(&runVerifyPath, "verify-report", "", "write verification JSON to this path")
	runCmd.Flags().StringVar(&runAuditDB, "audit-db", "", "persist the signed audit record in this SQLite database")
	runCmd.Flags().StringVar(&runSigningKey, "signing-key", "", "HMAC key for audit signing (>=32 bytes, or env FREEDACT_SIGNING_KEY)")
	rootCmd.AddCommand(runCmd)
}
