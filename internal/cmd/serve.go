package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sdrasco/freedact/internal/config"
	"github.com/sdrasco/freedact/internal/pipeline"
	"github.com/sdrasco/freedact/internal/server"
)

var (
	serveAddr      string
	serveRPM       int
	serveCallerRPM int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sanitization HTTP API",
	Long: `Starts an HTTP server exposing POST /v1/sanitize. The endpoint
accepts plain text and returns the sanitized text plus the verification
report as JSON. Audit bundles stay on the server side.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
		}
		secret, err := cfg.ResolveSecret()
		if err != nil {
			return fmt.Errorf("%w: %v", pipeline.ErrConfig, err)
		}

		srv := server.New(cfg, secret,
			server.WithLimits(server.Limits{
				GlobalRPM: serveRPM,
				CallerRPM: serveCallerRPM,
			}),
		)
		log.Info().Str("addr", serveAddr).Msg("freedact API listening")
		return srv.ListenAndServe(cmd.Context(), serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8343", "listen address")
	serveCmd.Flags().IntVar(&serveRPM, "rpm", 600, "global requests per minute")
	serveCmd.Flags().IntVar(&serveCallerRPM, "caller-rpm", 120, "per-caller requests per minute")
	rootCmd.AddCommand(serveCmd)
}
