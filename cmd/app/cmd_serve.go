package main

import (
	"fmt"

	"CrashRadar/internal/di"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the forecast and market-data API.

Routes:
  GET /api/forecast      crash classification of the latest trading day
  GET /api/market-data   recent closes of a ticker (?symbol=AAPL&days=10)
  GET /api/model         served model and feature contract
  GET /healthz, /readyz  probes
  GET /metrics           Prometheus metrics`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		return fmt.Errorf("app initialization failed: %w", err)
	}
	return app.Run(cmd.Context())
}
