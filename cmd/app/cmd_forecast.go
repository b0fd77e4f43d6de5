package main

import (
	"encoding/json"
	"fmt"

	"CrashRadar/internal/di"

	"github.com/spf13/cobra"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Run the forecast pipeline once and print the result as JSON",
	Example: `  crashradar forecast --config config/config.yaml`,
	RunE:    runForecast,
}

func init() {
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := di.InitializeServices(cfg)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	svc.Pipeline.Start(cmd.Context())
	defer svc.Close()

	res, err := svc.Forecast.Run(cmd.Context())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
