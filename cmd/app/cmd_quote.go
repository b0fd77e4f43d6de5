package main

import (
	"encoding/json"
	"fmt"

	"CrashRadar/internal/di"
	"CrashRadar/internal/domain/models"
	xhttp "CrashRadar/pkg/http"

	"github.com/spf13/cobra"
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Print recent closes of a ticker with the naive next-day projection",
	Example: `  crashradar quote --symbol MSFT --days 30`,
	RunE:    runQuote,
}

var (
	quoteSymbol string
	quoteDays   int
)

func init() {
	rootCmd.AddCommand(quoteCmd)
	quoteCmd.Flags().StringVar(&quoteSymbol, "symbol", "AAPL", "ticker symbol")
	quoteCmd.Flags().IntVar(&quoteDays, "days", 10, "number of trading days (1-365)")
}

func runQuote(cmd *cobra.Command, _ []string) error {
	req := &models.MarketDataRequest{Symbol: quoteSymbol, Days: quoteDays}
	if verr := xhttp.ValidateRequest(cmd.Context(), req); verr != nil {
		return verr
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	svc, err := di.InitializeServices(cfg)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}
	defer svc.Close()

	res, err := svc.MarketData.Recent(cmd.Context(), req.Symbol, req.Days)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
