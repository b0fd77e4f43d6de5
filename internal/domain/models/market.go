package models

import "strings"

// MarketDataRequest holds the market-data query parameters.
type MarketDataRequest struct {
	Symbol string `query:"symbol" json:"symbol" default:"AAPL" validate:"required,alphanum" message:"Invalid symbol format. Please provide a valid stock ticker."`
	Days   int    `query:"days" json:"days" default:"10" validate:"gte=1,lte=365" message:"Days must be between 1 and 365."`
}

// Normalize upper-cases the symbol before validation.
func (r *MarketDataRequest) Normalize() {
	r.Symbol = strings.ToUpper(r.Symbol)
}

// MarketData is the body of the market-data endpoint.
type MarketData struct {
	Symbol       string    `json:"symbol"`
	Days         int       `json:"days"`
	Labels       []string  `json:"labels"`
	ActualPrices []float64 `json:"actualPrices"`
	Predictions  []float64 `json:"predictions"`
}
