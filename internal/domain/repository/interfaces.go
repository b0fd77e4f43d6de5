package repository

import (
	"context"
	"time"

	"CrashRadar/internal/domain/models"
)

// MarketDataProvider serves daily bars for a single ticker.
// An unknown or delisted ticker yields an empty frame, not an error.
type MarketDataProvider interface {
	// History returns daily bars dated in [start, end).
	History(ctx context.Context, symbol string, start, end time.Time) (*models.Frame, error)
	// Period returns daily bars for a trailing range ending today.
	Period(ctx context.Context, symbol string, period models.Period) (*models.Frame, error)
}

// EventPublisher ships prediction events downstream.
type EventPublisher interface {
	PublishPrediction(ctx context.Context, ev *models.PredictionEvent) error
	Close() error
}

type Metrics interface {
	RecordFetch(feature, outcome string)
	RecordPrediction(label int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
