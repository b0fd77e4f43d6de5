package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"CrashRadar/internal/domain/models"
	drepo "CrashRadar/internal/domain/repository"
	"CrashRadar/internal/service/cache"
	svcmetrics "CrashRadar/internal/service/metrics"
	applogger "CrashRadar/pkg/logger"
	"CrashRadar/pkg/util"

	"github.com/shopspring/decimal"
)

// NaiveUplift is the multiplier behind the single "prediction" of the market-data
// endpoint. It is a display heuristic, not a model output.
var NaiveUplift = decimal.RequireFromString("1.02")

// MarketDataUseCase serves recent closes of one ticker for charting.
type MarketDataUseCase struct {
	provider drepo.MarketDataProvider
	cache    cache.BytesCache
	ttl      time.Duration
	metrics  drepo.Metrics
	logger   *applogger.Logger
}

// NewMarketDataUseCase creates the use case. A nil cache or zero ttl disables response caching.
func NewMarketDataUseCase(provider drepo.MarketDataProvider, c cache.BytesCache, ttl time.Duration, metrics drepo.Metrics, logger *applogger.Logger) *MarketDataUseCase {
	return &MarketDataUseCase{provider: provider, cache: c, ttl: ttl, metrics: metrics, logger: logger}
}

// Recent returns the last days closes of symbol. symbol must already be validated and upper-cased.
func (u *MarketDataUseCase) Recent(ctx context.Context, symbol string, days int) (*models.MarketData, error) {
	start := time.Now()
	defer func() { u.metrics.RecordLatency("market_data", time.Since(start).Seconds()) }()

	key := fmt.Sprintf("market:%s:%d", symbol, days)
	if md, ok := u.cached(ctx, key); ok {
		return md, nil
	}

	frame, err := u.provider.Period(ctx, symbol, models.PeriodForDays(days))
	if err != nil {
		u.metrics.RecordError("market_data")
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	if frame.Empty() {
		return nil, fmt.Errorf("%w for symbol %s", models.ErrNoData, symbol)
	}

	points, ok := frame.Flatten().Observations("Close_" + symbol)
	if !ok {
		return nil, fmt.Errorf("%w for symbol %s", models.ErrNoCloseColumn, symbol)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w for symbol %s", models.ErrNoData, symbol)
	}
	if len(points) > days {
		points = points[len(points)-days:]
	}

	md := &models.MarketData{
		Symbol:       symbol,
		Days:         days,
		Labels:       make([]string, len(points)),
		ActualPrices: make([]float64, len(points)),
	}
	// half-to-even, so exact ties such as 0.125 go to 0.12
	var last decimal.Decimal
	for i, p := range points {
		last = decimal.NewFromFloat(p.Value).RoundBank(2)
		md.Labels[i] = util.FormatDate(p.Date)
		md.ActualPrices[i] = last.InexactFloat64()
	}
	md.Predictions = []float64{last.Mul(NaiveUplift).RoundBank(2).InexactFloat64()}

	u.store(ctx, key, md)
	return md, nil
}

func (u *MarketDataUseCase) cached(ctx context.Context, key string) (*models.MarketData, bool) {
	if u.cache == nil || u.ttl <= 0 {
		return nil, false
	}
	b, ok, err := u.cache.GetBytes(ctx, key)
	if err != nil || !ok {
		svcmetrics.CacheLookups.WithLabelValues("market_data", "miss").Inc()
		return nil, false
	}
	var md models.MarketData
	if err := json.Unmarshal(b, &md); err != nil {
		return nil, false
	}
	svcmetrics.CacheLookups.WithLabelValues("market_data", "hit").Inc()
	return &md, true
}

func (u *MarketDataUseCase) store(ctx context.Context, key string, md *models.MarketData) {
	if u.cache == nil || u.ttl <= 0 {
		return
	}
	b, err := json.Marshal(md)
	if err != nil {
		return
	}
	if err := u.cache.SetBytes(ctx, key, b, u.ttl); err != nil {
		u.logger.Warn("market data cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}
