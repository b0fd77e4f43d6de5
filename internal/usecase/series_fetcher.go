package usecase

import (
	"context"
	"fmt"
	"time"

	"CrashRadar/internal/domain/models"
	drepo "CrashRadar/internal/domain/repository"
	"CrashRadar/internal/services/features"
	applogger "CrashRadar/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Fetch outcomes, also used as metric labels.
const (
	OutcomeOK      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeEmpty   = "empty"
	OutcomeNoClose = "no_close"
	OutcomeError   = "error"
)

// FetchResult is the outcome of fetching one feature.
type FetchResult struct {
	Feature string
	Symbol  string
	Series  models.TimeSeries
	Outcome string
	Err     error
}

// SeriesFetcher pulls the daily close history of every mapped feature.
// Features fail independently; the fetch only fails when nothing came back.
type SeriesFetcher struct {
	provider    drepo.MarketDataProvider
	metrics     drepo.Metrics
	logger      *applogger.Logger
	concurrency int
}

// NewSeriesFetcher creates a fetcher that runs at most concurrency provider calls at once.
func NewSeriesFetcher(provider drepo.MarketDataProvider, metrics drepo.Metrics, logger *applogger.Logger, concurrency int) *SeriesFetcher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &SeriesFetcher{provider: provider, metrics: metrics, logger: logger, concurrency: concurrency}
}

// Fetch returns the close series of every feature that produced data, keyed by feature name.
func (f *SeriesFetcher) Fetch(ctx context.Context, symbols features.SymbolMap, start, end time.Time) (map[string]models.TimeSeries, error) {
	results := f.FetchAll(ctx, symbols, start, end)

	out := make(map[string]models.TimeSeries, len(results))
	for _, r := range results {
		f.metrics.RecordFetch(r.Feature, r.Outcome)
		if r.Outcome == OutcomeOK {
			out[r.Feature] = r.Series
		}
	}
	if len(out) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
		}
		return nil, models.ErrProviderUnavailable
	}
	return out, nil
}

// FetchAll fetches every binding and reports one result per binding, in map order.
func (f *SeriesFetcher) FetchAll(ctx context.Context, symbols features.SymbolMap, start, end time.Time) []FetchResult {
	results := make([]FetchResult, len(symbols))
	var g errgroup.Group
	g.SetLimit(f.concurrency)
	for i, b := range symbols {
		i, b := i, b
		g.Go(func() error {
			results[i] = f.fetchOne(ctx, b, start, end)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (f *SeriesFetcher) fetchOne(ctx context.Context, b features.SymbolBinding, start, end time.Time) FetchResult {
	res := FetchResult{Feature: b.Feature, Symbol: b.Symbol}
	if b.Symbol == "" {
		f.logger.Info("feature has no symbol, skipping", applogger.String("feature", b.Feature))
		res.Outcome = OutcomeSkipped
		return res
	}

	frame, err := f.provider.History(ctx, b.Symbol, start, end)
	if err != nil {
		f.logger.Warn("fetch failed",
			applogger.String("feature", b.Feature),
			applogger.String("symbol", b.Symbol),
			applogger.Error(err),
		)
		res.Outcome, res.Err = OutcomeError, err
		return res
	}
	if frame.Empty() {
		f.logger.Warn("no data returned",
			applogger.String("feature", b.Feature),
			applogger.String("symbol", b.Symbol),
		)
		res.Outcome, res.Err = OutcomeEmpty, models.ErrNoData
		return res
	}

	column := "Close"
	if frame.Grouped() {
		column = "Close_" + b.Symbol
	}
	points, ok := frame.Flatten().Observations(column)
	if !ok {
		f.logger.Warn("close column missing",
			applogger.String("feature", b.Feature),
			applogger.String("symbol", b.Symbol),
			applogger.String("column", column),
		)
		res.Outcome, res.Err = OutcomeNoClose, models.ErrNoCloseColumn
		return res
	}

	res.Outcome = OutcomeOK
	res.Series = models.TimeSeries{Feature: b.Feature, Symbol: b.Symbol, Points: points}
	return res
}
