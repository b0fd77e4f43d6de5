package usecase

import (
	"context"
	"fmt"
	"time"

	"CrashRadar/internal/domain/models"
	drepo "CrashRadar/internal/domain/repository"
	"CrashRadar/internal/services/analytics"
	"CrashRadar/internal/services/features"
	applogger "CrashRadar/pkg/logger"
	"CrashRadar/pkg/util"
)

// ForecastUseCase runs fetch, merge, format, extract and predict for the latest trading day.
type ForecastUseCase struct {
	fetcher   *SeriesFetcher
	symbols   features.SymbolMap
	formatter *features.Formatter
	predictor *analytics.Predictor
	events    drepo.EventPublisher
	metrics   drepo.Metrics
	logger    *applogger.Logger
	lookback  int
	timeout   time.Duration
	now       func() time.Time
}

// ForecastConfig holds the forecast window settings.
type ForecastConfig struct {
	LookbackDays int
	Timeout      time.Duration
}

// NewForecastUseCase wires the pipeline. events may be nil.
func NewForecastUseCase(
	fetcher *SeriesFetcher,
	symbols features.SymbolMap,
	formatter *features.Formatter,
	predictor *analytics.Predictor,
	events drepo.EventPublisher,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	cfg ForecastConfig,
) *ForecastUseCase {
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 10
	}
	return &ForecastUseCase{
		fetcher:   fetcher,
		symbols:   symbols,
		formatter: formatter,
		predictor: predictor,
		events:    events,
		metrics:   metrics,
		logger:    logger,
		lookback:  cfg.LookbackDays,
		timeout:   cfg.Timeout,
		now:       time.Now,
	}
}

// Run produces a forecast from the last lookback days of indicator history.
func (u *ForecastUseCase) Run(ctx context.Context) (*models.ForecastResult, error) {
	start := time.Now()
	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	res, missing, err := u.run(ctx)
	u.metrics.RecordLatency("forecast", time.Since(start).Seconds())
	if err != nil {
		u.metrics.RecordError("forecast")
		return nil, err
	}

	u.metrics.RecordPrediction(res.Prediction)
	u.publish(ctx, res, missing)
	return res, nil
}

func (u *ForecastUseCase) run(ctx context.Context) (*models.ForecastResult, []string, error) {
	end := u.now().UTC()
	from := util.Day(end).AddDate(0, 0, -u.lookback)

	series, err := u.fetcher.Fetch(ctx, u.symbols, from, end)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch indicators: %w", err)
	}

	merged := features.Merge(series, u.symbols.Features())
	formatted := u.formatter.Format(merged)
	if unobserved := formatted.MissingColumns(); len(unobserved) > 0 {
		u.logger.Warn("features without observations in lookback window",
			applogger.Int("lookback_days", u.lookback),
			applogger.Strings("features", unobserved),
		)
	}

	exclude := u.formatter.Contract().Exclude
	vec, err := features.ExtractLatest(formatted, exclude)
	if err != nil {
		return nil, nil, fmt.Errorf("extract features: %w", err)
	}
	missing := features.MissingAt(formatted, exclude)
	if len(missing) > 0 {
		u.logger.Warn("latest row has missing features, using 0",
			applogger.String("as_of", util.FormatDate(vec.Date)),
			applogger.Strings("features", missing),
		)
	}

	pred, err := u.predictor.Predict(ctx, vec)
	if err != nil {
		return nil, nil, fmt.Errorf("predict: %w", err)
	}

	u.logger.Info("forecast computed",
		applogger.String("as_of", util.FormatDate(vec.Date)),
		applogger.Int("prediction", pred.Label),
		applogger.Int("features_fetched", len(series)),
	)
	return &models.ForecastResult{
		Prediction:  pred.Label,
		Probability: pred.Probability,
		Features:    vec,
	}, missing, nil
}

func (u *ForecastUseCase) publish(ctx context.Context, res *models.ForecastResult, missing []string) {
	if u.events == nil {
		return
	}
	feats := make(map[string]float64, res.Features.Len())
	for i, name := range res.Features.Names {
		feats[name] = res.Features.Values[i]
	}
	info := u.predictor.Info()
	ev := &models.PredictionEvent{
		ContractVersion: info.ContractVersion,
		ModelKind:       info.Kind,
		AsOf:            util.FormatDate(res.Features.Date),
		Prediction:      res.Prediction,
		Probability:     res.Probability,
		Features:        feats,
		MissingFeatures: missing,
		CreatedAt:       u.now().UTC(),
	}
	if err := u.events.PublishPrediction(ctx, ev); err != nil {
		u.logger.Warn("prediction event not queued", applogger.Error(err))
	}
}
