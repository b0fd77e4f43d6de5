package di

import (
	"context"
	"fmt"
	"io"

	"CrashRadar/internal/domain/repository"
	domsvc "CrashRadar/internal/domain/service"
	"CrashRadar/internal/handler/api"
	"CrashRadar/internal/middleware"
	internalrepo "CrashRadar/internal/repository"
	"CrashRadar/internal/service/cache"
	"CrashRadar/internal/service/ratelimit"
	"CrashRadar/internal/service/yahoo"
	"CrashRadar/internal/services/analytics"
	"CrashRadar/internal/services/features"
	"CrashRadar/internal/services/model"
	"CrashRadar/internal/usecase"
	"CrashRadar/pkg/config"
	xhttp "CrashRadar/pkg/http"
	pkgkafka "CrashRadar/pkg/kafka"
	applogger "CrashRadar/pkg/logger"
	"CrashRadar/pkg/metrics"
	"CrashRadar/pkg/server"
)

const serviceName = "crashradar"

// Services groups the use cases for one-shot CLI commands.
type Services struct {
	Logger     *applogger.Logger
	Forecast   *usecase.ForecastUseCase
	MarketData *usecase.MarketDataUseCase
	Pipeline   *middleware.EventPipeline
	Cache      cache.BytesCache
}

// Close flushes pending events and releases clients.
func (s *Services) Close() error {
	s.Logger.RemoveCollector()
	err := s.Pipeline.Close()
	if cerr := s.Cache.Close(); err == nil {
		err = cerr
	}
	return err
}

// ProvideLogger creates the structured application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: serviceName,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideCache selects the response cache backend.
func ProvideCache(cfg *config.Config) cache.BytesCache {
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   serviceName + ":",
		})
	}
	return cache.NewTTLCache(cache.WithMaxEntries(cfg.Cache.MaxEntries))
}

// ProvideYahooClient creates the upstream chart API client.
func ProvideYahooClient(cfg *config.Config) *yahoo.Client {
	return yahoo.New(cfg.Provider.BaseURL,
		yahoo.WithHTTPClient(xhttp.NewClient(
			xhttp.WithTimeout(cfg.Provider.Timeout),
			xhttp.WithUserAgent(cfg.Provider.UserAgent),
		)),
		yahoo.WithAdjustedClose(cfg.Provider.AdjustedClose),
	)
}

// ProvideMarketDataProvider wraps the client with cache, throttle and breaker.
func ProvideMarketDataProvider(client *yahoo.Client, c cache.BytesCache, cfg *config.Config, logger *applogger.Logger) repository.MarketDataProvider {
	p := cfg.Provider
	return internalrepo.NewResilientProvider(client, c, internalrepo.ProviderConfig{
		Name:                "yahoo",
		RPS:                 p.RateLimit.RPS,
		Burst:               p.RateLimit.Burst,
		Timeout:             p.Timeout,
		CacheTTL:            p.CacheTTL,
		BreakerMaxRequests:  p.Breaker.MaxRequests,
		BreakerInterval:     p.Breaker.Interval,
		BreakerTimeout:      p.Breaker.Timeout,
		ConsecutiveFailures: p.Breaker.ConsecutiveFailures,
		FailureRatio:        p.Breaker.FailureRatio,
		MinRequests:         p.Breaker.MinRequests,
	}, logger)
}

// ProvideSymbolMap returns the configured feature-to-ticker map, or the default one.
func ProvideSymbolMap(cfg *config.Config) features.SymbolMap {
	if len(cfg.Forecast.Symbols) == 0 {
		return features.DefaultSymbolMap()
	}
	m := make(features.SymbolMap, len(cfg.Forecast.Symbols))
	for i, s := range cfg.Forecast.Symbols {
		m[i] = features.SymbolBinding{Feature: s.Feature, Symbol: s.Symbol}
	}
	return m
}

// ProvideContract returns the feature contract with the configured rolling window.
func ProvideContract(cfg *config.Config) features.Contract {
	return features.DefaultContract.WithWindow(cfg.Forecast.Window)
}

// ProvideClassifier loads the frozen model once. Failure aborts startup.
func ProvideClassifier(cfg *config.Config) (domsvc.Classifier, error) {
	switch cfg.Model.Kind {
	case "remote":
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Model.Timeout)
		defer cancel()
		clf, err := analytics.NewRemoteClassifier(ctx, cfg.Model.URL, cfg.Model.Timeout, cfg.Model.Retries)
		if err != nil {
			return nil, fmt.Errorf("remote model %s: %w", cfg.Model.URL, err)
		}
		return clf, nil
	default:
		clf, err := model.Load(cfg.Model.Path)
		if err != nil {
			return nil, fmt.Errorf("load model %s: %w", cfg.Model.Path, err)
		}
		return clf, nil
	}
}

// ProvidePredictor binds the model to the contract, rejecting mismatched layouts.
func ProvidePredictor(clf domsvc.Classifier, contract features.Contract) (*analytics.Predictor, error) {
	p, err := analytics.NewPredictor(clf, contract)
	if err != nil {
		return nil, fmt.Errorf("model contract: %w", err)
	}
	return p, nil
}

// ProvideFormatter creates the feature formatter.
func ProvideFormatter(contract features.Contract, logger *applogger.Logger) *features.Formatter {
	return features.NewFormatter(contract, logger)
}

// ProvideSeriesFetcher creates the concurrent indicator fetcher.
func ProvideSeriesFetcher(provider repository.MarketDataProvider, m repository.Metrics, logger *applogger.Logger, cfg *config.Config) *usecase.SeriesFetcher {
	return usecase.NewSeriesFetcher(provider, m, logger, cfg.Forecast.Concurrency)
}

// ProvideKafkaPublisher creates the Kafka prediction publisher, or nil when Kafka is disabled.
func ProvideKafkaPublisher(cfg *config.Config) (*internalrepo.KafkaEventPublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithAutoCreateTopic(cfg.Kafka.AutoCreateTopic),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideEventPipeline puts a buffered pipeline in front of the event publisher and,
// when enabled, routes aggregated error logs through the same producer.
func ProvideEventPipeline(pub *internalrepo.KafkaEventPublisher, m repository.Metrics, logger *applogger.Logger, cfg *config.Config) *middleware.EventPipeline {
	var next repository.EventPublisher = internalrepo.NopEventPublisher{}
	if pub != nil {
		next = pub
		if cfg.Log.Collector.Enabled {
			logger.AddCollector(&applogger.CollectionConfig{
				TimeInterval:   cfg.Log.Collector.Interval,
				CountThreshold: cfg.Log.Collector.Threshold,
				Topic:          cfg.Log.Collector.Topic,
				Source:         serviceName,
				Publisher:      pub,
			})
		}
	}
	return middleware.NewEventPipeline(next, m, logger,
		middleware.WithBufferSize(cfg.Kafka.BufferSize),
		middleware.WithPublishTimeout(cfg.Kafka.Producer.WriteTimeout),
		middleware.WithRetries(cfg.Kafka.Producer.MaxAttempts),
	)
}

// ProvideForecastUseCase creates the forecast pipeline.
func ProvideForecastUseCase(
	fetcher *usecase.SeriesFetcher,
	symbols features.SymbolMap,
	formatter *features.Formatter,
	predictor *analytics.Predictor,
	pipeline *middleware.EventPipeline,
	m repository.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(fetcher, symbols, formatter, predictor, pipeline, m, logger, usecase.ForecastConfig{
		LookbackDays: cfg.Forecast.LookbackDays,
		Timeout:      cfg.Forecast.Timeout,
	})
}

// ProvideMarketDataUseCase creates the market-data use case.
func ProvideMarketDataUseCase(provider repository.MarketDataProvider, c cache.BytesCache, m repository.Metrics, logger *applogger.Logger, cfg *config.Config) *usecase.MarketDataUseCase {
	return usecase.NewMarketDataUseCase(provider, c, cfg.MarketData.CacheTTL, m, logger)
}

// ProvideHandlers builds every HTTP route group.
func ProvideHandlers(
	forecast *usecase.ForecastUseCase,
	marketData *usecase.MarketDataUseCase,
	predictor *analytics.Predictor,
	c cache.BytesCache,
	logger *applogger.Logger,
	cfg *config.Config,
) []xhttp.Handler {
	checks := []api.Check{{Name: "model", Fn: predictor.Ready}}
	if rc, ok := c.(*cache.RedisCache); ok {
		checks = append(checks, api.Check{Name: "redis", Fn: rc.Ping})
	}

	limiter := ratelimit.New(cfg.MarketData.RateLimit.RPS, cfg.MarketData.RateLimit.Burst)
	return []xhttp.Handler{
		api.NewHealthHandler(checks...),
		api.NewForecastHandler(logger, forecast, predictor),
		api.NewMarketDataHandler(logger, marketData, limiter),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	handlers []xhttp.Handler,
	pipeline *middleware.EventPipeline,
	c cache.BytesCache,
) *server.App {
	return server.New(cfg, logger, handlers, pipeline, io.Closer(c))
}
