//go:build wireinject
// +build wireinject

package di

import (
	"CrashRadar/pkg/config"
	"CrashRadar/pkg/server"

	"github.com/google/wire"
)

var coreSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideCache,
	ProvideYahooClient,
	ProvideMarketDataProvider,
	ProvideSymbolMap,
	ProvideContract,
	ProvideClassifier,
	ProvidePredictor,
	ProvideFormatter,
	ProvideSeriesFetcher,
	ProvideKafkaPublisher,
	ProvideEventPipeline,
	ProvideForecastUseCase,
	ProvideMarketDataUseCase,
)

// InitializeApp wires up all dependencies and returns the HTTP application.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		coreSet,
		ProvideHandlers,
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializeServices wires the use cases without the HTTP layer.
func InitializeServices(cfg *config.Config) (*Services, error) {
	wire.Build(
		coreSet,
		wire.Struct(new(Services), "*"),
	)
	return &Services{}, nil
}
