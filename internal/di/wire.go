//go:build wireinject
// +build wireinject

package di

import (
	"IndiLimit/pkg/config"
	"IndiLimit/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient services
		ProvideLogger,
		ProvideMetrics,
		ProvideRateLimiter,
		ProvideTTLCache,
		ProvideLiveRatesCache,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideHistoryStore,
		ProvideFeatureStore,
		ProvideRatePublisher,
		ProvideRateStream,
		ProvideMarketData,

		// Model
		ProvideModelRef,
		ProvideForecaster,
		ProvideForecastTrainer,

		// Use cases
		ProvideRateProcessor,
		ProvideRateCollector,
		ProvideKafkaRatesHandler,
		ProvideTrainerUseCase,
		ProvideRecommender,
		ProvideHistoryUseCase,
		ProvideRetrainQueue,

		// HTTP
		ProvideRecommendHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
