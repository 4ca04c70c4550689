//go:build wireinject
// +build wireinject

package di

import (
	"StratCore/pkg/config"
	"StratCore/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideMarketCache,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideTickMirror,

		// Repositories
		ProvideOutcomeStore,
		ProvideSelectionStore,
		ProvideCandleStore,
		ProvideSelectionPublisher,
		ProvideMarketStream,
		ProvideCandleHistory,

		// Domain services and use cases
		ProvideRegimeClassifier,
		ProvidePerformanceTracker,
		ProvideStrategySelector,
		ProvideParameterValidator,
		ProvideCandleWriter,
		ProvideMarketCollector,
		ProvideHistoricalBackfill,
		ProvideOutcomesHandler,

		// HTTP surface
		ProvideTradingHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
