//go:build wireinject
// +build wireinject

package di

import (
	"YieldScope/pkg/config"
	"YieldScope/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideMemoryStore,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideSeriesProvider,

		// Engines and use cases
		ProvideEngine,
		ProvideAnalysis,
		ProvideSimulate,
		ProvideInvalidationHandler,

		// Transport
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
