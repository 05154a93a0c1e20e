//go:build wireinject
// +build wireinject

package di

import (
	"StockWatch/pkg/config"
	"StockWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvidePersistence,
		ProvideSnapshotCache,
		ProvideQuoteCache,
		ProvideQuoteProvider,
		ProvideHistoryStore,
		ProvideAlertPublisher,
		ProvideKafkaConsumer,

		// Live push
		ProvideRegistry,

		// Use cases
		ProvideNotificationQueue,
		ProvideRefresher,
		ProvideAlertEngine,
		ProvideBroadcaster,
		ProvideStocks,
		ProvideAlerts,
		ProvideQuoteTickHandler,

		// Loops, routes, application server
		ProvideRunners,
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
