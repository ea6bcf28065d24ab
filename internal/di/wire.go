//go:build wireinject
// +build wireinject

package di

import (
	"StockView/pkg/config"
	"StockView/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure
		ProvideStockAPI,
		ProvideStateStore,

		// Transport
		ProvideWSServer,
		ProvidePageHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
