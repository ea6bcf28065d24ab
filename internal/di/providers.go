package di

import (
	"context"
	"fmt"
	"time"

	"StockView/internal/domain/repository"
	"StockView/internal/handler/api"
	"StockView/internal/handler/ws"
	internalrepo "StockView/internal/repository"
	"StockView/internal/service/stockapi"
	"StockView/internal/usecase"
	"StockView/pkg/config"
	xhttp "StockView/pkg/http"
	xlogger "StockView/pkg/logger"
	"StockView/pkg/metrics"
	"StockView/pkg/server"
)

const stateSweepInterval = time.Minute

// ProvideLogger creates the application logger from the log section.
func ProvideLogger(cfg *config.Config) (*xlogger.Logger, error) {
	l, err := xlogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(xlogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op one when disabled.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(nil)
}

// ProvideStockAPI creates the backend client.
func ProvideStockAPI(cfg *config.Config, m repository.Metrics) (repository.StockAPI, error) {
	c, err := stockapi.New(cfg.Backend.BaseURL,
		stockapi.WithTimeout(cfg.Backend.Timeout),
		stockapi.WithMetrics(m),
	)
	if err != nil {
		return nil, fmt.Errorf("stock api: %w", err)
	}
	return c, nil
}

// ProvideStateStore creates the session store selected by session.store.
func ProvideStateStore(cfg *config.Config, l *xlogger.Logger) (repository.StateStore, func(), error) {
	if cfg.Session.Store == "redis" {
		store, err := internalrepo.NewRedisStateStore(context.Background(), internalrepo.RedisConfig{
			Addr:     cfg.Session.Redis.Addr,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
			Prefix:   cfg.Session.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("session store: %w", err)
		}
		l.Info("session store ready", xlogger.String("store", "redis"), xlogger.String("addr", cfg.Session.Redis.Addr))
		return store, func() {
			if err := store.Close(); err != nil {
				l.Warn("redis close error", xlogger.Error(err))
			}
		}, nil
	}

	store := internalrepo.NewMemoryStateStore()
	ctx, cancel := context.WithCancel(context.Background())
	go store.RunSweeper(ctx, stateSweepInterval)
	l.Info("session store ready", xlogger.String("store", "memory"))
	return store, cancel, nil
}

// ProvideWSServer creates the websocket session server.
func ProvideWSServer(
	cfg *config.Config,
	stocks repository.StockAPI,
	store repository.StateStore,
	m repository.Metrics,
	l *xlogger.Logger,
) *ws.Server {
	return ws.NewServer(stocks, store, wsConfig(cfg),
		ws.WithLogger(l),
		ws.WithMetrics(m),
		ws.WithControllerOptions(usecase.WithFallbackCurrency(cfg.UI.DefaultCurrency)),
	)
}

// wsConfig maps application config onto session limits. Websocket origins are
// separate from server.cors: an empty list admits only the page's own host.
func wsConfig(cfg *config.Config) ws.Config {
	return ws.Config{
		WriteWait:      cfg.Server.WriteTimeout,
		StateTTL:       cfg.Session.TTL,
		AllowedOrigins: append([]string(nil), cfg.Session.AllowedOrigins...),
	}
}

// ProvidePageHandler creates the page and websocket routes.
func ProvidePageHandler(l *xlogger.Logger, wsServer *ws.Server) (*api.PageHandler, error) {
	return api.NewPageHandler(l, wsServer)
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, h *api.PageHandler, l *xlogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *xlogger.Logger, httpServer *xhttp.Server, wsServer *ws.Server) *server.App {
	return server.New(cfg, l, httpServer, wsServer)
}
