// Package app wires the tracker, catalog, stream adapter and HTTP
// server together and runs them as one unit.
package app

import (
	"context"
	"fmt"

	"tickerboard/internal/catalog"
	tbcfg "tickerboard/internal/config"
	"tickerboard/internal/gateway/binance"
	"tickerboard/internal/logger"
	"tickerboard/internal/tracker"
	boardhttp "tickerboard/internal/transport/http"

	"golang.org/x/sync/errgroup"
)

// App 负责应用级编排：加载配置→初始化依赖→启动行情流与 HTTP 服务。
type App struct {
	cfg        *tbcfg.Config
	dispatcher *tracker.Dispatcher
	catalog    *catalog.Catalog
	adapter    *binance.Adapter
	server     *boardhttp.Server
	watcher    *tbcfg.Watcher
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *tbcfg.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)

	dispatcher := tracker.NewDispatcher()

	cat := catalog.New(catalog.NewBinanceProvider(catalog.BinanceConfig{
		RESTBaseURL: cfg.Catalog.RESTBaseURL,
		QuoteAsset:  cfg.Catalog.QuoteAsset,
	}), cfg.Catalog.SearchLimit)

	adapter := binance.NewAdapter(binance.Config{
		WSURL:             cfg.Stream.WSURL,
		Interval:          cfg.Stream.Interval,
		DialTimeout:       cfg.Stream.DialTimeout(),
		ReconnectAttempts: cfg.Stream.ReconnectAttempts,
		ReconnectDelay:    cfg.Stream.ReconnectDelay(),
	}, dispatcher)

	server, err := boardhttp.NewServer(boardhttp.ServerConfig{
		Addr:           cfg.App.HTTPAddr,
		Dispatcher:     dispatcher,
		Catalog:        cat,
		Stats:          adapter,
		MaxInstruments: cfg.Board.MaxInstruments,
	})
	if err != nil {
		return nil, fmt.Errorf("building http server: %w", err)
	}

	return &App{
		cfg:        cfg,
		dispatcher: dispatcher,
		catalog:    cat,
		adapter:    adapter,
		server:     server,
	}, nil
}

// WatchConfig 启用配置热加载，目前只动态调整日志级别。
func (a *App) WatchConfig(path string) error {
	w, err := tbcfg.NewWatcher(path)
	if err != nil {
		return err
	}
	w.Subscribe(func(cfg *tbcfg.Config) {
		logger.SetLevel(cfg.App.LogLevel)
		logger.Infof("log level now %s", cfg.App.LogLevel)
	})
	a.watcher = w
	return nil
}

// Dispatcher exposes the state dispatcher (for testing harnesses).
func (a *App) Dispatcher() *tracker.Dispatcher {
	if a == nil {
		return nil
	}
	return a.dispatcher
}

// Run 启动行情流与 HTTP 服务，直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}

	a.dispatcher.Start()
	defer a.dispatcher.Stop()

	if err := a.catalog.Refresh(ctx); err != nil {
		// The board still works for symbols typed verbatim once the
		// catalog recovers, so startup continues.
		logger.Warnf("catalog refresh failed: %v", err)
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := a.server.Start(ctx); err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		if err := a.adapter.Run(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("stream adapter error: %w", err)
		}
		return nil
	})

	logger.Infof("tickerboard listening on %s", a.server.Addr())
	return group.Wait()
}
