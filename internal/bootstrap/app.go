// Package bootstrap wires configuration into the stores and services used by the CLI.
package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/creamcroissant/v2mng/internal/cache"
	"github.com/creamcroissant/v2mng/internal/config"
	"github.com/creamcroissant/v2mng/internal/engine"
	"github.com/creamcroissant/v2mng/internal/fetch"
	"github.com/creamcroissant/v2mng/internal/metrics"
	"github.com/creamcroissant/v2mng/internal/repository"
	"github.com/creamcroissant/v2mng/internal/service"
	"github.com/creamcroissant/v2mng/internal/subscribe"
	"github.com/creamcroissant/v2mng/internal/support/logging"
)

// App bundles everything a command needs.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Store         repository.Store
	Registry      *prometheus.Registry
	Metrics       *metrics.Fetch
	Subscriptions service.SubscriptionService
	Engine        service.EngineService
}

// Streams 是引擎与日志使用的终端流。
type Streams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

// NewLogger builds the logger described by cfg.Log.
func NewLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	return logging.New(logging.Options{
		Level:     cfg.Log.SlogLevel(),
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
		Output:    out,
	})
}

// Build wires stores, the fetch client and services from cfg.
func Build(cfg *config.Config, streams Streams) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required / 配置不能为空")
	}
	logger := NewLogger(cfg, streams.ErrOut)

	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	fetchMetrics := metrics.NewFetch(registry)

	cacheStore := cache.NewStore(cache.Options{
		Prefix:          "v2mng",
		DefaultTTL:      cfg.Fetch.CacheTTL,
		CleanupInterval: 10 * time.Minute,
	})
	client := fetch.NewClient(fetch.Options{
		Timeout:   cfg.Fetch.Timeout,
		UserAgent: cfg.Fetch.UserAgent,
		MaxBytes:  cfg.Fetch.MaxBytes,
		CacheTTL:  cfg.Fetch.CacheTTL,
		Retry: fetch.RetryConfig{
			Enabled:         cfg.Fetch.Retry.Enabled,
			MaxRetries:      cfg.Fetch.Retry.MaxRetries,
			InitialInterval: cfg.Fetch.Retry.InitialInterval,
			MaxInterval:     cfg.Fetch.Retry.MaxInterval,
			Multiplier:      cfg.Fetch.Retry.Multiplier,
		},
	}, cacheStore, logger)

	subscriptions := service.NewSubscriptionService(service.Options{
		Store:         store,
		Fetcher:       subscribe.NewFetcher(client, fetchMetrics, logger),
		Sources:       func() ([]string, error) { return config.LoadSources(cfg) },
		SkeletonPaths: cfg.SkeletonPaths(),
		ConfigPath:    cfg.ConfigPath(),
		Recorder:      fetchMetrics,
		Logger:        logger,
	})

	runner := &engine.Runner{
		Path:   cfg.EnginePath(),
		Stdin:  streams.In,
		Stdout: streams.Out,
		Stderr: streams.ErrOut,
		Logger: logger,
	}

	return &App{
		Config:        cfg,
		Logger:        logger,
		Store:         store,
		Registry:      registry,
		Metrics:       fetchMetrics,
		Subscriptions: subscriptions,
		Engine:        service.NewEngineService(runner, cfg.ConfigPath()),
	}, nil
}

// Close releases the store.
func (a *App) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
