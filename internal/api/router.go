// Package api serves the watch daemon's HTTP endpoints.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/creamcroissant/v2mng/internal/api/middleware"
)

// HealthFunc reports the state of the last fetch run.
type HealthFunc func() Health

// Health 是 /healthz 的响应体。
type Health struct {
	OK        bool      `json:"ok"`
	LastRun   time.Time `json:"last_run,omitempty"`
	Entries   int       `json:"entries"`
	LastError string    `json:"last_error,omitempty"`
}

// Options 配置路由。
type Options struct {
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Health   HealthFunc
}

// NewRouter builds the chi router with /healthz and /metrics.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	r := chi.NewRouter()
	mCfg := middleware.DefaultMetricsConfig()
	metrics := middleware.NewMetrics(registry, mCfg)

	r.Use(
		chiMiddleware.RequestID,
		metrics.Middleware(mCfg),
		middleware.StructuredLogger(middleware.LoggingConfig{
			Logger:        logger,
			SlowThreshold: 500 * time.Millisecond,
			SkipPaths:     []string{"/healthz", "/metrics"},
		}),
		chiMiddleware.Recoverer,
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		health := Health{OK: true}
		if opts.Health != nil {
			health = opts.Health()
		}
		status := http.StatusOK
		if !health.OK {
			status = http.StatusServiceUnavailable
		}
		respondJSON(w, status, health)
	})

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	return r
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("failed to encode response JSON", "error", err)
	}
}
