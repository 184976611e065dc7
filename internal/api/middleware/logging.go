package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// LoggingConfig 配置请求日志。
type LoggingConfig struct {
	Logger        *slog.Logger
	SlowThreshold time.Duration // 超过即记为 WARN
	SkipPaths     []string      // 不记录的路径，例如探活与抓取
}

// DefaultLoggingConfig skips the probe and scrape endpoints.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Logger:        slog.Default(),
		SlowThreshold: 500 * time.Millisecond,
		SkipPaths:     []string{"/healthz", "/metrics"},
	}
}

// StructuredLogger logs one line per request at a level chosen from status and latency.
func StructuredLogger(config LoggingConfig) func(http.Handler) http.Handler {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	slow := config.SlowThreshold
	if slow <= 0 {
		slow = 500 * time.Millisecond
	}
	skip := make(map[string]struct{}, len(config.SkipPaths))
	for _, p := range config.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			requestID := chiMiddleware.GetReqID(r.Context())
			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			if requestID != "" {
				ww.Header().Set("X-Request-ID", requestID)
			}
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)
			level, msg := classify(status, elapsed, slow)
			logger.LogAttrs(r.Context(), level, msg,
				slog.String("request_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", elapsed),
				slog.Int("bytes", ww.BytesWritten()),
			)
		})
	}
}

func classify(status int, elapsed, slow time.Duration) (slog.Level, string) {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError, "request failed"
	case status >= http.StatusBadRequest:
		return slog.LevelWarn, "request error"
	case elapsed > slow:
		return slog.LevelWarn, "slow request"
	default:
		return slog.LevelInfo, "request completed"
	}
}
