package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/creamcroissant/v2mng/internal/api"
	"github.com/creamcroissant/v2mng/internal/bootstrap"
	"github.com/creamcroissant/v2mng/internal/job"
)

const shutdownTimeout = 10 * time.Second

func init() {
	var (
		schedule    string
		metricsAddr string
		regen       bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Fetch subscriptions periodically until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			cfg := app.Config
			if cmd.Flags().Changed("schedule") {
				cfg.Watch.Schedule = schedule
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Watch.MetricsAddr = metricsAddr
			}
			if cmd.Flags().Changed("regen") {
				cfg.Watch.Regen = regen
			}
			return runWatch(cmd.Context(), app)
		},
	}
	cmd.Flags().StringVar(&schedule, "schedule", "", "cron expression or descriptor (default from watch.schedule)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address")
	cmd.Flags().BoolVar(&regen, "regen", false, "regenerate config.json for the selected entry after each fetch")
	rootCmd.AddCommand(cmd)
}

func runWatch(ctx context.Context, app *bootstrap.App) error {
	cfg, logger := app.Config, app.Logger

	fetchJob := job.NewSubscriptionFetchJob(app.Subscriptions, cfg.Watch.Regen, logger)
	scheduler := job.NewScheduler(logger, 0)
	entryID, err := scheduler.Register(cfg.Watch.Schedule, fetchJob)
	if err != nil {
		return err
	}

	var server *http.Server
	if cfg.Watch.MetricsAddr != "" {
		app.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		server = bootstrap.NewHTTPServer(cfg.Watch.MetricsAddr, api.NewRouter(api.Options{
			Logger:   logger,
			Registry: app.Registry,
			Health:   healthOf(fetchJob),
		}))
		go func() {
			logger.Info("metrics server starting", "addr", cfg.Watch.MetricsAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
	}

	// 启动时先拉取一次
	_ = scheduler.RunNow(ctx, fetchJob)
	scheduler.Start(ctx)
	logger.Info("watching subscriptions", "schedule", cfg.Watch.Schedule, "next", scheduler.Next(entryID))

	<-ctx.Done()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
	logger.Info("watch stopped")
	return nil
}

func healthOf(fetchJob *job.SubscriptionFetchJob) api.HealthFunc {
	return func() api.Health {
		status := fetchJob.Status()
		health := api.Health{
			OK:      !status.LastRun.IsZero() && status.Err == nil,
			LastRun: status.LastRun,
			Entries: status.Entries,
		}
		if status.Err != nil {
			health.LastError = status.Err.Error()
		}
		return health
	}
}
