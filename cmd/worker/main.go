package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grovelight/leafsense/internal/bootstrap"
	"github.com/grovelight/leafsense/internal/config"
	"github.com/grovelight/leafsense/internal/core/domain"
	"github.com/grovelight/leafsense/internal/observability/logging"
	"github.com/grovelight/leafsense/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("leafsense-worker", cfg.LogLevel))

	if cfg.NATSURL == "" {
		slog.Error("missing_configuration", "env", "NATS_URL")
		os.Exit(1)
	}
	if cfg.HistoryDSN == "" {
		slog.Error("missing_configuration", "env", "HISTORY_DSN")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	wm := metrics.NewWorkerMetrics("worker")
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", wm.Handler())
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	metricsServer := &http.Server{
		Addr:        ":" + cfg.WorkerMetricsPort,
		Handler:     metricsMux,
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker_metrics_server_failed", "error", err)
		}
	}()

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Events.SubscribeAnalysisCompleted(ctx, func(handlerCtx context.Context, record domain.AnalysisRecord) error {
		archiveCtx, cancel := context.WithTimeout(handlerCtx, time.Minute)
		defer cancel()

		wm.StartArchive()
		wm.ObserveEventLag("worker", time.Since(record.CreatedAt))
		start := time.Now()

		evicted, err := app.History.Save(archiveCtx, record)
		for _, path := range evicted {
			if path == "" {
				continue
			}
			if rmErr := app.Snapshots.Remove(archiveCtx, path); rmErr != nil {
				slog.Warn("snapshot_remove_failed", "path", path, "error", rmErr)
			}
		}

		wm.FinishArchive("worker", time.Since(start), err)
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("worker_subscribe_failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}
