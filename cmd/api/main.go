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

	httpadapter "github.com/grovelight/leafsense/internal/adapters/http"
	"github.com/grovelight/leafsense/internal/bootstrap"
	"github.com/grovelight/leafsense/internal/config"
	"github.com/grovelight/leafsense/internal/observability/logging"
	"github.com/grovelight/leafsense/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("leafsense-api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewHTTPServerMetrics("api")
	app, err := bootstrap.NewWithOptions(ctx, cfg, bootstrap.Options{
		OnRetry: func(operation string, _ int, _ error) {
			m.RecordClassifyRetry("api", operation)
		},
	})
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(
		app.Config,
		app.AnalyzeUC,
		app.StatusUC,
		app.CatalogUC,
		app.HistoryUC,
		app.Exporter,
		m,
	)
	server := &http.Server{
		Addr:         ":" + app.Config.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", app.Config.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
