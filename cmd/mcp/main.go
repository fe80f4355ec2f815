package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/grovelight/leafsense/internal/adapters/mcp"
	"github.com/grovelight/leafsense/internal/bootstrap"
	"github.com/grovelight/leafsense/internal/config"
	"github.com/grovelight/leafsense/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	// Stdout belongs to the MCP protocol.
	slog.SetDefault(logging.NewStderrLogger("leafsense-mcp", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srv := mcpadapter.NewServer(app.AnalyzeUC, app.StatusUC, app.CatalogUC).MCPServer()
	if err := server.ServeStdio(srv); err != nil {
		slog.Error("mcp_server_failed", "error", err)
		os.Exit(1)
	}
}
