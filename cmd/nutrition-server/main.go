package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kgouthamk/my-first-agent/internal/app"
	"github.com/kgouthamk/my-first-agent/internal/config"
	"github.com/kgouthamk/my-first-agent/internal/integrations/mcp"
	"github.com/kgouthamk/my-first-agent/internal/logging"
)

// nutrition-server exposes get_nutrition over MCP on stdin/stdout.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}

	// stdout carries the protocol; logs must not touch it.
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	reg, err := app.NewToolRegistry(cfg)
	if err != nil {
		slog.Error("failed to build tool registry", "err", err)
		os.Exit(1)
	}

	server := mcp.NewServer(reg, app.ServerName, app.Version, logging.Component(logger, "mcp"))
	slog.Info("nutrition server running on stdio")
	if err := server.Run(ctx, &mcpsdk.StdioTransport{}); err != nil && ctx.Err() == nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
