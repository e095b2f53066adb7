package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dimiro1/banner"

	"github.com/kgouthamk/my-first-agent/internal/app"
	"github.com/kgouthamk/my-first-agent/internal/config"
	"github.com/kgouthamk/my-first-agent/internal/console"
	"github.com/kgouthamk/my-first-agent/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Configuration ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	// Logs go to stderr so the conversation on stdout stays readable.
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	// ---- Wiring ----
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to start agent", "err", err)
		os.Exit(1)
	}

	c, err := console.New(a.Chat, os.Stdin, os.Stdout, logging.Component(logger, "console"))
	if err != nil {
		_ = a.Close()
		slog.Error("failed to create console", "err", err)
		os.Exit(1)
	}

	printBanner()
	fmt.Println("Nutrition Agent ready! Ask me about any food. (type 'exit' to quit)")
	fmt.Println()

	runErr := c.Run(ctx)
	if err := a.Close(); err != nil {
		slog.Warn("failed to close tool server connection", "err", err)
	}
	if runErr != nil && ctx.Err() == nil {
		slog.Error("console stopped", "err", runErr)
		os.Exit(1)
	}
}

func printBanner() {
	tpl := "{{ .Title \"NUTRITION\" \"\" 0 }}\nVersion: " + app.Version + "\n"
	banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
}
