package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/kgouthamk/my-first-agent/handler"
	"github.com/kgouthamk/my-first-agent/internal/app"
	"github.com/kgouthamk/my-first-agent/internal/config"
	"github.com/kgouthamk/my-first-agent/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Configuration ----
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	slog.SetDefault(logger)

	// ---- Wiring ----
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		slog.Error("failed to start agent", "err", err)
		os.Exit(1)
	}
	defer func() { _ = a.Close() }()

	h, err := handler.NewHandler(a.Chat,
		handler.WithLogger(logging.Component(logger, "handler")),
		handler.WithStaticDir(cfg.StaticDir),
	)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	// ---- Serve ----
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.StartWithOptions(h.Handle, lambda.WithContext(ctx))
		return
	}

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("graceful shutdown failed", "err", err)
		}
	}()

	slog.Info("nutrition agent web server running", "addr", "http://localhost:"+strconv.Itoa(cfg.Port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}
