// Package main is the entry point of the heartline API server.
//
// main stays minimal:
// 1. read and validate configuration (environment, optionally a .env file)
// 2. build the logger
// 3. hand both to internal/server and block until shutdown
//
// All actual logic lives in internal/.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/heartline/internal/config"
	"github.com/sakif/heartline/internal/handler"
	"github.com/sakif/heartline/internal/server"
)

func main() {
	cfg := config.Load()

	// Text logs for a developer terminal, JSON for log collectors.
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var logger *slog.Logger
	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Raw error text is only shown to clients while developing.
	handler.SetExposeErrorDetail(cfg.IsDevelopment())

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
