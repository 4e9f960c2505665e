// Command server runs the user-auth HTTP API.
//
// Configuration comes from the environment (and an optional .env file); see
// internal/config for the variables it reads.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/sakif/user-auth/internal/config"
	"github.com/sakif/user-auth/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if cfg.SecretKey == "" {
		logger.Warn("SECRET_KEY not set: login and /user/me will answer 403")
	}

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
