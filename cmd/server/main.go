package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sleeper-players-service/internal/config"
	"sleeper-players-service/internal/logging"
	"sleeper-players-service/internal/server"
)

const appVersion = "dev"

func main() {
	if os.Getenv("SKIP_SERVER_RUN") == "1" {
		return
	}

	cfg, err := config.Load()
	if err != nil {
		config.Exitf("invalid configuration: %v", err)
	}
	logger := logging.NewLogger(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "sleeper-players-service",
		Version: appVersion,
	})
	server.Version = appVersion

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger)
	srv.Run(ctx, stop)
}
