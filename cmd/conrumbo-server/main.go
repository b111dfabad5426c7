// Package main provides the entry point for the conrumbo HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/config"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/server"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/service"
)

const version = "0.1.0"

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup logger (dual output: stderr text + file JSON)
	logger, cleanup := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("conrumbo starting",
		"version", version,
		"protocols_dir", cfg.ProtocolsDir,
		"embedding_provider", cfg.EmbeddingProvider,
		"listen_addr", cfg.ListenAddr,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	svc, err := service.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize service", "error", err)
		os.Exit(1)
	}
	logger.Info("service ready", "protocols", svc.ProtocolCount())

	srv := server.New(svc, logger, version)
	if err := srv.Run(ctx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
