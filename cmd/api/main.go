package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aman-zulfiqar/hive-engine-go/internal/bootstrap"
	"github.com/aman-zulfiqar/hive-engine-go/internal/config"
	"github.com/aman-zulfiqar/hive-engine-go/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// main starts the read-only REST gateway with graceful shutdown
func main() {
	logger := bootstrap.NewLogger("info")

	// load .env BEFORE anything reads os.Getenv
	bootstrap.LoadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	logger = bootstrap.NewLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stack, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to build client stack")
	}
	defer stack.Close()

	stack.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: &server.Handlers{API: stack.API, Logger: logger},
		Config: server.ServerConfig{
			Addr:      cfg.APIAddr,
			DevMode:   cfg.DevMode,
			APIKey:    cfg.APIKey,
			RateLimit: cfg.APIRateLimit,
			RateBurst: 10,
			Gatherer:  prometheus.Gatherer(stack.Registry),
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	logger.WithFields(map[string]any{
		"addr": cfg.APIAddr,
		"node": cfg.RPCUrl,
	}).Info("api server starting")
	if err := srv.Run(ctx); err != nil {
		logger.WithError(err).Fatal("api server failed")
	}
	logger.Info("api server stopped")
}
