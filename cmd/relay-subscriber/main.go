package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/aman-zulfiqar/hive-engine-go/internal/bootstrap"
	"github.com/aman-zulfiqar/hive-engine-go/internal/cache"
	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// main prints every operation relayed for signing
func main() {
	logger := bootstrap.NewLogger("info")
	bootstrap.LoadEnv(logger)

	cfg := config.Load()
	logger = bootstrap.NewLogger(cfg.LogLevel)
	if cfg.RedisAddr == "" {
		logger.Fatal("REDIS_ADDR is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down subscriber")
		cancel()
	}()

	rclient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rclient.Close()
	if err := rclient.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Fatal("failed to connect to Redis")
	}

	pubsub := cache.NewPubSubManager(rclient, logger)
	err := pubsub.Subscribe(ctx, cfg.RelayChannel, func(data []byte) {
		var env chain.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			logger.WithError(err).Warn("skipping malformed operation")
			return
		}
		entry := logger.WithFields(logrus.Fields{"type": env.Type, "created_at": env.CreatedAt})
		switch {
		case env.CustomJSON != nil:
			entry.WithFields(logrus.Fields{
				"id":             env.CustomJSON.ID,
				"required_auths": env.CustomJSON.RequiredAuths,
				"posting_auths":  env.CustomJSON.RequiredPostingAuths,
				"json":           env.CustomJSON.JSON,
			}).Info("custom_json awaiting signature")
		case env.Transfer != nil:
			entry.WithFields(logrus.Fields{
				"from":   env.Transfer.From,
				"to":     env.Transfer.To,
				"amount": env.Transfer.Amount,
				"memo":   env.Transfer.Memo,
			}).Info("transfer awaiting signature")
		default:
			entry.Warn("operation without body")
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Fatal("subscriber failed")
	}
}
