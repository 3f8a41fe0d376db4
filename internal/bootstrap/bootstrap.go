// Package bootstrap wires the client stack from configuration. Every binary
// builds its collaborators through it.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/aman-zulfiqar/hive-engine-go/internal/api"
	"github.com/aman-zulfiqar/hive-engine-go/internal/cache"
	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/config"
	"github.com/aman-zulfiqar/hive-engine-go/internal/history"
	"github.com/aman-zulfiqar/hive-engine-go/internal/metrics"
	"github.com/aman-zulfiqar/hive-engine-go/internal/rpc"
	"github.com/aman-zulfiqar/hive-engine-go/internal/storage"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// LoadEnv reads .env from the working directory, then from the module root
func LoadEnv(logger *logrus.Logger) {
	if err := godotenv.Load(); err == nil {
		logger.Debug("loaded .env from working directory")
		return
	}

	_, filename, _, _ := runtime.Caller(0)
	envPath := filepath.Join(filepath.Dir(filename), "../..", ".env")
	if err := godotenv.Load(envPath); err != nil {
		logger.Debugf("no .env file found at %s, using system environment variables", envPath)
	} else {
		logger.Infof("loaded .env from %s", envPath)
	}
}

// NewLogger returns a text logger at level; unknown levels fall back to info
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// Stack is the shared client stack of a binary
type Stack struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Redis    *redis.Client // nil when REDIS_ADDR is empty
	Cache    storage.QueryCache
	API      *api.Client
}

// New connects Redis when configured and builds the query client
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Stack, error) {
	if logger == nil {
		logger = NewLogger(cfg.LogLevel)
	}
	s := &Stack{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	s.Metrics = metrics.NewMetricsWithRegistry(s.Registry)

	if cfg.RedisAddr != "" {
		s.Redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: 0})
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			_ = s.Redis.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		s.Cache = cache.NewRedisCacheFromClient(s.Redis, logger)
	} else {
		s.Cache = cache.NewMemoryCache()
	}

	s.API = api.NewClient(api.Config{
		RPC: rpc.NewClient(rpc.ClientConfig{
			BaseURL:   cfg.RPCUrl,
			User:      cfg.RPCUser,
			Password:  cfg.RPCPassword,
			Timeout:   cfg.HTTPTimeout,
			RateLimit: cfg.RPCRateLimit,
			Logger:    logger,
			Metrics:   s.Metrics,
		}),
		History: history.NewClient(history.Config{
			BaseURL:    cfg.HistoryURL,
			MaxRetries: cfg.HistoryMaxRetries,
			Timeout:    cfg.HTTPTimeout,
			Logger:     logger,
			Metrics:    s.Metrics,
		}),
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Cache:        s.Cache,
		CacheTTL:     cfg.CacheTTL,
		Logger:       logger,
		Metrics:      s.Metrics,
	})
	return s, nil
}

// Broadcaster builds the broadcaster selected by mode, or by the configured
// mode when mode is empty
func (s *Stack) Broadcaster(mode string) (chain.Broadcaster, error) {
	if mode == "" {
		mode = s.Config.BroadcastMode
	}
	host := chain.NewHostNode(rpc.NewClient(rpc.ClientConfig{
		BaseURL: s.Config.HiveNodeURL,
		Timeout: s.Config.HTTPTimeout,
		Logger:  s.Logger,
	}))

	switch mode {
	case config.BroadcastDryRun:
		return chain.NewDryRun(s.Config.Chain, host, s.Logger), nil
	case config.BroadcastRelay:
		if s.Redis == nil {
			return nil, errors.New("relay broadcasting needs REDIS_ADDR")
		}
		return chain.NewRelay(chain.RelayConfig{
			Publisher: cache.NewPubSubManager(s.Redis, s.Logger),
			Channel:   s.Config.RelayChannel,
			Chain:     s.Config.Chain,
			Host:      host,
			Logger:    s.Logger,
		}), nil
	}
	return nil, fmt.Errorf("unknown broadcast mode %q", mode)
}

// Sender builds a sender over the broadcaster for mode with the configured
// application id
func (s *Stack) Sender(mode string) (*chain.Sender, error) {
	bc, err := s.Broadcaster(mode)
	if err != nil {
		return nil, err
	}
	sender := chain.NewSender(bc, s.Logger, s.Metrics)
	sender.SetID(s.Config.AppID)
	return sender, nil
}

// Close releases the cache; a Redis cache closes the shared client with it
func (s *Stack) Close() error {
	if s.Cache != nil {
		return s.Cache.Close()
	}
	if s.Redis != nil {
		return s.Redis.Close()
	}
	return nil
}
