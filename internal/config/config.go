package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
)

// Broadcast modes
const (
	BroadcastDryRun = "dry-run"
	BroadcastRelay  = "relay"
)

type Config struct {
	// Sidechain node
	RPCUrl            string
	RPCUser           string
	RPCPassword       string
	RPCRateLimit      float64
	HistoryURL        string
	HistoryMaxRetries int

	// Host chain node used for balance checks before deposits
	HiveNodeURL string

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Broadcasting
	AppID         string
	Chain         string
	Account       string
	BroadcastMode string
	RelayChannel  string

	// Redis settings; an empty address selects the in-memory cache
	RedisAddr string
	CacheTTL  time.Duration

	// API server
	APIAddr      string
	APIKey       string
	DevMode      bool
	APIRateLimit float64

	// Streamer
	PollInterval time.Duration

	LogLevel string
}

func Load() *Config {
	return &Config{
		// Sidechain
		RPCUrl:            getEnv("HIVEENGINE_RPC_URL", "https://api.hive-engine.com/rpc/"),
		RPCUser:           getEnv("HIVEENGINE_RPC_USER", ""),
		RPCPassword:       getEnv("HIVEENGINE_RPC_PASSWORD", ""),
		RPCRateLimit:      getFloatEnv("RPC_RATE_LIMIT", 0),
		HistoryURL:        getEnv("HIVEENGINE_HISTORY_URL", "https://history.hive-engine.com/"),
		HistoryMaxRetries: getIntEnv("HISTORY_MAX_RETRIES", 10),
		HiveNodeURL:       getEnv("HIVE_NODE_URL", "https://api.hive.blog"),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 60*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 3),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", time.Second),

		// Broadcast
		AppID:         getEnv("HIVEENGINE_APP_ID", constants.DefaultAppID),
		Chain:         getEnv("HIVEENGINE_CHAIN", constants.ChainHive),
		Account:       getEnv("HIVEENGINE_ACCOUNT", ""),
		BroadcastMode: strings.ToLower(getEnv("BROADCAST_MODE", BroadcastDryRun)),
		RelayChannel:  getEnv("RELAY_CHANNEL", constants.PubSubChannelOps),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", ""),
		CacheTTL:  getDurationEnv("CACHE_TTL", constants.DefaultCacheTTL),

		// API
		APIAddr:      getEnv("API_ADDR", ":8090"),
		APIKey:       getEnv("API_KEY", ""),
		DevMode:      getBoolEnv("DEV_MODE", false),
		APIRateLimit: getFloatEnv("API_RATE_LIMIT", 5),

		// Streamer
		PollInterval: getDurationEnv("POLL_INTERVAL", 3*time.Second),

		LogLevel: getEnv("HIVEENGINE_LOG_LEVEL", "info"),
	}
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error
	if err := validURL(c.RPCUrl); err != nil {
		errs = append(errs, fmt.Errorf("HIVEENGINE_RPC_URL: %w", err))
	}
	if err := validURL(c.HistoryURL); err != nil {
		errs = append(errs, fmt.Errorf("HIVEENGINE_HISTORY_URL: %w", err))
	}
	if (c.RPCUser == "") != (c.RPCPassword == "") {
		errs = append(errs, errors.New("HIVEENGINE_RPC_USER and HIVEENGINE_RPC_PASSWORD must be set together"))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}
	if c.MaxRetries < 0 || c.HistoryMaxRetries < 0 {
		errs = append(errs, errors.New("retry counts must not be negative"))
	}
	if c.RPCRateLimit < 0 || c.APIRateLimit < 0 {
		errs = append(errs, errors.New("rate limits must not be negative"))
	}
	if c.AppID == "" {
		errs = append(errs, errors.New("HIVEENGINE_APP_ID must not be empty"))
	}
	switch c.BroadcastMode {
	case BroadcastDryRun:
	case BroadcastRelay:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("BROADCAST_MODE=relay needs REDIS_ADDR"))
		}
	default:
		errs = append(errs, fmt.Errorf("BROADCAST_MODE must be %s or %s, got %q", BroadcastDryRun, BroadcastRelay, c.BroadcastMode))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be positive"))
	}
	return errors.Join(errs...)
}

func validURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
