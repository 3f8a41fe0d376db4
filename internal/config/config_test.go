package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "https://api.hive-engine.com/rpc/", cfg.RPCUrl)
	assert.Equal(t, "https://history.hive-engine.com/", cfg.HistoryURL)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 10, cfg.HistoryMaxRetries)
	assert.Equal(t, "ssc-mainnet-hive", cfg.AppID)
	assert.Equal(t, "hive", cfg.Chain)
	assert.Equal(t, BroadcastDryRun, cfg.BroadcastMode)
	assert.Equal(t, "hiveengine:ops", cfg.RelayChannel)
	assert.Equal(t, ":8090", cfg.APIAddr)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HIVEENGINE_RPC_URL", "http://localhost:5000/")
	t.Setenv("MAX_RETRIES", "0")
	t.Setenv("RPC_RATE_LIMIT", "2.5")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("BROADCAST_MODE", "RELAY")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CACHE_TTL", "1m")

	cfg := Load()
	assert.Equal(t, "http://localhost:5000/", cfg.RPCUrl)
	assert.Equal(t, 0, cfg.MaxRetries)
	assert.Equal(t, 2.5, cfg.RPCRateLimit)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, BroadcastRelay, cfg.BroadcastMode)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("MAX_RETRIES", "many")
	t.Setenv("HTTP_TIMEOUT", "soon")
	t.Setenv("DEV_MODE", "maybe")

	cfg := Load()
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.False(t, cfg.DevMode)
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.RPCUrl = "ftp://node"
	cfg.RPCUser = "user"
	cfg.BroadcastMode = "relay"
	cfg.RedisAddr = ""
	cfg.MaxRetries = -1

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "HIVEENGINE_RPC_URL")
	assert.Contains(t, msg, "must be set together")
	assert.Contains(t, msg, "needs REDIS_ADDR")
	assert.Contains(t, msg, "retry counts")

	cfg = Load()
	cfg.BroadcastMode = "sign"
	assert.ErrorContains(t, cfg.Validate(), "BROADCAST_MODE")
}
