package bootstrap

import (
	"context"
	"testing"

	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/config"
	"github.com/aman-zulfiqar/hive-engine-go/internal/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(node *testutil.Node) *config.Config {
	cfg := config.Load()
	cfg.RPCUrl = node.RPCURL()
	cfg.HistoryURL = node.HistoryURL()
	cfg.RedisAddr = ""
	cfg.BroadcastMode = config.BroadcastDryRun
	return cfg
}

func TestNew_InMemory(t *testing.T) {
	node := testutil.NewNode(t)
	node.AddBlock(7, map[string]any{})

	s, err := New(context.Background(), testConfig(node), testutil.Logger())
	require.NoError(t, err)
	defer s.Close()

	assert.Nil(t, s.Redis)
	b, err := s.API.LatestBlock(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 7, b.BlockNumber)

	families, err := s.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "hiveengine_rpc_requests_total")
}

func TestStack_Sender(t *testing.T) {
	node := testutil.NewNode(t)
	cfg := testConfig(node)
	cfg.AppID = "ssc-testnet"

	s, err := New(context.Background(), cfg, testutil.Logger())
	require.NoError(t, err)

	sender, err := s.Sender("")
	require.NoError(t, err)
	assert.Equal(t, "ssc-testnet", sender.ID())
	_, ok := sender.Broadcaster().(*chain.DryRun)
	assert.True(t, ok)

	_, err = s.Sender(config.BroadcastRelay)
	assert.ErrorContains(t, err, "REDIS_ADDR")

	_, err = s.Broadcaster("sign")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("loud").GetLevel())
}
