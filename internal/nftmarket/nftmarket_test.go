package nftmarket

import (
	"context"
	"testing"

	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/nft"
	"github.com/aman-zulfiqar/hive-engine-go/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*testutil.Node, *testutil.Broadcaster, *NftMarket) {
	t.Helper()
	node := testutil.NewNode(t)
	node.SetRows("nft", "nfts", map[string]any{"symbol": "STAR", "issuer": "splinterlands"})
	node.SetRows("nftmarket", "STARsellBook",
		map[string]any{"_id": 1, "account": "alice", "nftId": "10", "price": "5", "priceSymbol": "SWAP.HIVE", "grouping": map[string]any{"type": "2"}},
		map[string]any{"_id": 2, "account": "bob", "nftId": "11", "price": "7", "priceSymbol": "STARBITS", "grouping": map[string]any{"type": "1"}},
	)
	node.SetRows("nftmarket", "STARopenInterest",
		map[string]any{"side": "sell", "priceSymbol": "SWAP.HIVE", "grouping": map[string]any{"type": "2"}, "count": 4},
		map[string]any{"side": "buy", "priceSymbol": "SWAP.HIVE", "grouping": map[string]any{"type": "2"}, "count": 1},
	)
	bc := testutil.NewBroadcaster()
	return node, bc, New(node.API(), bc.Sender())
}

func TestNftMarket_GetSellBook(t *testing.T) {
	_, _, m := setup(t)
	ctx := context.Background()

	all, err := m.GetSellBook(ctx, "star", Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	grouped, err := m.GetSellBook(ctx, "STAR", Filter{GroupingName: "type", GroupingValue: "1"})
	require.NoError(t, err)
	require.Len(t, grouped, 1)
	assert.Equal(t, "bob", grouped[0].Account)

	bySymbol, err := m.GetSellBook(ctx, "STAR", Filter{PriceSymbol: "swap.hive", Limit: 10})
	require.NoError(t, err)
	require.Len(t, bySymbol, 1)
	assert.Equal(t, "10", bySymbol[0].NftID)

	_, err = m.GetSellBook(ctx, "NOPE", Filter{})
	assert.ErrorIs(t, err, nft.ErrNftDoesNotExist)
}

func TestNftMarket_GetOpenInterest(t *testing.T) {
	_, _, m := setup(t)
	ctx := context.Background()

	sells, err := m.GetOpenInterest(ctx, "STAR", Filter{})
	require.NoError(t, err)
	require.Len(t, sells, 1)
	assert.EqualValues(t, 4, sells[0].Count)

	buys, err := m.GetOpenInterest(ctx, "STAR", Filter{Side: "buy"})
	require.NoError(t, err)
	require.Len(t, buys, 1)
	assert.EqualValues(t, 1, buys[0].Count)
}

func TestNftMarket_Buy(t *testing.T) {
	_, bc, m := setup(t)

	_, err := m.Buy(context.Background(), "star", "alice", []string{"10", "11"}, "")
	require.NoError(t, err)

	call := bc.Last()
	assert.Equal(t, "nftmarket", call.Payload.ContractName)
	assert.Equal(t, "buy", call.Payload.ContractAction)
	assert.Equal(t, map[string]any{"symbol": "STAR", "nfts": []string{"10", "11"}, "marketAccount": "nftmarket"}, call.Payload.ContractPayload)
	assert.Equal(t, []string{"alice"}, call.Auths.Active)
}

func TestNftMarket_Sell(t *testing.T) {
	_, bc, m := setup(t)
	ctx := context.Background()

	_, err := m.Sell(ctx, "STAR", "alice", []string{"1"}, "100", "STARBITS", 10001)
	assert.ErrorIs(t, err, chain.ErrInvalidRequest)

	_, err = m.Sell(ctx, "STAR", "alice", []string{"1"}, "-1", "STARBITS", 500)
	assert.ErrorIs(t, err, chain.ErrInvalidRequest)

	_, err = m.Sell(ctx, "STAR", "alice", nil, "100", "STARBITS", 500)
	assert.ErrorIs(t, err, chain.ErrInvalidRequest)
	assert.Empty(t, bc.Calls())

	_, err = m.Sell(ctx, "star", "alice", []string{"1"}, "100.5", "starbits", 500)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"symbol":      "STAR",
		"nfts":        []string{"1"},
		"price":       "100.5",
		"priceSymbol": "STARBITS",
		"fee":         500,
	}, bc.Last().Payload.ContractPayload)
}

func TestNftMarket_ChangePriceAndCancel(t *testing.T) {
	_, bc, m := setup(t)
	ctx := context.Background()

	_, err := m.ChangePrice(ctx, "STAR", "alice", []string{"1"}, "30")
	require.NoError(t, err)
	assert.Equal(t, "changePrice", bc.Last().Payload.ContractAction)
	assert.Equal(t, map[string]any{"symbol": "STAR", "nfts": []string{"1"}, "price": "30"}, bc.Last().Payload.ContractPayload)

	_, err = m.Cancel(ctx, "STAR", "alice", []string{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, "cancel", bc.Last().Payload.ContractAction)
	assert.Equal(t, map[string]any{"symbol": "STAR", "nfts": []string{"1", "2"}}, bc.Last().Payload.ContractPayload)
}
