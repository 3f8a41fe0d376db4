package wallet

import (
	"context"
	"testing"

	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/testutil"
	"github.com/aman-zulfiqar/hive-engine-go/internal/tokens"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setup(t *testing.T) (*testutil.Node, *testutil.Broadcaster, *Wallet) {
	t.Helper()
	node := testutil.NewNode(t)
	node.SetRows("tokens", "tokens",
		map[string]any{"symbol": "BEE", "issuer": "hive-engine", "precision": 3, "maxSupply": "1000.000", "supply": "100.000"},
		map[string]any{"symbol": "FULL", "issuer": "alice", "precision": 0, "maxSupply": "10", "supply": "10"},
		map[string]any{"symbol": "MINE", "issuer": "alice", "precision": 2, "maxSupply": "100.00", "supply": "99.00"},
	)
	node.SetRows("tokens", "balances",
		map[string]any{"account": "alice", "symbol": "BEE", "balance": "10.000", "stake": "2.000", "delegationsOut": "1.000"},
		map[string]any{"account": "alice", "symbol": "MINE", "balance": "1.00"},
		map[string]any{"account": "bob", "symbol": "BEE", "balance": "99.000"},
	)
	bc := testutil.NewBroadcaster()
	w, err := New(node.API(), bc.Sender(), "alice")
	require.NoError(t, err)
	return node, bc, w
}

func TestWallet_Refresh(t *testing.T) {
	_, _, w := setup(t)
	ctx := context.Background()

	require.NoError(t, w.Refresh(ctx))
	assert.Len(t, w.Balances(), 2)

	bee, err := w.Get(ctx, "bee")
	require.NoError(t, err)
	require.NotNil(t, bee)
	assert.Equal(t, "10.000", bee.Balance)

	missing, err := w.Get(ctx, "LEO")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, w.ChangeAccount(ctx, "bob"))
	assert.Equal(t, "bob", w.Account())
	assert.Equal(t, "99.000", w.Token("BEE").Balance)
}

func TestWallet_TransferBalanceGate(t *testing.T) {
	_, bc, w := setup(t)
	ctx := context.Background()

	_, err := w.Transfer(ctx, "bob", dec("10.001"), "BEE", "")
	assert.ErrorIs(t, err, tokens.ErrInsufficientTokenAmount)
	assert.Empty(t, bc.Calls())

	_, err = w.Transfer(ctx, "bob", dec("10.000"), "bee", "thanks")
	require.NoError(t, err)
	require.Len(t, bc.Calls(), 1)

	call := bc.Last()
	assert.Equal(t, "ssc-mainnet-hive", call.ID)
	assert.Equal(t, "tokens", call.Payload.ContractName)
	assert.Equal(t, "transfer", call.Payload.ContractAction)
	assert.Equal(t, map[string]any{"symbol": "BEE", "to": "bob", "quantity": "10.000", "memo": "thanks"}, call.Payload.ContractPayload)
	assert.Equal(t, []string{"alice"}, call.Auths.Active)
}

func TestWallet_TransferRejections(t *testing.T) {
	_, bc, w := setup(t)
	ctx := context.Background()

	_, err := w.Transfer(ctx, "bob", dec("1"), "LEO", "")
	assert.ErrorIs(t, err, tokens.ErrTokenNotInWallet)

	_, err = w.Transfer(ctx, "bob", dec("0.0001"), "BEE", "")
	assert.ErrorIs(t, err, tokens.ErrInvalidTokenAmount)

	_, err = w.Transfer(ctx, "Not An Account", dec("1"), "BEE", "")
	assert.ErrorIs(t, err, chain.ErrInvalidRequest)

	assert.Empty(t, bc.Calls())
}

func TestWallet_TransferTruncates(t *testing.T) {
	_, bc, w := setup(t)

	_, err := w.Transfer(context.Background(), "bob", dec("1.23456"), "BEE", "")
	require.NoError(t, err)
	assert.Equal(t, "1.234", bc.Last().Payload.ContractPayload.(map[string]any)["quantity"])
}

func TestWallet_Stake(t *testing.T) {
	_, bc, w := setup(t)
	ctx := context.Background()

	_, err := w.Stake(ctx, dec("1.5"), "BEE", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"symbol": "BEE", "to": "alice", "quantity": "1.500"}, bc.Last().Payload.ContractPayload)

	_, err = w.Stake(ctx, dec("1"), "BEE", "carol")
	require.NoError(t, err)
	assert.Equal(t, "carol", bc.Last().Payload.ContractPayload.(map[string]any)["to"])

	_, err = w.Stake(ctx, dec("11"), "BEE", "")
	assert.ErrorIs(t, err, tokens.ErrInsufficientTokenAmount)
}

func TestWallet_Unstake(t *testing.T) {
	_, bc, w := setup(t)
	ctx := context.Background()

	_, err := w.Unstake(ctx, dec("1"), "MINE")
	assert.ErrorIs(t, err, tokens.ErrInsufficientTokenAmount)

	_, err = w.Unstake(ctx, dec("3"), "BEE")
	assert.ErrorIs(t, err, tokens.ErrInsufficientTokenAmount)
	assert.Empty(t, bc.Calls())

	_, err = w.Unstake(ctx, dec("2"), "BEE")
	require.NoError(t, err)
	assert.Equal(t, "unstake", bc.Last().Payload.ContractAction)
	assert.Equal(t, map[string]any{"symbol": "BEE", "quantity": "2.000"}, bc.Last().Payload.ContractPayload)
}

func TestWallet_CancelUnstake(t *testing.T) {
	_, bc, w := setup(t)

	_, err := w.CancelUnstake(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "cancelUnstake", bc.Last().Payload.ContractAction)
	assert.Equal(t, map[string]any{"txID": "abc123"}, bc.Last().Payload.ContractPayload)
}

func TestWallet_Delegation(t *testing.T) {
	_, bc, w := setup(t)
	ctx := context.Background()

	_, err := w.Delegate(ctx, "bob", dec("2"), "BEE")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"symbol": "BEE", "to": "bob", "quantity": "2.000"}, bc.Last().Payload.ContractPayload)

	_, err = w.Delegate(ctx, "bob", dec("2.5"), "BEE")
	assert.ErrorIs(t, err, tokens.ErrInsufficientTokenAmount)

	_, err = w.Undelegate(ctx, "bob", dec("1"), "BEE")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"symbol": "BEE", "from": "bob", "quantity": "1.000"}, bc.Last().Payload.ContractPayload)

	_, err = w.Undelegate(ctx, "bob", dec("1.001"), "BEE")
	assert.ErrorIs(t, err, tokens.ErrInsufficientTokenAmount)
}

func TestWallet_Issue(t *testing.T) {
	_, bc, w := setup(t)
	ctx := context.Background()

	_, err := w.Issue(ctx, "bob", dec("1"), "BEE")
	assert.ErrorIs(t, err, tokens.ErrTokenIssueNotPermitted)

	_, err = w.Issue(ctx, "bob", dec("1"), "FULL")
	assert.ErrorIs(t, err, tokens.ErrMaxSupplyReached)

	_, err = w.Issue(ctx, "bob", dec("1.01"), "MINE")
	assert.ErrorIs(t, err, tokens.ErrInvalidTokenAmount)

	_, err = w.Issue(ctx, "bob", dec("1"), "NOPE")
	assert.ErrorIs(t, err, tokens.ErrTokenDoesNotExist)
	assert.Empty(t, bc.Calls())

	_, err = w.Issue(ctx, "bob", dec("0.999"), "mine")
	require.NoError(t, err)
	assert.Equal(t, "issue", bc.Last().Payload.ContractAction)
	assert.Equal(t, map[string]any{"symbol": "MINE", "to": "bob", "quantity": "0.99"}, bc.Last().Payload.ContractPayload)
}

func TestWallet_WrongChain(t *testing.T) {
	node, _, _ := setup(t)
	bc := testutil.NewBroadcaster()
	bc.NotHive = true
	w, err := New(node.API(), bc.Sender(), "alice")
	require.NoError(t, err)

	_, err = w.Transfer(context.Background(), "bob", dec("1"), "BEE", "")
	assert.ErrorIs(t, err, chain.ErrWrongChain)
	assert.Empty(t, bc.Calls())
}

func TestWallet_Books(t *testing.T) {
	node, _, w := setup(t)
	node.SetRows("market", "sellBook",
		map[string]any{"_id": 7, "account": "alice", "symbol": "BEE", "quantity": "1", "price": "2"},
		map[string]any{"_id": 8, "account": "alice", "symbol": "LEO", "quantity": "1", "price": "2"},
		map[string]any{"_id": 9, "account": "bob", "symbol": "BEE", "quantity": "1", "price": "2"},
	)
	ctx := context.Background()

	all, err := w.GetSellBook(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bee, err := w.GetSellBook(ctx, "bee", 0, 0)
	require.NoError(t, err)
	require.Len(t, bee, 1)
	assert.Equal(t, "7", bee[0].ID.String())

	buys, err := w.GetBuyBook(ctx, "", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, buys)

	reqs := node.Requests()
	params := reqs[len(reqs)-1].Params.(map[string]any)
	assert.EqualValues(t, 100, params["limit"])
}

func TestWallet_History(t *testing.T) {
	node, _, w := setup(t)
	node.SetHistory(map[string]any{"account": "alice", "symbol": "BEE", "operation": "tokens_transfer"})

	entries, err := w.GetHistory(context.Background(), "bee", 10, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "tokens_transfer", entries[0].Operation)
}

func TestNew_InvalidAccount(t *testing.T) {
	_, err := New(nil, nil, "X")
	assert.ErrorIs(t, err, chain.ErrInvalidRequest)
}
