package nft

import (
	"context"
	"testing"

	"github.com/aman-zulfiqar/hive-engine-go/internal/api"
	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func starRow() map[string]any {
	return map[string]any{
		"_id":        1,
		"symbol":     "STAR",
		"issuer":     "splinterlands",
		"name":       "Rising Star",
		"orgName":    "Rising Star Game",
		"maxSupply":  0,
		"supply":     3,
		"groupBy":    []string{"type"},
		"properties": map[string]any{"type": map[string]any{"type": "number", "isReadOnly": true}, "stats": map[string]any{"type": "string"}},
	}
}

func setup(t *testing.T) (*testutil.Node, *testutil.Broadcaster, *Nft) {
	t.Helper()
	node := testutil.NewNode(t)
	node.SetRows("nft", "nfts", starRow(), map[string]any{"symbol": "CITY", "issuer": "dcity"})
	node.SetRows("nft", "STARinstances",
		map[string]any{"_id": 1, "account": "alice", "ownedBy": "u", "properties": map[string]any{"type": 4}},
		map[string]any{"_id": 2, "account": "bob", "ownedBy": "u", "properties": map[string]any{"type": 2}},
		map[string]any{"_id": 3, "account": "alice", "ownedBy": "u", "properties": map[string]any{"type": 1}},
	)
	bc := testutil.NewBroadcaster()
	n, err := Load(context.Background(), node.API(), bc.Sender(), "star")
	require.NoError(t, err)
	return node, bc, n
}

func TestLoad(t *testing.T) {
	_, _, n := setup(t)

	assert.Equal(t, "STAR", n.Symbol)
	assert.Equal(t, "splinterlands", n.Issuer)
	assert.Equal(t, []string{"stats", "type"}, n.PropertyNames())
	assert.True(t, n.Properties["type"].IsReadOnly)
	assert.Equal(t, "3", n.Supply.String())

	id, ok := n.Extra("_id")
	require.True(t, ok)
	assert.Equal(t, "1", string(id))
}

func TestLoad_Missing(t *testing.T) {
	node := testutil.NewNode(t)

	_, err := Load(context.Background(), node.API(), nil, "NOPE")
	assert.ErrorIs(t, err, ErrNftDoesNotExist)
}

func TestNft_Instances(t *testing.T) {
	_, _, n := setup(t)
	ctx := context.Background()

	inst, err := n.GetInstance(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, "bob", inst.Account)

	missing, err := n.GetInstance(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, missing)

	owned, err := n.GetCollection(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, owned, 2)
	assert.Equal(t, "3", owned[1].ID.String())
}

func TestNft_MarketQueries(t *testing.T) {
	node, _, n := setup(t)
	node.SetRows("nftmarket", "STARsellBook",
		map[string]any{"_id": 1, "account": "alice", "nftId": "1", "price": "10", "priceSymbol": "SWAP.HIVE", "fee": 500},
		map[string]any{"_id": 2, "account": "bob", "nftId": "2", "price": "12", "priceSymbol": "SWAP.HIVE", "fee": 500},
	)
	ctx := context.Background()

	all, err := n.GetSellBook(ctx, nil, -1, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	page, err := n.GetSellBook(ctx, api.Query{"account": "bob"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, 500, page[0].Fee)
	assert.Equal(t, "2", page[0].NftID)

	reqs := node.Requests()
	params := reqs[len(reqs)-1].Params.(map[string]any)
	assert.Equal(t, "STARsellBook", params["table"])
	assert.EqualValues(t, 10, params["limit"])

	trades, err := n.GetTradeHistory(ctx, nil, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestNft_PostingActions(t *testing.T) {
	_, bc, n := setup(t)
	ctx := context.Background()

	_, err := n.UpdateURL(ctx, "https://example.com")
	require.NoError(t, err)
	call := bc.Last()
	assert.Equal(t, "nft", call.Payload.ContractName)
	assert.Equal(t, "updateUrl", call.Payload.ContractAction)
	assert.Equal(t, map[string]any{"symbol": "STAR", "url": "https://example.com"}, call.Payload.ContractPayload)
	assert.Equal(t, []string{"splinterlands"}, call.Auths.Posting)
	assert.Empty(t, call.Auths.Active)

	_, err = n.UpdateMetadata(ctx, map[string]any{"icon": "star.png"})
	require.NoError(t, err)
	assert.Equal(t, "updateMetadata", bc.Last().Payload.ContractAction)

	for _, f := range []func(context.Context, string) (chain.Receipt, error){n.UpdateName, n.UpdateOrgName, n.UpdateProductName} {
		_, err := f(ctx, "x")
		require.NoError(t, err)
		assert.Equal(t, []string{"splinterlands"}, bc.Last().Auths.Posting)
	}
}

func TestNft_SetProperties(t *testing.T) {
	_, bc, n := setup(t)
	ctx := context.Background()

	_, err := n.SetProperties(ctx, nil, "", "")
	assert.ErrorIs(t, err, chain.ErrInvalidRequest)

	nfts := []InstanceProperties{{ID: "573", Properties: map[string]any{"color": "red"}}}
	_, err = n.SetProperties(ctx, nfts, "contract", "")
	require.NoError(t, err)

	call := bc.Last()
	assert.Equal(t, "setProperties", call.Payload.ContractAction)
	assert.Equal(t, map[string]any{"symbol": "STAR", "nfts": nfts, "fromType": "contract"}, call.Payload.ContractPayload)
	assert.Equal(t, []string{"splinterlands"}, call.Auths.Posting)

	_, err = n.SetProperties(ctx, nfts, "", "editor")
	require.NoError(t, err)
	assert.Equal(t, []string{"editor"}, bc.Last().Auths.Posting)
}

func TestNft_SetGroupBy(t *testing.T) {
	_, bc, n := setup(t)

	_, err := n.SetGroupBy(context.Background(), []string{"level", "isFood"})
	require.NoError(t, err)
	payload := bc.Last().Payload.ContractPayload.(map[string]any)
	assert.Equal(t, []string{"level", "isFood"}, payload["properties"])
	assert.Equal(t, []string{"splinterlands"}, bc.Last().Auths.Active)
}

func TestNft_AddProperty(t *testing.T) {
	_, bc, n := setup(t)
	ctx := context.Background()

	_, err := n.AddProperty(ctx, PropertyDef{Name: "color", Type: "colour"})
	assert.ErrorIs(t, err, chain.ErrInvalidRequest)

	readOnly := true
	_, err = n.AddProperty(ctx, PropertyDef{Name: "color", Type: "string", IsReadOnly: &readOnly})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"symbol": "STAR", "name": "color", "type": "string", "isReadOnly": true}, bc.Last().Payload.ContractPayload)

	_, err = n.SetPropertyPermissions(ctx, "color", []string{"marc"}, nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"symbol": "STAR", "name": "color", "accounts": []string{"marc"}}, bc.Last().Payload.ContractPayload)

	_, err = n.UpdatePropertyDefinition(ctx, PropertyUpdate{Name: "color", NewName: "Color"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"symbol": "STAR", "name": "color", "newName": "Color"}, bc.Last().Payload.ContractPayload)
}

func TestNft_IssuerAdmin(t *testing.T) {
	_, bc, n := setup(t)
	ctx := context.Background()

	_, err := n.AddAuthorizedIssuingAccounts(ctx, []string{"satoshi", "aggroed"})
	require.NoError(t, err)
	assert.Equal(t, "addAuthorizedIssuingAccounts", bc.Last().Payload.ContractAction)

	_, err = n.RemoveAuthorizedIssuingAccounts(ctx, []string{"Bad Name"})
	assert.ErrorIs(t, err, chain.ErrInvalidRequest)

	_, err = n.AddAuthorizedIssuingContracts(ctx, []string{"mycontract"})
	require.NoError(t, err)
	_, err = n.RemoveAuthorizedIssuingContracts(ctx, nil)
	assert.ErrorIs(t, err, chain.ErrInvalidRequest)

	_, err = n.TransferOwnership(ctx, "aggroed")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"symbol": "STAR", "to": "aggroed"}, bc.Last().Payload.ContractPayload)

	_, err = n.EnableDelegation(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"symbol": "STAR", "undelegationCooldown": 30}, bc.Last().Payload.ContractPayload)
}

func TestNft_Issue(t *testing.T) {
	_, bc, n := setup(t)
	ctx := context.Background()

	_, err := n.Issue(ctx, IssueRequest{To: "aggroed", FeeSymbol: "pal"}, "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"symbol": "STAR", "to": "aggroed", "feeSymbol": "PAL"}, bc.Last().Payload.ContractPayload)
	assert.Equal(t, []string{"splinterlands"}, bc.Last().Auths.Active)

	_, err = n.Issue(ctx, IssueRequest{To: "aggroed", FeeSymbol: "PAL", ToType: "robot"}, "")
	assert.ErrorIs(t, err, chain.ErrInvalidRequest)

	_, err = n.IssueMultiple(ctx, []IssueRequest{
		{To: "marc", FeeSymbol: "PAL", FromType: "contract"},
		{Symbol: "TSTNFT", To: "bob", FeeSymbol: "PAL"},
	}, "minter")
	require.NoError(t, err)
	call := bc.Last()
	assert.Equal(t, "issueMultiple", call.Payload.ContractAction)
	assert.Equal(t, []string{"minter"}, call.Auths.Active)
	instances := call.Payload.ContractPayload.(map[string]any)["instances"].([]map[string]any)
	require.Len(t, instances, 2)
	assert.Equal(t, "contract", instances[0]["fromType"])
	assert.Equal(t, "TSTNFT", instances[1]["symbol"])
}

func TestNft_ReadOnly(t *testing.T) {
	node, _, _ := setup(t)
	n, err := Load(context.Background(), node.API(), nil, "STAR")
	require.NoError(t, err)

	_, err = n.UpdateName(context.Background(), "x")
	assert.ErrorIs(t, err, chain.ErrNoBroadcaster)
}

func TestNfts(t *testing.T) {
	node, _, _ := setup(t)
	node.SetRows("nft", "params", map[string]any{"nftCreationFee": "100", "enableDelegationFee": "1000"})
	ctx := context.Background()
	lookups := node.Calls("findOne")

	ns, err := LoadAll(ctx, node.API(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"STAR", "CITY"}, ns.Symbols())
	assert.Equal(t, 2, ns.Len())

	city := ns.Get("city")
	require.NotNil(t, city)
	assert.Equal(t, "dcity", city.Issuer)
	assert.Nil(t, ns.Get("NOPE"))
	assert.Equal(t, lookups, node.Calls("findOne"))

	params, err := ns.Params(ctx)
	require.NoError(t, err)
	assert.Equal(t, "100", params["nftCreationFee"])
}

func TestNft_BoundWithoutIssuer(t *testing.T) {
	node := testutil.NewNode(t)
	bc := testutil.NewBroadcaster()
	n := Bind(node.API(), bc.Sender(), "star")
	ctx := context.Background()

	_, err := n.UpdateURL(ctx, "https://risingstargame.com")
	assert.ErrorIs(t, err, chain.ErrInvalidRequest)
	_, err = n.AddProperty(ctx, PropertyDef{Name: "level", Type: "number"})
	assert.ErrorIs(t, err, chain.ErrInvalidRequest)
	_, err = n.SetProperties(ctx, []InstanceProperties{{ID: "1", Properties: map[string]any{"level": 2}}}, "", "")
	assert.ErrorIs(t, err, chain.ErrInvalidRequest)
	_, err = n.Issue(ctx, IssueRequest{To: "aggroed", FeeSymbol: "PAL"}, "")
	assert.ErrorIs(t, err, chain.ErrInvalidRequest)
	assert.Empty(t, bc.Calls())

	_, err = n.Issue(ctx, IssueRequest{To: "aggroed", FeeSymbol: "pal"}, "minter")
	require.NoError(t, err)
	assert.Equal(t, []string{"minter"}, bc.Last().Auths.Active)
	payload, ok := bc.Last().Payload.ContractPayload.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "PAL", payload["feeSymbol"])
}
