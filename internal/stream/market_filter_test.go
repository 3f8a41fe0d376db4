package stream

import (
	"testing"

	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tradeBlock() *models.Block {
	return &models.Block{
		BlockNumber: 9,
		Transactions: []models.Transaction{
			{TransactionID: "a", Sender: "alice", Contract: "market", Action: "buy", Payload: `{"symbol":"bee","quantity":"2","price":"0.3"}`},
			{TransactionID: "b", Sender: "bob", Contract: "market", Action: "sell", Payload: `{"symbol":"LEO","quantity":"1","price":"0.1"}`},
			{TransactionID: "c", Sender: "bob", Contract: "market", Action: "cancel", Payload: `{"type":"sell","id":"c"}`},
			{TransactionID: "d", Sender: "carol", Contract: "tokens", Action: "transfer", Payload: `{"symbol":"BEE"}`},
			{TransactionID: "e", Sender: "dave", Contract: "market", Action: "buy", Payload: `not json`},
		},
	}
}

func TestMarketFilter_Symbols(t *testing.T) {
	trades := NewMarketFilter("BEE").Trades(tradeBlock())
	require.Len(t, trades, 1)
	assert.Equal(t, MarketTrade{
		BlockNumber:   9,
		TransactionID: "a",
		Account:       "alice",
		Action:        "buy",
		Symbol:        "BEE",
		Quantity:      "2",
		Price:         "0.3",
	}, trades[0])
}

func TestMarketFilter_AllSymbols(t *testing.T) {
	trades := NewMarketFilter().Trades(tradeBlock())
	require.Len(t, trades, 2)
	assert.Equal(t, "sell", trades[1].Action)

	assert.Nil(t, NewMarketFilter().Trades(nil))
}
