package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Order is an open order from market.buyBook or market.sellBook
type Order struct {
	ID           json.Number `json:"_id"`
	TxID         string      `json:"txId,omitempty"`
	Timestamp    int64       `json:"timestamp,omitempty"`
	Account      string      `json:"account"`
	Symbol       string      `json:"symbol"`
	Quantity     string      `json:"quantity"`
	Price        string      `json:"price"`
	PriceSymbol  string      `json:"priceSymbol,omitempty"`
	TokensLocked string      `json:"tokensLocked,omitempty"`
	Expiration   int64       `json:"expiration,omitempty"`
}

// Trade is a matched order from market.tradesHistory
type Trade struct {
	ID        json.Number `json:"_id,omitempty"`
	Type      string      `json:"type"`
	Buyer     string      `json:"buyer"`
	Seller    string      `json:"seller"`
	Symbol    string      `json:"symbol"`
	Quantity  string      `json:"quantity"`
	Price     string      `json:"price"`
	Volume    string      `json:"volume,omitempty"`
	Timestamp int64       `json:"timestamp"`
	BuyTxID   string      `json:"buyTxId,omitempty"`
	SellTxID  string      `json:"sellTxId,omitempty"`
}

// MarketMetrics is a row of market.metrics
type MarketMetrics struct {
	ID                     json.Number `json:"_id,omitempty"`
	Symbol                 string      `json:"symbol"`
	Volume                 string      `json:"volume"`
	VolumeExpiration       int64       `json:"volumeExpiration,omitempty"`
	LastPrice              string      `json:"lastPrice"`
	LowestAsk              string      `json:"lowestAsk"`
	HighestBid             string      `json:"highestBid"`
	LastDayPrice           string      `json:"lastDayPrice,omitempty"`
	LastDayPriceExpiration int64       `json:"lastDayPriceExpiration,omitempty"`
	PriceChangeHive        string      `json:"priceChangeHive,omitempty"`
	PriceChangePercent     string      `json:"priceChangePercent,omitempty"`
}

// SellPrice is the price a market sell should use: the highest bid, or the
// last traded price when nobody is bidding. The string is returned exactly
// as the node reported it.
func (m *MarketMetrics) SellPrice() string {
	if bid, err := decimal.NewFromString(m.HighestBid); err == nil && bid.IsPositive() {
		return m.HighestBid
	}
	return m.LastPrice
}
