package stream

import (
	"encoding/json"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
)

// MarketTrade is a market buy or sell order found in a block
type MarketTrade struct {
	BlockNumber   int64
	TransactionID string
	Account       string
	Action        string
	Symbol        string
	Quantity      string
	Price         string
}

type marketPayload struct {
	Symbol   string `json:"symbol"`
	Quantity string `json:"quantity"`
	Price    string `json:"price"`
}

// MarketFilter picks market buy and sell orders for a set of symbols. An
// empty set matches every symbol.
type MarketFilter struct {
	symbols map[string]struct{}
}

func NewMarketFilter(symbols ...string) *MarketFilter {
	f := &MarketFilter{symbols: make(map[string]struct{}, len(symbols))}
	for _, s := range symbols {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			f.symbols[s] = struct{}{}
		}
	}
	return f
}

// Trades returns the matching orders of block in transaction order
func (f *MarketFilter) Trades(block *models.Block) []MarketTrade {
	if block == nil {
		return nil
	}
	var out []MarketTrade
	for _, tx := range block.Transactions {
		if tx.Contract != constants.ContractMarket || (tx.Action != "buy" && tx.Action != "sell") {
			continue
		}
		var p marketPayload
		if err := json.Unmarshal([]byte(tx.Payload), &p); err != nil {
			continue
		}
		symbol := strings.ToUpper(p.Symbol)
		if len(f.symbols) > 0 {
			if _, ok := f.symbols[symbol]; !ok {
				continue
			}
		}
		out = append(out, MarketTrade{
			BlockNumber:   block.BlockNumber,
			TransactionID: tx.TransactionID,
			Account:       tx.Sender,
			Action:        tx.Action,
			Symbol:        symbol,
			Quantity:      p.Quantity,
			Price:         p.Price,
		})
	}
	return out
}
