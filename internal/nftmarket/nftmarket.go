package nftmarket

import (
	"context"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/api"
	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
	"github.com/aman-zulfiqar/hive-engine-go/internal/nft"
	"github.com/shopspring/decimal"
)

// DefaultMarketAccount receives the market fee when a buyer names no other
const DefaultMarketAccount = "nftmarket"

// Filter narrows nftmarket reads. A zero Limit reads every page.
type Filter struct {
	Account       string
	GroupingName  string
	GroupingValue string
	PriceSymbol   string
	NftID         string
	Side          string
	Timestamp     int64
	Limit         int
}

func (f Filter) query() api.Query {
	q := api.Query{}
	if f.Account != "" {
		q["account"] = f.Account
	}
	if f.GroupingName != "" && f.GroupingValue != "" {
		q["grouping."+f.GroupingName] = f.GroupingValue
	}
	if f.PriceSymbol != "" {
		q["priceSymbol"] = strings.ToUpper(f.PriceSymbol)
	}
	if f.NftID != "" {
		q["nftId"] = f.NftID
	}
	if f.Timestamp != 0 {
		q["timestamp"] = f.Timestamp
	}
	return q
}

func (f Filter) limit() int {
	if f.Limit == 0 {
		return -1
	}
	return f.Limit
}

// NftMarket reads the NFT market and builds nftmarket contract operations
type NftMarket struct {
	*chain.Sender

	api *api.Client
}

func New(client *api.Client, sender *chain.Sender) *NftMarket {
	return &NftMarket{Sender: sender, api: client}
}

// GetSellBook returns open sell orders of symbol
func (m *NftMarket) GetSellBook(ctx context.Context, symbol string, f Filter) ([]models.NftOrder, error) {
	n, err := nft.Load(ctx, m.api, nil, symbol)
	if err != nil {
		return nil, err
	}
	return n.GetSellBook(ctx, f.query(), f.limit(), 0)
}

// GetOpenInterest returns open interest of symbol on f.Side, "sell" when
// unset
func (m *NftMarket) GetOpenInterest(ctx context.Context, symbol string, f Filter) ([]models.NftOpenInterest, error) {
	n, err := nft.Load(ctx, m.api, nil, symbol)
	if err != nil {
		return nil, err
	}
	q := f.query()
	delete(q, "account")
	delete(q, "nftId")
	q["side"] = "sell"
	if f.Side != "" {
		q["side"] = f.Side
	}
	return n.GetOpenInterest(ctx, q, f.limit(), 0)
}

// GetTradesHistory returns completed trades of symbol
func (m *NftMarket) GetTradesHistory(ctx context.Context, symbol string, f Filter) ([]models.NftTrade, error) {
	n, err := nft.Load(ctx, m.api, nil, symbol)
	if err != nil {
		return nil, err
	}
	q := f.query()
	delete(q, "nftId")
	return n.GetTradeHistory(ctx, q, -1, 0)
}

// Buy buys the listed instances; marketAccount collects the fee
func (m *NftMarket) Buy(ctx context.Context, symbol, account string, nftIDs []string, marketAccount string) (chain.Receipt, error) {
	if marketAccount == "" {
		marketAccount = DefaultMarketAccount
	}
	if err := chain.ValidateAccount(marketAccount); err != nil {
		return nil, err
	}
	return m.send(ctx, account, "buy", symbol, nftIDs, map[string]any{"marketAccount": marketAccount})
}

// Sell lists instances at price in priceSymbol. fee is in basis points,
// 500 meaning 5%.
func (m *NftMarket) Sell(ctx context.Context, symbol, account string, nftIDs []string, price, priceSymbol string, fee int) (chain.Receipt, error) {
	price, err := checkPrice(price)
	if err != nil {
		return nil, err
	}
	if fee < 0 || fee > constants.MaxNftMarketFee {
		return nil, chain.Invalid("fee must be between 0 and %d, got %d", constants.MaxNftMarketFee, fee)
	}
	if priceSymbol == "" {
		return nil, chain.Invalid("price symbol is required")
	}
	return m.send(ctx, account, "sell", symbol, nftIDs, map[string]any{
		"price":       price,
		"priceSymbol": strings.ToUpper(priceSymbol),
		"fee":         fee,
	})
}

// ChangePrice reprices listed instances
func (m *NftMarket) ChangePrice(ctx context.Context, symbol, account string, nftIDs []string, price string) (chain.Receipt, error) {
	price, err := checkPrice(price)
	if err != nil {
		return nil, err
	}
	return m.send(ctx, account, "changePrice", symbol, nftIDs, map[string]any{"price": price})
}

// Cancel removes listed instances from the market
func (m *NftMarket) Cancel(ctx context.Context, symbol, account string, nftIDs []string) (chain.Receipt, error) {
	return m.send(ctx, account, "cancel", symbol, nftIDs, map[string]any{})
}

func (m *NftMarket) send(ctx context.Context, account, action, symbol string, nftIDs []string, p map[string]any) (chain.Receipt, error) {
	if err := chain.ValidateAccount(account); err != nil {
		return nil, err
	}
	if len(nftIDs) == 0 {
		return nil, chain.Invalid("no nft ids given")
	}
	if strings.TrimSpace(symbol) == "" {
		return nil, chain.Invalid("symbol is required")
	}
	p["symbol"] = strings.ToUpper(symbol)
	p["nfts"] = append([]string(nil), nftIDs...)
	return m.Send(ctx, chain.Payload{
		ContractName:    constants.ContractNftMarket,
		ContractAction:  action,
		ContractPayload: p,
	}, chain.ActiveAuth(account))
}

func checkPrice(price string) (string, error) {
	price = strings.TrimSpace(price)
	p, err := decimal.NewFromString(price)
	if err != nil || !p.IsPositive() {
		return "", chain.Invalid("price must be a positive decimal, got %q", price)
	}
	return price, nil
}
