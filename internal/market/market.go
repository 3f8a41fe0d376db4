package market

import (
	"context"
	"fmt"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/api"
	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
	"github.com/aman-zulfiqar/hive-engine-go/internal/tokens"
	"github.com/aman-zulfiqar/hive-engine-go/internal/wallet"
	"github.com/shopspring/decimal"
)

// Order sides accepted by Cancel
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// DefaultTradesLimit is the page size for trade history reads
const DefaultTradesLimit = 30

// Market reads the token market and builds the market and hivepegged
// contract operations.
type Market struct {
	*chain.Sender

	api     *api.Client
	tokens  *tokens.Tokens
	metrics []models.MarketMetrics
}

func New(client *api.Client, sender *chain.Sender) *Market {
	return &Market{Sender: sender, api: client}
}

// Refresh reloads the metrics of every listed token
func (m *Market) Refresh(ctx context.Context) error {
	metrics, err := m.GetMetrics(ctx)
	if err != nil {
		return err
	}
	m.metrics = metrics
	return nil
}

// Metrics returns the rows loaded by the last Refresh
func (m *Market) Metrics() []models.MarketMetrics {
	return append([]models.MarketMetrics(nil), m.metrics...)
}

// GetMetrics reads market.metrics for every token
func (m *Market) GetMetrics(ctx context.Context) ([]models.MarketMetrics, error) {
	rows, err := m.api.FindAll(ctx, constants.ContractMarket, constants.TableMetrics, api.Query{})
	if err != nil {
		return nil, err
	}
	out := make([]models.MarketMetrics, 0, len(rows))
	for _, row := range rows {
		var mm models.MarketMetrics
		if _, err := api.DecodeOne(row, &mm); err != nil {
			return nil, err
		}
		out = append(out, mm)
	}
	return out, nil
}

// GetBuyBook returns open buy orders for symbol, only those of account when
// it is set
func (m *Market) GetBuyBook(ctx context.Context, symbol, account string, limit, offset int) ([]models.Order, error) {
	var out []models.Order
	err := m.find(ctx, constants.TableBuyBook, symbol, account, limit, offset, tokens.DefaultBookLimit, &out)
	return out, err
}

// GetSellBook returns open sell orders for symbol, only those of account
// when it is set
func (m *Market) GetSellBook(ctx context.Context, symbol, account string, limit, offset int) ([]models.Order, error) {
	var out []models.Order
	err := m.find(ctx, constants.TableSellBook, symbol, account, limit, offset, tokens.DefaultBookLimit, &out)
	return out, err
}

// GetTradesHistory returns recent trades of symbol
func (m *Market) GetTradesHistory(ctx context.Context, symbol, account string, limit, offset int) ([]models.Trade, error) {
	var out []models.Trade
	err := m.find(ctx, constants.TableTradesHistory, symbol, account, limit, offset, DefaultTradesLimit, &out)
	return out, err
}

func (m *Market) find(ctx context.Context, table, symbol, account string, limit, offset, defLimit int, out any) error {
	if err := m.requireToken(ctx, symbol); err != nil {
		return err
	}
	q := api.Query{"symbol": strings.ToUpper(symbol)}
	if account != "" {
		q["account"] = account
	}
	if limit <= 0 {
		limit = defLimit
	}
	raw, err := m.api.Find(ctx, constants.ContractMarket, table, q, api.FindOptions{Limit: limit, Offset: offset})
	if err != nil {
		return err
	}
	return api.DecodeRows(raw, out)
}

// requireToken fails with ErrTokenDoesNotExist when symbol is not listed.
// The listing is loaded once per Market.
func (m *Market) requireToken(ctx context.Context, symbol string) error {
	if m.tokens == nil {
		ts, err := tokens.LoadAll(ctx, m.api)
		if err != nil {
			return err
		}
		m.tokens = ts
	}
	if m.tokens.Get(symbol) == nil {
		return fmt.Errorf("%w: %s", tokens.ErrTokenDoesNotExist, strings.ToUpper(symbol))
	}
	return nil
}

// Buy places a buy order for amount of symbol at price SWAP.HIVE. The price
// string is sent as given.
func (m *Market) Buy(ctx context.Context, account string, amount decimal.Decimal, symbol, price string) (chain.Receipt, error) {
	price, p, err := parsePrice(price)
	if err != nil {
		return nil, err
	}
	swap, err := m.balance(ctx, account, constants.PeggedHiveSymbol)
	if err != nil {
		return nil, err
	}
	if swap.LessThan(amount.Mul(p)) {
		return nil, fmt.Errorf("%w: only %s %s in wallet", tokens.ErrInsufficientTokenAmount, swap, constants.PeggedHiveSymbol)
	}
	token, err := tokens.Load(ctx, m.api, symbol)
	if err != nil {
		return nil, err
	}
	quantity, err := token.Quantity(amount)
	if err != nil {
		return nil, err
	}

	return m.send(ctx, account, constants.ContractMarket, "buy", map[string]any{
		"symbol":   token.Symbol,
		"quantity": quantity,
		"price":    price,
	})
}

// Sell places a sell order for amount of symbol at price SWAP.HIVE
func (m *Market) Sell(ctx context.Context, account string, amount decimal.Decimal, symbol, price string) (chain.Receipt, error) {
	price, _, err := parsePrice(price)
	if err != nil {
		return nil, err
	}
	held, err := m.balance(ctx, account, symbol)
	if err != nil {
		return nil, err
	}
	if held.LessThan(amount) {
		return nil, fmt.Errorf("%w: only %s %s in wallet", tokens.ErrInsufficientTokenAmount, held, strings.ToUpper(symbol))
	}
	token, err := tokens.Load(ctx, m.api, symbol)
	if err != nil {
		return nil, err
	}
	quantity, err := token.Quantity(amount)
	if err != nil {
		return nil, err
	}

	return m.send(ctx, account, constants.ContractMarket, "sell", map[string]any{
		"symbol":   token.Symbol,
		"quantity": quantity,
		"price":    price,
	})
}

// Cancel cancels the open order id on side. Whether the order exists is
// decided by the chain.
func (m *Market) Cancel(ctx context.Context, account, side string, id int64) (chain.Receipt, error) {
	if side != SideBuy && side != SideSell {
		return nil, chain.Invalid("order side must be %q or %q, got %q", SideBuy, SideSell, side)
	}
	return m.send(ctx, account, constants.ContractMarket, "cancel", map[string]any{
		"type": side,
		"id":   id,
	})
}

// Withdraw converts SWAP.HIVE back to HIVE on the host chain
func (m *Market) Withdraw(ctx context.Context, account string, amount decimal.Decimal) (chain.Receipt, error) {
	swap, err := m.balance(ctx, account, constants.PeggedHiveSymbol)
	if err != nil {
		return nil, err
	}
	if swap.LessThan(amount) {
		return nil, fmt.Errorf("%w: only %s %s in wallet", tokens.ErrInsufficientTokenAmount, swap, constants.PeggedHiveSymbol)
	}
	token, err := tokens.Load(ctx, m.api, constants.PeggedHiveSymbol)
	if err != nil {
		return nil, err
	}
	quantity, err := token.Quantity(amount)
	if err != nil {
		return nil, err
	}

	return m.send(ctx, account, constants.ContractHivePegged, "withdraw", map[string]any{
		"quantity": quantity,
	})
}

// Deposit sends HIVE to the peg account, which credits SWAP.HIVE
func (m *Market) Deposit(ctx context.Context, account string, amount decimal.Decimal) (chain.Receipt, error) {
	if err := chain.ValidateAccount(account); err != nil {
		return nil, err
	}
	ht, err := m.HostTransfer()
	if err != nil {
		return nil, err
	}
	available, err := ht.HostBalance(ctx, account, constants.HostHiveAsset)
	if err != nil {
		return nil, err
	}
	if available.LessThan(amount) {
		return nil, fmt.Errorf("%w: only %s %s available", tokens.ErrInsufficientTokenAmount, available.StringFixed(3), constants.HostHiveAsset)
	}
	return ht.Transfer(ctx, account, constants.DepositAccount, amount, constants.HostHiveAsset, DepositMemo(m.ID()))
}

// DepositMemo is the transfer memo the peg account turns into a
// hivepegged buy
func DepositMemo(appID string) string {
	return `{"id":"` + appID + `","json":{"contractName":"hivepegged","contractAction":"buy","contractPayload":{}}}`
}

func (m *Market) balance(ctx context.Context, account, symbol string) (decimal.Decimal, error) {
	w, err := wallet.New(m.api, m.Sender, account)
	if err != nil {
		return decimal.Zero, err
	}
	bal, err := w.Get(ctx, symbol)
	if err != nil {
		return decimal.Zero, err
	}
	if bal == nil {
		return decimal.Zero, fmt.Errorf("%w: %s", tokens.ErrTokenNotInWallet, strings.ToUpper(symbol))
	}
	return wallet.ParseQuantity(bal.Balance)
}

func (m *Market) send(ctx context.Context, account, contract, action string, payload map[string]any) (chain.Receipt, error) {
	if err := chain.ValidateAccount(account); err != nil {
		return nil, err
	}
	return m.Send(ctx, chain.Payload{
		ContractName:    contract,
		ContractAction:  action,
		ContractPayload: payload,
	}, chain.ActiveAuth(account))
}

// parsePrice checks price is a positive decimal and returns it trimmed, so
// the wire keeps the caller's formatting
func parsePrice(price string) (string, decimal.Decimal, error) {
	price = strings.TrimSpace(price)
	p, err := decimal.NewFromString(price)
	if err != nil || !p.IsPositive() {
		return "", decimal.Zero, chain.Invalid("price must be a positive decimal, got %q", price)
	}
	return price, p, nil
}
