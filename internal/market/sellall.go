package market

import (
	"context"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
	"github.com/aman-zulfiqar/hive-engine-go/internal/tokens"
	"github.com/aman-zulfiqar/hive-engine-go/internal/wallet"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var minSellAllValue = decimal.RequireFromString(constants.MinSellAllValue)

// SellOrder is one market sell chosen by PlanSellAll
type SellOrder struct {
	Symbol string
	Amount decimal.Decimal
	// Price is the node's price string, sent unchanged
	Price string
	// Value is Amount times Price in SWAP.HIVE
	Value decimal.Decimal
}

// PlanSellAll picks a sell order for every non-empty balance of account
// that has a market. The price is the highest bid, or the last price when
// nobody bids. Orders worth less than 0.001 SWAP.HIVE are left out. When
// symbols are given only those balances are considered.
func (m *Market) PlanSellAll(ctx context.Context, account string, symbols ...string) ([]SellOrder, error) {
	w, err := wallet.New(m.api, m.Sender, account)
	if err != nil {
		return nil, err
	}
	if err := w.Refresh(ctx); err != nil {
		return nil, err
	}
	ts, err := tokens.LoadAll(ctx, m.api)
	if err != nil {
		return nil, err
	}
	m.tokens = ts

	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[strings.ToUpper(s)] = true
	}

	var plan []SellOrder
	for _, bal := range w.Balances() {
		if len(wanted) > 0 && !wanted[strings.ToUpper(bal.Symbol)] {
			continue
		}
		amount, err := wallet.ParseQuantity(bal.Balance)
		if err != nil {
			return nil, err
		}
		if amount.IsZero() {
			continue
		}
		token := ts.Get(bal.Symbol)
		if token == nil {
			continue
		}
		info, err := token.GetMarketInfo(ctx)
		if err != nil {
			return nil, err
		}
		if info == nil {
			continue
		}
		price := info.SellPrice()
		p, err := decimal.NewFromString(price)
		if err != nil || !p.IsPositive() {
			continue
		}
		value := p.Mul(amount)
		if value.LessThan(minSellAllValue) {
			continue
		}
		plan = append(plan, SellOrder{Symbol: bal.Symbol, Amount: amount, Price: price, Value: value})
	}
	return plan, nil
}

// SellAll broadcasts the orders of PlanSellAll that confirm accepts. A nil
// confirm accepts every order. It stops at the first failing order.
func (m *Market) SellAll(ctx context.Context, account string, confirm func(SellOrder) bool) ([]chain.Receipt, error) {
	plan, err := m.PlanSellAll(ctx, account)
	if err != nil {
		return nil, err
	}

	var receipts []chain.Receipt
	for _, o := range plan {
		if confirm != nil && !confirm(o) {
			continue
		}
		receipt, err := m.Sell(ctx, account, o.Amount, o.Symbol, o.Price)
		if err != nil {
			return receipts, err
		}
		m.api.Logger().WithFields(logrus.Fields{
			"account": account,
			"symbol":  o.Symbol,
			"amount":  o.Amount.String(),
			"price":   o.Price,
		}).Info("placed sell order")
		receipts = append(receipts, receipt)
	}
	return receipts, nil
}
