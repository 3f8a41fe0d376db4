package wallet

import (
	"context"
	"fmt"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/api"
	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
	"github.com/aman-zulfiqar/hive-engine-go/internal/tokens"
	"github.com/shopspring/decimal"
)

// Wallet reads the token balances of one account and builds the tokens
// contract operations signed by it.
type Wallet struct {
	*chain.Sender

	api      *api.Client
	account  string
	balances []models.Balance
}

// New creates a wallet for account. Balances are read on Refresh and before
// every mutation.
func New(client *api.Client, sender *chain.Sender, account string) (*Wallet, error) {
	if err := chain.ValidateAccount(account); err != nil {
		return nil, err
	}
	return &Wallet{Sender: sender, api: client, account: account}, nil
}

func (w *Wallet) Account() string {
	return w.account
}

// ChangeAccount points the wallet at another account and reloads balances
func (w *Wallet) ChangeAccount(ctx context.Context, account string) error {
	if err := chain.ValidateAccount(account); err != nil {
		return err
	}
	w.account = account
	return w.Refresh(ctx)
}

// Refresh reads every balance of the account
func (w *Wallet) Refresh(ctx context.Context) error {
	rows, err := w.api.FindAll(ctx, constants.ContractTokens, constants.TableBalances, api.Query{"account": w.account})
	if err != nil {
		return err
	}
	balances := make([]models.Balance, 0, len(rows))
	for _, row := range rows {
		var b models.Balance
		if _, err := api.DecodeOne(row, &b); err != nil {
			return err
		}
		balances = append(balances, b)
	}
	w.balances = balances
	return nil
}

// Balances returns the balances read by the last Refresh
func (w *Wallet) Balances() []models.Balance {
	return append([]models.Balance(nil), w.balances...)
}

// Token returns the balance of symbol from the last Refresh, or nil
func (w *Wallet) Token(symbol string) *models.Balance {
	for i := range w.balances {
		if strings.EqualFold(w.balances[i].Symbol, symbol) {
			b := w.balances[i]
			return &b
		}
	}
	return nil
}

// Get refreshes the wallet and returns the balance of symbol, or nil
func (w *Wallet) Get(ctx context.Context, symbol string) (*models.Balance, error) {
	if err := w.Refresh(ctx); err != nil {
		return nil, err
	}
	return w.Token(symbol), nil
}

// Transfer sends amount of symbol to another account
func (w *Wallet) Transfer(ctx context.Context, to string, amount decimal.Decimal, symbol, memo string) (chain.Receipt, error) {
	bal, err := w.held(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := requireAtLeast(bal.Balance, amount, "in wallet", symbol); err != nil {
		return nil, err
	}
	quantity, err := w.quantity(ctx, symbol, amount)
	if err != nil {
		return nil, err
	}
	if err := chain.ValidateAccount(to); err != nil {
		return nil, err
	}

	return w.send(ctx, "transfer", map[string]any{
		"symbol":   strings.ToUpper(symbol),
		"to":       to,
		"quantity": quantity,
		"memo":     memo,
	})
}

// Stake stakes amount of symbol to receiver, or to the wallet account when
// receiver is empty
func (w *Wallet) Stake(ctx context.Context, amount decimal.Decimal, symbol, receiver string) (chain.Receipt, error) {
	bal, err := w.held(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := requireAtLeast(bal.Balance, amount, "in wallet", symbol); err != nil {
		return nil, err
	}
	quantity, err := w.quantity(ctx, symbol, amount)
	if err != nil {
		return nil, err
	}
	if receiver == "" {
		receiver = w.account
	} else if err := chain.ValidateAccount(receiver); err != nil {
		return nil, err
	}

	return w.send(ctx, "stake", map[string]any{
		"symbol":   strings.ToUpper(symbol),
		"to":       receiver,
		"quantity": quantity,
	})
}

// Unstake starts unstaking amount of symbol. The cooldown is enforced by
// the chain.
func (w *Wallet) Unstake(ctx context.Context, amount decimal.Decimal, symbol string) (chain.Receipt, error) {
	bal, err := w.held(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if bal.Stake == "" {
		return nil, fmt.Errorf("%w: %s cannot be unstaked", tokens.ErrInsufficientTokenAmount, strings.ToUpper(symbol))
	}
	if err := requireAtLeast(bal.Stake, amount, "staked", symbol); err != nil {
		return nil, err
	}
	quantity, err := w.quantity(ctx, symbol, amount)
	if err != nil {
		return nil, err
	}

	return w.send(ctx, "unstake", map[string]any{
		"symbol":   strings.ToUpper(symbol),
		"quantity": quantity,
	})
}

// CancelUnstake cancels the unstake started by transaction trxID. The id is
// not checked locally.
func (w *Wallet) CancelUnstake(ctx context.Context, trxID string) (chain.Receipt, error) {
	return w.send(ctx, "cancelUnstake", map[string]any{"txID": trxID})
}

// Delegate delegates amount of staked symbol to another account
func (w *Wallet) Delegate(ctx context.Context, to string, amount decimal.Decimal, symbol string) (chain.Receipt, error) {
	bal, err := w.held(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := requireAtLeast(bal.Stake, amount, "staked", symbol); err != nil {
		return nil, err
	}
	quantity, err := w.quantity(ctx, symbol, amount)
	if err != nil {
		return nil, err
	}
	if err := chain.ValidateAccount(to); err != nil {
		return nil, err
	}

	return w.send(ctx, "delegate", map[string]any{
		"symbol":   strings.ToUpper(symbol),
		"to":       to,
		"quantity": quantity,
	})
}

// Undelegate takes back amount of symbol delegated to from
func (w *Wallet) Undelegate(ctx context.Context, from string, amount decimal.Decimal, symbol string) (chain.Receipt, error) {
	bal, err := w.held(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := requireAtLeast(bal.DelegationsOut, amount, "delegated", symbol); err != nil {
		return nil, err
	}
	quantity, err := w.quantity(ctx, symbol, amount)
	if err != nil {
		return nil, err
	}
	if err := chain.ValidateAccount(from); err != nil {
		return nil, err
	}

	return w.send(ctx, "undelegate", map[string]any{
		"symbol":   strings.ToUpper(symbol),
		"from":     from,
		"quantity": quantity,
	})
}

// Issue mints amount of symbol to an account. Only the issuer may issue and
// only while supply is below max supply.
func (w *Wallet) Issue(ctx context.Context, to string, amount decimal.Decimal, symbol string) (chain.Receipt, error) {
	token, err := tokens.Load(ctx, w.api, symbol)
	if err != nil {
		return nil, err
	}
	if token.Issuer != w.account {
		return nil, fmt.Errorf("%w: %s is not the issuer of %s", tokens.ErrTokenIssueNotPermitted, w.account, token.Symbol)
	}
	left, err := token.SupplyLeft()
	if err != nil {
		return nil, err
	}
	if !left.IsPositive() {
		return nil, fmt.Errorf("%w: %s supply is at %s", tokens.ErrMaxSupplyReached, token.Symbol, token.MaxSupply)
	}
	quantity, err := token.Quantity(amount)
	if err != nil {
		return nil, err
	}
	if token.Quantize(amount).GreaterThan(left) {
		return nil, fmt.Errorf("%w: only %s %s left to issue", tokens.ErrInvalidTokenAmount, left, token.Symbol)
	}
	if err := chain.ValidateAccount(to); err != nil {
		return nil, err
	}

	return w.send(ctx, "issue", map[string]any{
		"symbol":   token.Symbol,
		"to":       to,
		"quantity": quantity,
	})
}

// GetHistory returns the account's history for symbol
func (w *Wallet) GetHistory(ctx context.Context, symbol string, limit, offset int) ([]models.HistoryEntry, error) {
	return w.api.GetHistoryEntries(ctx, w.account, strings.ToUpper(symbol), limit, offset)
}

// GetBuyBook returns the account's open buy orders, for one symbol when
// symbol is set
func (w *Wallet) GetBuyBook(ctx context.Context, symbol string, limit, offset int) ([]models.Order, error) {
	return w.book(ctx, constants.TableBuyBook, symbol, limit, offset)
}

// GetSellBook returns the account's open sell orders, for one symbol when
// symbol is set
func (w *Wallet) GetSellBook(ctx context.Context, symbol string, limit, offset int) ([]models.Order, error) {
	return w.book(ctx, constants.TableSellBook, symbol, limit, offset)
}

func (w *Wallet) book(ctx context.Context, table, symbol string, limit, offset int) ([]models.Order, error) {
	q := api.Query{"account": w.account}
	if symbol != "" {
		q["symbol"] = strings.ToUpper(symbol)
	}
	if limit <= 0 {
		limit = tokens.DefaultBookLimit
	}
	raw, err := w.api.Find(ctx, constants.ContractMarket, table, q, api.FindOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	var out []models.Order
	err = api.DecodeRows(raw, &out)
	return out, err
}

// held refreshes the wallet and returns the balance of symbol
func (w *Wallet) held(ctx context.Context, symbol string) (*models.Balance, error) {
	bal, err := w.Get(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if bal == nil {
		return nil, fmt.Errorf("%w: %s", tokens.ErrTokenNotInWallet, strings.ToUpper(symbol))
	}
	return bal, nil
}

// quantity loads the token and renders amount at its precision
func (w *Wallet) quantity(ctx context.Context, symbol string, amount decimal.Decimal) (string, error) {
	token, err := tokens.Load(ctx, w.api, symbol)
	if err != nil {
		return "", err
	}
	return token.Quantity(amount)
}

func (w *Wallet) send(ctx context.Context, action string, payload map[string]any) (chain.Receipt, error) {
	return w.Send(ctx, chain.Payload{
		ContractName:    constants.ContractTokens,
		ContractAction:  action,
		ContractPayload: payload,
	}, chain.ActiveAuth(w.account))
}

// requireAtLeast fails with ErrInsufficientTokenAmount when available is
// below amount. An empty available counts as zero.
func requireAtLeast(available string, amount decimal.Decimal, where, symbol string) error {
	have, err := ParseQuantity(available)
	if err != nil {
		return err
	}
	if have.LessThan(amount) {
		return fmt.Errorf("%w: only %s %s %s", tokens.ErrInsufficientTokenAmount, have, strings.ToUpper(symbol), where)
	}
	return nil
}

// ParseQuantity parses a quantity string from the node; empty is zero
func ParseQuantity(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return d, nil
}
