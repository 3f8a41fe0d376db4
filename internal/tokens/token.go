package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/api"
	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultBookLimit is the page size used for order book reads
const DefaultBookLimit = 100

// Token is a row of tokens.tokens. Fields the node sends beyond the fixed
// schema are kept and reachable through Extra.
type Token struct {
	Symbol               string `json:"symbol"`
	Issuer               string `json:"issuer"`
	Name                 string `json:"name"`
	Metadata             string `json:"metadata"`
	Precision            int    `json:"precision"`
	MaxSupply            string `json:"maxSupply"`
	Supply               string `json:"supply"`
	CirculatingSupply    string `json:"circulatingSupply"`
	StakingEnabled       bool   `json:"stakingEnabled"`
	UnstakingCooldown    int    `json:"unstakingCooldown"`
	DelegationEnabled    bool   `json:"delegationEnabled"`
	UndelegationCooldown int    `json:"undelegationCooldown"`

	extra map[string]json.RawMessage
	api   *api.Client
}

var knownFields = []string{
	"symbol", "issuer", "name", "metadata", "precision", "maxSupply", "supply",
	"circulatingSupply", "stakingEnabled", "unstakingCooldown",
	"delegationEnabled", "undelegationCooldown",
}

// Load fetches the token with symbol from the node
func Load(ctx context.Context, client *api.Client, symbol string) (*Token, error) {
	t := &Token{Symbol: strings.ToUpper(strings.TrimSpace(symbol)), api: client}
	if err := t.Refresh(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// FromRow builds a token from an already fetched row without a network call
func FromRow(client *api.Client, row json.RawMessage) (*Token, error) {
	t := &Token{api: client}
	if err := t.decode(row); err != nil {
		return nil, err
	}
	return t, nil
}

// Refresh re-reads the token from the node
func (t *Token) Refresh(ctx context.Context) error {
	raw, err := t.api.FindOne(ctx, constants.ContractTokens, constants.TableTokens, api.Query{"symbol": t.Symbol})
	if err != nil {
		return err
	}
	var row json.RawMessage
	found, err := api.DecodeOne(raw, &row)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrTokenDoesNotExist, t.Symbol)
	}
	return t.decode(row)
}

func (t *Token) decode(row json.RawMessage) error {
	type plain Token
	var p plain
	if err := json.Unmarshal(row, &p); err != nil {
		return fmt.Errorf("failed to decode token: %w", err)
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(row, &all); err != nil {
		return fmt.Errorf("failed to decode token: %w", err)
	}
	for _, k := range knownFields {
		delete(all, k)
	}

	client := t.api
	*t = Token(p)
	t.api = client
	t.extra = all
	return nil
}

// Extra returns a field outside the fixed schema, such as "_id" or
// "totalStaked"
func (t *Token) Extra(key string) (json.RawMessage, bool) {
	v, ok := t.extra[key]
	return v, ok
}

// MetadataMap decodes the JSON encoded metadata string
func (t *Token) MetadataMap() (map[string]any, error) {
	if t.Metadata == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(t.Metadata), &m); err != nil {
		return nil, fmt.Errorf("failed to decode %s metadata: %w", t.Symbol, err)
	}
	return m, nil
}

// Quantize truncates amount toward zero to the token precision
func (t *Token) Quantize(amount decimal.Decimal) decimal.Decimal {
	return amount.Truncate(int32(t.Precision))
}

// Quantity quantizes amount and renders it with exactly Precision decimals.
// An amount that is not positive after truncation is rejected.
func (t *Token) Quantity(amount decimal.Decimal) (string, error) {
	q := t.Quantize(amount)
	if !q.IsPositive() {
		return "", fmt.Errorf("%w: %s %s is %s at precision %d", ErrInvalidTokenAmount, amount, t.Symbol, q.StringFixed(int32(t.Precision)), t.Precision)
	}
	return q.StringFixed(int32(t.Precision)), nil
}

// SupplyLeft is maxSupply minus supply
func (t *Token) SupplyLeft() (decimal.Decimal, error) {
	maxSupply, err := decimal.NewFromString(t.MaxSupply)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid max supply %q: %w", t.MaxSupply, err)
	}
	supply, err := decimal.NewFromString(t.Supply)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid supply %q: %w", t.Supply, err)
	}
	return maxSupply.Sub(supply), nil
}

// GetMarketInfo returns the market metrics of the token, or nil when the
// token is not traded on the market
func (t *Token) GetMarketInfo(ctx context.Context) (*models.MarketMetrics, error) {
	raw, err := t.api.FindOne(ctx, constants.ContractMarket, constants.TableMetrics, api.Query{"symbol": t.Symbol})
	if err != nil {
		return nil, err
	}
	var m models.MarketMetrics
	found, err := api.DecodeOne(raw, &m)
	if err != nil || !found {
		return nil, err
	}
	return &m, nil
}

// GetHolders returns a page of balances of this token
func (t *Token) GetHolders(ctx context.Context, limit, offset int) ([]models.Balance, error) {
	var out []models.Balance
	err := t.find(ctx, constants.ContractTokens, constants.TableBalances, limit, offset, &out)
	return out, err
}

// GetBuyBook returns a page of open buy orders
func (t *Token) GetBuyBook(ctx context.Context, limit, offset int) ([]models.Order, error) {
	if limit <= 0 {
		limit = DefaultBookLimit
	}
	var out []models.Order
	err := t.find(ctx, constants.ContractMarket, constants.TableBuyBook, limit, offset, &out)
	return out, err
}

// GetSellBook returns a page of open sell orders
func (t *Token) GetSellBook(ctx context.Context, limit, offset int) ([]models.Order, error) {
	if limit <= 0 {
		limit = DefaultBookLimit
	}
	var out []models.Order
	err := t.find(ctx, constants.ContractMarket, constants.TableSellBook, limit, offset, &out)
	return out, err
}

func (t *Token) find(ctx context.Context, contract, table string, limit, offset int, out any) error {
	raw, err := t.api.Find(ctx, contract, table, api.Query{"symbol": t.Symbol}, api.FindOptions{Limit: limit, Offset: offset})
	if err != nil {
		return err
	}
	return api.DecodeRows(raw, out)
}

func (t *Token) clone() *Token {
	c := *t
	return &c
}
