package nft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/api"
	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
)

var ErrNftDoesNotExist = errors.New("nft does not exist")

// Property is the schema of one NFT data property
type Property struct {
	Type                       string   `json:"type"`
	IsReadOnly                 bool     `json:"isReadOnly"`
	AuthorizedEditingAccounts  []string `json:"authorizedEditingAccounts,omitempty"`
	AuthorizedEditingContracts []string `json:"authorizedEditingContracts,omitempty"`
}

// Nft is a row of nft.nfts together with the issuer-side operations of the
// nft contract. Unknown fields are kept and reachable through Extra.
type Nft struct {
	*chain.Sender `json:"-"`

	Symbol                     string              `json:"symbol"`
	Issuer                     string              `json:"issuer"`
	Name                       string              `json:"name"`
	OrgName                    string              `json:"orgName"`
	ProductName                string              `json:"productName"`
	Metadata                   string              `json:"metadata"`
	AuthorizedIssuingAccounts  []string            `json:"authorizedIssuingAccounts"`
	AuthorizedIssuingContracts []string            `json:"authorizedIssuingContracts"`
	MaxSupply                  json.Number         `json:"maxSupply"`
	Supply                     json.Number         `json:"supply"`
	CirculatingSupply          json.Number         `json:"circulatingSupply"`
	Properties                 map[string]Property `json:"properties"`
	GroupBy                    []string            `json:"groupBy"`
	DelegationEnabled          bool                `json:"delegationEnabled"`
	UndelegationCooldown       int                 `json:"undelegationCooldown"`

	extra map[string]json.RawMessage
	api   *api.Client
}

var knownFields = []string{
	"symbol", "issuer", "name", "orgName", "productName", "metadata",
	"authorizedIssuingAccounts", "authorizedIssuingContracts", "maxSupply",
	"supply", "circulatingSupply", "properties", "groupBy",
	"delegationEnabled", "undelegationCooldown",
}

// Load fetches the NFT definition with symbol. sender may be nil for read
// only use.
func Load(ctx context.Context, client *api.Client, sender *chain.Sender, symbol string) (*Nft, error) {
	n := Bind(client, sender, symbol)
	if err := n.Refresh(ctx); err != nil {
		return nil, err
	}
	return n, nil
}

// Bind returns an NFT carrying only its symbol, for reading its tables
// without fetching the definition
func Bind(client *api.Client, sender *chain.Sender, symbol string) *Nft {
	return &Nft{Sender: sender, Symbol: strings.ToUpper(strings.TrimSpace(symbol)), api: client}
}

// FromRow builds an NFT from an already fetched row
func FromRow(client *api.Client, sender *chain.Sender, row json.RawMessage) (*Nft, error) {
	n := &Nft{Sender: sender, api: client}
	if err := n.decode(row); err != nil {
		return nil, err
	}
	return n, nil
}

func (n *Nft) Refresh(ctx context.Context) error {
	raw, err := n.api.FindOne(ctx, constants.ContractNft, constants.TableNfts, api.Query{"symbol": n.Symbol})
	if err != nil {
		return err
	}
	var row json.RawMessage
	found, err := api.DecodeOne(raw, &row)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNftDoesNotExist, n.Symbol)
	}
	return n.decode(row)
}

func (n *Nft) decode(row json.RawMessage) error {
	type plain Nft
	var p plain
	if err := json.Unmarshal(row, &p); err != nil {
		return fmt.Errorf("failed to decode nft: %w", err)
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(row, &all); err != nil {
		return fmt.Errorf("failed to decode nft: %w", err)
	}
	for _, k := range knownFields {
		delete(all, k)
	}

	sender, client := n.Sender, n.api
	*n = Nft(p)
	n.Sender, n.api, n.extra = sender, client, all
	return nil
}

func (n *Nft) Extra(key string) (json.RawMessage, bool) {
	v, ok := n.extra[key]
	return v, ok
}

// PropertyNames returns the defined data properties, sorted
func (n *Nft) PropertyNames() []string {
	names := make([]string, 0, len(n.Properties))
	for name := range n.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (n *Nft) table(suffix string) string {
	return n.Symbol + suffix
}

// GetInstance returns the issued instance with id, or nil
func (n *Nft) GetInstance(ctx context.Context, id int64) (*models.Instance, error) {
	raw, err := n.api.FindOne(ctx, constants.ContractNft, n.table(constants.SuffixInstances), api.Query{"_id": id})
	if err != nil {
		return nil, err
	}
	var inst models.Instance
	found, err := api.DecodeOne(raw, &inst)
	if err != nil || !found {
		return nil, err
	}
	return &inst, nil
}

// GetCollection returns every instance held by account
func (n *Nft) GetCollection(ctx context.Context, account string) ([]models.Instance, error) {
	return n.instances(ctx, api.Query{"account": account})
}

// GetPropertyInstances returns the instances matching a property name query
func (n *Nft) GetPropertyInstances(ctx context.Context, property string) ([]models.Instance, error) {
	return n.instances(ctx, api.Query{"properties.name": property})
}

func (n *Nft) instances(ctx context.Context, q api.Query) ([]models.Instance, error) {
	rows, err := n.api.FindAll(ctx, constants.ContractNft, n.table(constants.SuffixInstances), q)
	if err != nil {
		return nil, err
	}
	out := make([]models.Instance, 0, len(rows))
	for _, row := range rows {
		var inst models.Instance
		if err := json.Unmarshal(row, &inst); err != nil {
			return nil, fmt.Errorf("failed to decode %s instance: %w", n.Symbol, err)
		}
		out = append(out, inst)
	}
	return out, nil
}

// GetTradeHistory returns nftmarket trades. A limit below zero or above
// 1000 reads every page.
func (n *Nft) GetTradeHistory(ctx context.Context, q api.Query, limit, offset int) ([]models.NftTrade, error) {
	var out []models.NftTrade
	err := n.market(ctx, constants.SuffixTradesHistory, q, limit, offset, &out)
	return out, err
}

// GetOpenInterest returns nftmarket open interest by side, price symbol and
// grouping
func (n *Nft) GetOpenInterest(ctx context.Context, q api.Query, limit, offset int) ([]models.NftOpenInterest, error) {
	var out []models.NftOpenInterest
	err := n.market(ctx, constants.SuffixOpenInterest, q, limit, offset, &out)
	return out, err
}

// GetSellBook returns nftmarket sell orders
func (n *Nft) GetSellBook(ctx context.Context, q api.Query, limit, offset int) ([]models.NftOrder, error) {
	var out []models.NftOrder
	err := n.market(ctx, constants.SuffixSellBook, q, limit, offset, &out)
	return out, err
}

func (n *Nft) market(ctx context.Context, suffix string, q api.Query, limit, offset int, out any) error {
	if q == nil {
		q = api.Query{}
	}
	if limit < 0 || limit > constants.FindPageSize {
		rows, err := n.api.FindAll(ctx, constants.ContractNftMarket, n.table(suffix), q)
		if err != nil {
			return err
		}
		data, err := json.Marshal(rows)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, out)
	}
	raw, err := n.api.Find(ctx, constants.ContractNftMarket, n.table(suffix), q, api.FindOptions{Limit: limit, Offset: offset})
	if err != nil {
		return err
	}
	return api.DecodeRows(raw, out)
}

func (n *Nft) clone() *Nft {
	c := *n
	return &c
}
