package collection

import (
	"context"
	"sort"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/api"
	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
	"github.com/aman-zulfiqar/hive-engine-go/internal/models"
	"github.com/aman-zulfiqar/hive-engine-go/internal/nft"
)

// Holder types for transfers and delegations
const (
	TypeUser     = "user"
	TypeContract = "contract"
)

// NftIDs names instances of one NFT symbol
type NftIDs struct {
	Symbol string   `json:"symbol" validate:"required"`
	IDs    []string `json:"ids" validate:"required,min=1,dive,required"`
}

type moveRequest struct {
	To       string   `validate:"required"`
	Nfts     []NftIDs `validate:"required,min=1,dive"`
	FromType string   `validate:"oneof=user contract"`
	ToType   string   `validate:"oneof=user contract"`
}

// Collection holds the NFT instances owned by one account, grouped by
// symbol, and builds the holder-side nft contract operations.
type Collection struct {
	*chain.Sender

	api     *api.Client
	account string
	items   map[string][]models.Instance
}

func New(client *api.Client, sender *chain.Sender, account string) (*Collection, error) {
	if err := chain.ValidateAccount(account); err != nil {
		return nil, err
	}
	return &Collection{Sender: sender, api: client, account: account, items: map[string][]models.Instance{}}, nil
}

func (c *Collection) Account() string {
	return c.account
}

// ChangeAccount switches to another account and reloads its instances
func (c *Collection) ChangeAccount(ctx context.Context, account string, symbols ...string) error {
	if err := chain.ValidateAccount(account); err != nil {
		return err
	}
	c.account = account
	return c.Refresh(ctx, symbols...)
}

// Refresh reloads the instances owned by the account. Without symbols every
// NFT is scanned, which costs one query per NFT.
func (c *Collection) Refresh(ctx context.Context, symbols ...string) error {
	if len(symbols) == 0 {
		ns, err := nft.LoadAll(ctx, c.api, nil)
		if err != nil {
			return err
		}
		symbols = ns.Symbols()
	}

	items := make(map[string][]models.Instance)
	for _, symbol := range symbols {
		n := nft.Bind(c.api, nil, symbol)
		owned, err := n.GetCollection(ctx, c.account)
		if err != nil {
			return err
		}
		if len(owned) > 0 {
			items[n.Symbol] = owned
		}
	}
	c.items = items
	return nil
}

// Symbols returns the symbols with at least one owned instance
func (c *Collection) Symbols() []string {
	out := make([]string, 0, len(c.items))
	for s := range c.items {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Instances returns the owned instances of symbol
func (c *Collection) Instances(symbol string) []models.Instance {
	return append([]models.Instance(nil), c.items[strings.ToUpper(symbol)]...)
}

// Get returns the owned instance id of symbol, or nil
func (c *Collection) Get(symbol, id string) *models.Instance {
	for _, inst := range c.items[strings.ToUpper(symbol)] {
		if strings.EqualFold(inst.ID.String(), id) {
			i := inst
			return &i
		}
	}
	return nil
}

// Transfer sends instances to an account or contract
func (c *Collection) Transfer(ctx context.Context, to string, nfts []NftIDs, fromType, toType string) (chain.Receipt, error) {
	return c.move(ctx, "transfer", to, nfts, fromType, toType)
}

// Delegate lends instances to an account or contract
func (c *Collection) Delegate(ctx context.Context, to string, nfts []NftIDs, fromType, toType string) (chain.Receipt, error) {
	return c.move(ctx, "delegate", to, nfts, fromType, toType)
}

// Undelegate takes back delegated instances
func (c *Collection) Undelegate(ctx context.Context, nfts []NftIDs, fromType string) (chain.Receipt, error) {
	if fromType == "" {
		fromType = TypeUser
	}
	req := moveRequest{To: c.account, Nfts: nfts, FromType: fromType, ToType: TypeUser}
	if err := chain.Validate(req); err != nil {
		return nil, err
	}
	p := map[string]any{"nfts": canonical(nfts)}
	if fromType == TypeContract {
		p["fromType"] = fromType
	}
	return c.send(ctx, "undelegate", p)
}

// Burn destroys instances
func (c *Collection) Burn(ctx context.Context, nfts []NftIDs) (chain.Receipt, error) {
	req := moveRequest{To: c.account, Nfts: nfts, FromType: TypeUser, ToType: TypeUser}
	if err := chain.Validate(req); err != nil {
		return nil, err
	}
	return c.send(ctx, "burn", map[string]any{"nfts": canonical(nfts)})
}

func (c *Collection) move(ctx context.Context, action, to string, nfts []NftIDs, fromType, toType string) (chain.Receipt, error) {
	if fromType == "" {
		fromType = TypeUser
	}
	if toType == "" {
		toType = TypeUser
	}
	if err := chain.Validate(moveRequest{To: to, Nfts: nfts, FromType: fromType, ToType: toType}); err != nil {
		return nil, err
	}
	if toType == TypeUser {
		if err := chain.ValidateAccount(to); err != nil {
			return nil, err
		}
	}

	p := map[string]any{"to": to, "nfts": canonical(nfts)}
	if fromType == TypeContract {
		p["fromType"] = fromType
	}
	if toType == TypeContract {
		p["toType"] = toType
	}
	return c.send(ctx, action, p)
}

func (c *Collection) send(ctx context.Context, action string, p map[string]any) (chain.Receipt, error) {
	return c.Send(ctx, chain.Payload{
		ContractName:    constants.ContractNft,
		ContractAction:  action,
		ContractPayload: p,
	}, chain.ActiveAuth(c.account))
}

// canonical uppercases symbols
func canonical(nfts []NftIDs) []NftIDs {
	out := make([]NftIDs, len(nfts))
	for i, n := range nfts {
		out[i] = NftIDs{Symbol: strings.ToUpper(n.Symbol), IDs: append([]string(nil), n.IDs...)}
	}
	return out
}
