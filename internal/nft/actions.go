package nft

import (
	"context"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
)

// errUnknownIssuer is returned for issuer operations on an NFT whose
// definition was never fetched, as with Bind
var errUnknownIssuer = chain.Invalid("issuer unknown; load the nft first")

// PropertyDef is the input of AddProperty
type PropertyDef struct {
	Name                       string   `validate:"required"`
	Type                       string   `validate:"oneof=number string boolean"`
	IsReadOnly                 *bool
	AuthorizedEditingAccounts  []string `validate:"omitempty,dive,account"`
	AuthorizedEditingContracts []string
}

// PropertyUpdate is the input of UpdatePropertyDefinition. Empty fields are
// left unchanged.
type PropertyUpdate struct {
	Name       string `validate:"required"`
	NewName    string
	Type       string `validate:"omitempty,oneof=number string boolean"`
	IsReadOnly *bool
}

// InstanceProperties sets properties on one instance
type InstanceProperties struct {
	ID         string         `json:"id" validate:"required"`
	Properties map[string]any `json:"properties" validate:"required"`
}

// IssueRequest describes one instance to issue
type IssueRequest struct {
	// Symbol defaults to the NFT being issued
	Symbol     string
	To         string `validate:"required"`
	FeeSymbol  string `validate:"required"`
	FromType   string `validate:"omitempty,oneof=user contract"`
	ToType     string `validate:"omitempty,oneof=user contract"`
	LockTokens map[string]string
	LockNfts   []map[string]any
	Properties map[string]any
}

func (r IssueRequest) payload(symbol string) map[string]any {
	if r.Symbol != "" {
		symbol = r.Symbol
	}
	p := map[string]any{"symbol": strings.ToUpper(symbol), "to": r.To, "feeSymbol": strings.ToUpper(r.FeeSymbol)}
	if r.FromType != "" {
		p["fromType"] = r.FromType
	}
	if r.ToType != "" {
		p["toType"] = r.ToType
	}
	if r.LockTokens != nil {
		p["lockTokens"] = r.LockTokens
	}
	if r.LockNfts != nil {
		p["lockNfts"] = r.LockNfts
	}
	if r.Properties != nil {
		p["properties"] = r.Properties
	}
	return p
}

// UpdateURL changes the project website
func (n *Nft) UpdateURL(ctx context.Context, url string) (chain.Receipt, error) {
	return n.posting(ctx, "updateUrl", n.Issuer, map[string]any{"url": url})
}

func (n *Nft) UpdateMetadata(ctx context.Context, metadata map[string]any) (chain.Receipt, error) {
	return n.posting(ctx, "updateMetadata", n.Issuer, map[string]any{"metadata": metadata})
}

func (n *Nft) UpdateName(ctx context.Context, name string) (chain.Receipt, error) {
	return n.posting(ctx, "updateName", n.Issuer, map[string]any{"name": name})
}

func (n *Nft) UpdateOrgName(ctx context.Context, orgName string) (chain.Receipt, error) {
	return n.posting(ctx, "updateOrgName", n.Issuer, map[string]any{"orgName": orgName})
}

func (n *Nft) UpdateProductName(ctx context.Context, productName string) (chain.Receipt, error) {
	return n.posting(ctx, "updateProductName", n.Issuer, map[string]any{"productName": productName})
}

// AddAuthorizedIssuingAccounts lets accounts issue on behalf of the owner
func (n *Nft) AddAuthorizedIssuingAccounts(ctx context.Context, accounts []string) (chain.Receipt, error) {
	if err := validAccounts(accounts); err != nil {
		return nil, err
	}
	return n.active(ctx, "addAuthorizedIssuingAccounts", n.Issuer, map[string]any{"accounts": accounts})
}

func (n *Nft) AddAuthorizedIssuingContracts(ctx context.Context, contracts []string) (chain.Receipt, error) {
	if len(contracts) == 0 {
		return nil, chain.Invalid("no contracts given")
	}
	return n.active(ctx, "addAuthorizedIssuingContracts", n.Issuer, map[string]any{"contracts": contracts})
}

func (n *Nft) RemoveAuthorizedIssuingAccounts(ctx context.Context, accounts []string) (chain.Receipt, error) {
	if err := validAccounts(accounts); err != nil {
		return nil, err
	}
	return n.active(ctx, "removeAuthorizedIssuingAccounts", n.Issuer, map[string]any{"accounts": accounts})
}

func (n *Nft) RemoveAuthorizedIssuingContracts(ctx context.Context, contracts []string) (chain.Receipt, error) {
	if len(contracts) == 0 {
		return nil, chain.Invalid("no contracts given")
	}
	return n.active(ctx, "removeAuthorizedIssuingContracts", n.Issuer, map[string]any{"contracts": contracts})
}

// TransferOwnership hands the NFT definition to another account
func (n *Nft) TransferOwnership(ctx context.Context, to string) (chain.Receipt, error) {
	if err := chain.ValidateAccount(to); err != nil {
		return nil, err
	}
	return n.active(ctx, "transferOwnership", n.Issuer, map[string]any{"to": to})
}

// AddProperty adds a data property to the NFT schema
func (n *Nft) AddProperty(ctx context.Context, def PropertyDef) (chain.Receipt, error) {
	if err := chain.Validate(def); err != nil {
		return nil, err
	}
	p := map[string]any{"name": def.Name, "type": def.Type}
	if def.IsReadOnly != nil {
		p["isReadOnly"] = *def.IsReadOnly
	}
	if def.AuthorizedEditingAccounts != nil {
		p["authorizedEditingAccounts"] = def.AuthorizedEditingAccounts
	}
	if def.AuthorizedEditingContracts != nil {
		p["authorizedEditingContracts"] = def.AuthorizedEditingContracts
	}
	return n.active(ctx, "addProperty", n.Issuer, p)
}

// SetPropertyPermissions replaces who may edit property name. A nil list is
// left unchanged.
func (n *Nft) SetPropertyPermissions(ctx context.Context, name string, accounts, contracts []string) (chain.Receipt, error) {
	if name == "" {
		return nil, chain.Invalid("property name is required")
	}
	p := map[string]any{"name": name}
	if accounts != nil {
		p["accounts"] = accounts
	}
	if contracts != nil {
		p["contracts"] = contracts
	}
	return n.active(ctx, "setPropertyPermissions", n.Issuer, p)
}

// SetProperties edits data properties of issued instances. It is signed
// with the posting authority of authorizedAccount, or of the issuer when
// that is empty.
func (n *Nft) SetProperties(ctx context.Context, nfts []InstanceProperties, fromType, authorizedAccount string) (chain.Receipt, error) {
	if len(nfts) == 0 {
		return nil, chain.Invalid("no instances given")
	}
	for _, inst := range nfts {
		if err := chain.Validate(inst); err != nil {
			return nil, err
		}
	}
	if fromType != "" && fromType != "user" && fromType != "contract" {
		return nil, chain.Invalid("fromType must be user or contract, got %q", fromType)
	}
	if authorizedAccount == "" {
		authorizedAccount = n.Issuer
	}
	p := map[string]any{"nfts": nfts}
	if fromType != "" {
		p["fromType"] = fromType
	}
	return n.posting(ctx, "setProperties", authorizedAccount, p)
}

// SetGroupBy sets the properties the market groups orders by
func (n *Nft) SetGroupBy(ctx context.Context, properties []string) (chain.Receipt, error) {
	if len(properties) == 0 {
		return nil, chain.Invalid("no properties given")
	}
	return n.active(ctx, "setGroupBy", n.Issuer, map[string]any{"properties": properties})
}

// UpdatePropertyDefinition changes a property schema. The chain only
// accepts it before any instance is issued.
func (n *Nft) UpdatePropertyDefinition(ctx context.Context, upd PropertyUpdate) (chain.Receipt, error) {
	if err := chain.Validate(upd); err != nil {
		return nil, err
	}
	p := map[string]any{"name": upd.Name}
	if upd.NewName != "" {
		p["newName"] = upd.NewName
	}
	if upd.Type != "" {
		p["type"] = upd.Type
	}
	if upd.IsReadOnly != nil {
		p["isReadOnly"] = *upd.IsReadOnly
	}
	return n.active(ctx, "updatePropertyDefinition", n.Issuer, p)
}

// Issue issues one instance, signed by authorizedAccount or the issuer
func (n *Nft) Issue(ctx context.Context, req IssueRequest, authorizedAccount string) (chain.Receipt, error) {
	if err := chain.Validate(req); err != nil {
		return nil, err
	}
	if authorizedAccount == "" {
		authorizedAccount = n.Issuer
	}
	if authorizedAccount == "" {
		return nil, errUnknownIssuer
	}
	return n.send(ctx, "issue", req.payload(n.Symbol), chain.ActiveAuth(authorizedAccount))
}

// IssueMultiple issues several instances in one operation
func (n *Nft) IssueMultiple(ctx context.Context, reqs []IssueRequest, authorizedAccount string) (chain.Receipt, error) {
	if len(reqs) == 0 {
		return nil, chain.Invalid("no instances given")
	}
	instances := make([]map[string]any, 0, len(reqs))
	for _, r := range reqs {
		if err := chain.Validate(r); err != nil {
			return nil, err
		}
		instances = append(instances, r.payload(n.Symbol))
	}
	if authorizedAccount == "" {
		authorizedAccount = n.Issuer
	}
	if authorizedAccount == "" {
		return nil, errUnknownIssuer
	}
	return n.send(ctx, "issueMultiple", map[string]any{"instances": instances}, chain.ActiveAuth(authorizedAccount))
}

// EnableDelegation turns on delegation with a cooldown in days
func (n *Nft) EnableDelegation(ctx context.Context, undelegationCooldown int) (chain.Receipt, error) {
	if undelegationCooldown <= 0 {
		return nil, chain.Invalid("undelegation cooldown must be positive, got %d", undelegationCooldown)
	}
	return n.active(ctx, "enableDelegation", n.Issuer, map[string]any{"undelegationCooldown": undelegationCooldown})
}

func (n *Nft) active(ctx context.Context, action, account string, p map[string]any) (chain.Receipt, error) {
	if account == "" {
		return nil, errUnknownIssuer
	}
	p["symbol"] = n.Symbol
	return n.send(ctx, action, p, chain.ActiveAuth(account))
}

func (n *Nft) posting(ctx context.Context, action, account string, p map[string]any) (chain.Receipt, error) {
	if account == "" {
		return nil, errUnknownIssuer
	}
	p["symbol"] = n.Symbol
	return n.send(ctx, action, p, chain.PostingAuth(account))
}

func (n *Nft) send(ctx context.Context, action string, p map[string]any, auths chain.Auths) (chain.Receipt, error) {
	return n.Send(ctx, chain.Payload{
		ContractName:    constants.ContractNft,
		ContractAction:  action,
		ContractPayload: p,
	}, auths)
}

func validAccounts(accounts []string) error {
	if len(accounts) == 0 {
		return chain.Invalid("no accounts given")
	}
	for _, a := range accounts {
		if err := chain.ValidateAccount(a); err != nil {
			return err
		}
	}
	return nil
}
