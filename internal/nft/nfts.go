package nft

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/api"
	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
)

// Nfts is the full NFT listing, fetched eagerly
type Nfts struct {
	api    *api.Client
	sender *chain.Sender
	list   []*Nft
}

func LoadAll(ctx context.Context, client *api.Client, sender *chain.Sender) (*Nfts, error) {
	ns := &Nfts{api: client, sender: sender}
	rows, err := client.FindAll(ctx, constants.ContractNft, constants.TableNfts, api.Query{})
	if err != nil {
		return nil, err
	}
	if err := ns.load(rows); err != nil {
		return nil, err
	}
	return ns, nil
}

// Refresh re-reads the listing from the node, bypassing the query cache
func (ns *Nfts) Refresh(ctx context.Context) error {
	rows, err := ns.api.FindAllFresh(ctx, constants.ContractNft, constants.TableNfts, api.Query{})
	if err != nil {
		return err
	}
	return ns.load(rows)
}

func (ns *Nfts) load(rows []json.RawMessage) error {
	list := make([]*Nft, 0, len(rows))
	for _, row := range rows {
		n, err := FromRow(ns.api, ns.sender, row)
		if err != nil {
			return err
		}
		list = append(list, n)
	}
	ns.list = list
	return nil
}

// Get returns the NFT with symbol, matched case-insensitively, or nil
func (ns *Nfts) Get(symbol string) *Nft {
	for _, n := range ns.list {
		if strings.EqualFold(n.Symbol, symbol) {
			return n.clone()
		}
	}
	return nil
}

func (ns *Nfts) List() []*Nft {
	out := make([]*Nft, len(ns.list))
	for i, n := range ns.list {
		out[i] = n.clone()
	}
	return out
}

func (ns *Nfts) Symbols() []string {
	out := make([]string, len(ns.list))
	for i, n := range ns.list {
		out[i] = n.Symbol
	}
	return out
}

func (ns *Nfts) Len() int {
	return len(ns.list)
}

// Params returns the nft contract parameters, such as creation fees
func (ns *Nfts) Params(ctx context.Context) (map[string]any, error) {
	raw, err := ns.api.FindOne(ctx, constants.ContractNft, constants.TableNftParams, api.Query{})
	if err != nil {
		return nil, err
	}
	var params map[string]any
	if _, err := api.DecodeOne(raw, &params); err != nil {
		return nil, err
	}
	return params, nil
}
