package tokens

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/api"
	"github.com/aman-zulfiqar/hive-engine-go/internal/constants"
)

// Tokens is the full token listing, fetched eagerly
type Tokens struct {
	api  *api.Client
	list []*Token
}

// LoadAll fetches every token
func LoadAll(ctx context.Context, client *api.Client) (*Tokens, error) {
	ts := &Tokens{api: client}
	rows, err := client.FindAll(ctx, constants.ContractTokens, constants.TableTokens, api.Query{})
	if err != nil {
		return nil, err
	}
	if err := ts.load(rows); err != nil {
		return nil, err
	}
	return ts, nil
}

// Refresh re-reads the listing from the node, bypassing the query cache
func (ts *Tokens) Refresh(ctx context.Context) error {
	rows, err := ts.api.FindAllFresh(ctx, constants.ContractTokens, constants.TableTokens, api.Query{})
	if err != nil {
		return err
	}
	return ts.load(rows)
}

func (ts *Tokens) load(rows []json.RawMessage) error {
	list := make([]*Token, 0, len(rows))
	for _, row := range rows {
		t, err := FromRow(ts.api, row)
		if err != nil {
			return err
		}
		list = append(list, t)
	}
	ts.list = list
	return nil
}

// Get returns a view of the token with symbol, matched case-insensitively,
// or nil when there is none. It does not hit the network.
func (ts *Tokens) Get(symbol string) *Token {
	for _, t := range ts.list {
		if strings.EqualFold(t.Symbol, symbol) {
			return t.clone()
		}
	}
	return nil
}

// List returns the tokens in listing order
func (ts *Tokens) List() []*Token {
	out := make([]*Token, len(ts.list))
	for i, t := range ts.list {
		out[i] = t.clone()
	}
	return out
}

func (ts *Tokens) Symbols() []string {
	out := make([]string, len(ts.list))
	for i, t := range ts.list {
		out[i] = t.Symbol
	}
	return out
}

func (ts *Tokens) Len() int {
	return len(ts.list)
}
