package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aman-zulfiqar/hive-engine-go/internal/rpc"
	"github.com/shopspring/decimal"
)

// DefaultHostURL is the public Hive API node
const DefaultHostURL = "https://api.hive.blog"

// HostNode reads account balances from a Hive API node
type HostNode struct {
	rpc *rpc.Client
}

func NewHostNode(client *rpc.Client) *HostNode {
	return &HostNode{rpc: client}
}

type hostAccount struct {
	Name       string `json:"name"`
	Balance    string `json:"balance"`
	HBDBalance string `json:"hbd_balance"`
}

// Balance returns the liquid balance of asset (HIVE or HBD) held by account
func (h *HostNode) Balance(ctx context.Context, account, asset string) (decimal.Decimal, error) {
	res, err := h.rpc.Call(ctx, rpc.Endpoint(""), "condenser_api.get_accounts", [][]string{{account}})
	if err != nil {
		return decimal.Zero, err
	}

	accounts, err := decodeAccounts(res)
	if err != nil {
		return decimal.Zero, err
	}
	if len(accounts) == 0 {
		return decimal.Zero, fmt.Errorf("host account %s not found", account)
	}

	var amount string
	switch strings.ToUpper(asset) {
	case "HIVE":
		amount = accounts[0].Balance
	case "HBD":
		amount = accounts[0].HBDBalance
	default:
		return decimal.Zero, fmt.Errorf("unknown host asset %s", asset)
	}
	fields := strings.Fields(amount)
	if len(fields) == 0 {
		return decimal.Zero, fmt.Errorf("host account %s has no %s balance", account, asset)
	}
	return decimal.NewFromString(fields[0])
}

// decodeAccounts accepts both the batched shape [[account...]] and a plain
// account list
func decodeAccounts(res json.RawMessage) ([]hostAccount, error) {
	var outer []json.RawMessage
	if err := json.Unmarshal(res, &outer); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}
	if len(outer) == 1 && len(outer[0]) > 0 && outer[0][0] == '[' {
		res = outer[0]
	}
	var accounts []hostAccount
	if err := json.Unmarshal(res, &accounts); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}
	return accounts, nil
}

type hostReader struct {
	host *HostNode
}

func (h hostReader) HostBalance(ctx context.Context, account, asset string) (decimal.Decimal, error) {
	if h.host == nil {
		return decimal.Zero, fmt.Errorf("%w: no host node configured", ErrHostTransferUnsupported)
	}
	return h.host.Balance(ctx, account, asset)
}
