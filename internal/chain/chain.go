package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrWrongChain means the broadcaster is not configured for Hive.
	// It signals misconfiguration, not bad input.
	ErrWrongChain = errors.New("broadcaster is not connected to the hive chain")

	// ErrNoBroadcaster is returned when a read-only builder is asked to mutate
	ErrNoBroadcaster = errors.New("no broadcaster configured")

	// ErrInvalidRequest wraps malformed builder input
	ErrInvalidRequest = errors.New("invalid request")

	// ErrHostTransferUnsupported is returned by Deposit when the broadcaster
	// cannot move host-chain funds
	ErrHostTransferUnsupported = errors.New("broadcaster cannot transfer host chain funds")
)

// Payload is the contract call carried by a custom_json operation
type Payload struct {
	ContractName    string `json:"contractName"`
	ContractAction  string `json:"contractAction"`
	ContractPayload any    `json:"contractPayload"`
}

// Auths lists the accounts whose active or posting authority signs an operation
type Auths struct {
	Active  []string
	Posting []string
}

// ActiveAuth requires the active authority of account
func ActiveAuth(account string) Auths {
	return Auths{Active: []string{account}}
}

// PostingAuth requires the posting authority of account
func PostingAuth(account string) Auths {
	return Auths{Posting: []string{account}}
}

// Receipt is what the broadcaster returned. Its shape is owned by the
// broadcaster and passed through unchanged.
type Receipt map[string]any

// Broadcaster signs and broadcasts host-chain operations
type Broadcaster interface {
	CustomJSON(ctx context.Context, id string, payload Payload, auths Auths) (Receipt, error)
	IsHive() bool
}

// HostTransferer is implemented by broadcasters that can read and move
// host-chain balances
type HostTransferer interface {
	HostBalance(ctx context.Context, account, asset string) (decimal.Decimal, error)
	Transfer(ctx context.Context, from, to string, amount decimal.Decimal, asset, memo string) (Receipt, error)
}

// CustomJSONOp is the unsigned custom_json operation
type CustomJSONOp struct {
	RequiredAuths        []string `json:"required_auths"`
	RequiredPostingAuths []string `json:"required_posting_auths"`
	ID                   string   `json:"id"`
	JSON                 string   `json:"json"`
}

// NewCustomJSON builds the operation carrying payload
func NewCustomJSON(id string, payload Payload, auths Auths) (*CustomJSONOp, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	op := &CustomJSONOp{
		RequiredAuths:        auths.Active,
		RequiredPostingAuths: auths.Posting,
		ID:                   id,
		JSON:                 string(data),
	}
	if op.RequiredAuths == nil {
		op.RequiredAuths = []string{}
	}
	if op.RequiredPostingAuths == nil {
		op.RequiredPostingAuths = []string{}
	}
	return op, nil
}

// TransferOp is the unsigned host-chain transfer operation
type TransferOp struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Memo   string `json:"memo"`
}

// NewTransfer formats amount with the three decimals the host chain uses
func NewTransfer(from, to string, amount decimal.Decimal, asset, memo string) *TransferOp {
	return &TransferOp{
		From:   from,
		To:     to,
		Amount: amount.Truncate(3).StringFixed(3) + " " + asset,
		Memo:   memo,
	}
}

// Envelope is what the relay publishes for an external signer
type Envelope struct {
	Type       string        `json:"type"`
	CustomJSON *CustomJSONOp `json:"custom_json,omitempty"`
	Transfer   *TransferOp   `json:"transfer,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}
