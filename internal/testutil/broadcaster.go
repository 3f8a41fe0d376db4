package testutil

import (
	"context"
	"sync"

	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/shopspring/decimal"
)

// Call is one operation seen by Broadcaster
type Call struct {
	ID      string
	Payload chain.Payload
	Auths   chain.Auths
}

// HostTransfer is one host-chain transfer seen by Broadcaster
type HostTransfer struct {
	From, To, Asset, Memo string
	Amount                decimal.Decimal
}

// Broadcaster records operations instead of broadcasting them
type Broadcaster struct {
	mu sync.Mutex

	NotHive      bool
	Err          error
	HostBalances map[string]decimal.Decimal

	calls     []Call
	transfers []HostTransfer
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{HostBalances: make(map[string]decimal.Decimal)}
}

func (b *Broadcaster) IsHive() bool {
	return !b.NotHive
}

func (b *Broadcaster) CustomJSON(_ context.Context, id string, payload chain.Payload, auths chain.Auths) (chain.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return nil, b.Err
	}
	b.calls = append(b.calls, Call{ID: id, Payload: payload, Auths: auths})
	return chain.Receipt{"id": id, "index": len(b.calls)}, nil
}

func (b *Broadcaster) HostBalance(_ context.Context, account, asset string) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.HostBalances[account+" "+asset], nil
}

func (b *Broadcaster) Transfer(_ context.Context, from, to string, amount decimal.Decimal, asset, memo string) (chain.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Err != nil {
		return nil, b.Err
	}
	b.transfers = append(b.transfers, HostTransfer{From: from, To: to, Amount: amount, Asset: asset, Memo: memo})
	return chain.Receipt{"transfer": len(b.transfers)}, nil
}

// Calls returns the recorded custom_json operations
func (b *Broadcaster) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Last returns the most recent custom_json operation
func (b *Broadcaster) Last() Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.calls) == 0 {
		return Call{}
	}
	return b.calls[len(b.calls)-1]
}

// Transfers returns the recorded host-chain transfers
func (b *Broadcaster) Transfers() []HostTransfer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]HostTransfer(nil), b.transfers...)
}

// Sender wraps b in a chain.Sender
func (b *Broadcaster) Sender() *chain.Sender {
	return chain.NewSender(b, Logger(), nil)
}
