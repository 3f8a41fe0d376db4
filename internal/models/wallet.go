package models

import "encoding/json"

// Balance is one row of tokens.balances. Optional quantities are empty when
// the node omits them.
type Balance struct {
	ID                   json.Number `json:"_id,omitempty"`
	Account              string      `json:"account"`
	Symbol               string      `json:"symbol"`
	Balance              string      `json:"balance"`
	Stake                string      `json:"stake,omitempty"`
	PendingUnstake       string      `json:"pendingUnstake,omitempty"`
	DelegationsIn        string      `json:"delegationsIn,omitempty"`
	DelegationsOut       string      `json:"delegationsOut,omitempty"`
	PendingUndelegations string      `json:"pendingUndelegations,omitempty"`
}

// HistoryEntry is one record from the account history service
type HistoryEntry struct {
	ID            string `json:"_id"`
	BlockNumber   int64  `json:"blockNumber"`
	TransactionID string `json:"transactionId"`
	Timestamp     int64  `json:"timestamp"`
	Operation     string `json:"operation"`
	Account       string `json:"account,omitempty"`
	From          string `json:"from,omitempty"`
	To            string `json:"to,omitempty"`
	Symbol        string `json:"symbol"`
	Quantity      string `json:"quantity,omitempty"`
	Memo          string `json:"memo,omitempty"`
}
