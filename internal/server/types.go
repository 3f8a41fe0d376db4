package server

import "github.com/aman-zulfiqar/hive-engine-go/internal/models"

// ErrorResponse is the JSON envelope of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details any    `json:"details,omitempty"`
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

// ListResponse wraps list endpoints
type ListResponse struct {
	Items any `json:"items"`
	Count int `json:"count"`
}

// WalletResponse lists every balance of one account
type WalletResponse struct {
	Account  string           `json:"account"`
	Balances []models.Balance `json:"balances"`
}
