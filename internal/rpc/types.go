package rpc

import (
	"errors"
	"fmt"
)

// Endpoint names a JSON-RPC namespace on the sidechain node
type Endpoint string

const (
	EndpointBlockchain Endpoint = "blockchain"
	EndpointContracts  Endpoint = "contracts"
)

// Request is one JSON-RPC call inside a batch
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

// ErrUnauthorized is returned when the node answers 401
var ErrUnauthorized = errors.New("unauthorized: node rejected credentials")

// RPCError represents a JSON-RPC error response or an unusable server reply.
// It is never retried.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

// RetryableError is a server failure that may succeed when the same request
// is sent again (overload, gateway and rate-limit pages).
type RetryableError struct {
	Status  int
	Message string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable server error (%d): %s", e.Status, e.Message)
}

// IsRetryable reports whether err carries a RetryableError
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}
