package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/aman-zulfiqar/hive-engine-go/internal/chain"
	"github.com/aman-zulfiqar/hive-engine-go/internal/nft"
	"github.com/aman-zulfiqar/hive-engine-go/internal/rpc"
	"github.com/aman-zulfiqar/hive-engine-go/internal/tokens"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// retryAfterSeconds is advertised when the node or the limiter asks the
// client to back off
const retryAfterSeconds = "5"

// statusFor maps a query error onto the gateway status code
func statusFor(err error) int {
	var rpcErr *rpc.RPCError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.Code
	case errors.Is(err, tokens.ErrTokenDoesNotExist), errors.Is(err, nft.ErrNftDoesNotExist):
		return http.StatusNotFound
	case errors.Is(err, chain.ErrInvalidRequest):
		return http.StatusBadRequest
	case rpc.IsRetryable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &rpcErr), errors.Is(err, rpc.ErrUnauthorized):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// errorHandler keeps every error that escapes a handler, including unknown
// routes and middleware rejections, in the ErrorResponse envelope
func errorHandler(logger *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := statusFor(err)
		if code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable {
			c.Response().Header().Set("Retry-After", retryAfterSeconds)
		}

		msg := http.StatusText(code)
		if code == http.StatusInternalServerError {
			msg = "internal server error"
			logger.WithError(err).WithField("path", c.Path()).Error("unhandled gateway error")
		}
		_ = c.JSON(code, ErrorResponse{Error: msg, Code: code})
	}
}
