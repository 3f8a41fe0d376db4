package tokens

import "errors"

var (
	ErrTokenDoesNotExist       = errors.New("token does not exist")
	ErrTokenNotInWallet        = errors.New("token is not in the wallet")
	ErrInsufficientTokenAmount = errors.New("insufficient token amount")
	// ErrInvalidTokenAmount covers amounts that truncate to zero, are
	// negative, or would overflow the max supply.
	ErrInvalidTokenAmount     = errors.New("invalid token amount")
	ErrTokenIssueNotPermitted = errors.New("only the token issuer may issue new tokens")
	ErrMaxSupplyReached       = errors.New("max supply reached")
)
