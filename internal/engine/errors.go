package engine

import "errors"

var (
	ErrMarketNotFound      = errors.New("market not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrMarketNotOpen       = errors.New("market is not open")
	ErrMarketNotResolved   = errors.New("market is not resolved")
	ErrInvalidOutcome      = errors.New("invalid outcome")
	ErrAmountTooSmall      = errors.New("amount is too small to produce any shares")
	ErrInsufficientBalance = errors.New("insufficient balance")
)
