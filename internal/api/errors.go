// Package api exposes the typed operations a caller uses to drive the
// engine: creating and listing markets and users, buying shares, and
// resolving markets. It is a Go-native facade, not an HTTP server. No
// request/response wire format, routing, or auth lives here.
package api

import "errors"

// The closed set of error kinds a caller can expect, realized as Go
// sentinel errors. Callers compare with errors.Is, never by inspecting a
// message string or a concrete type.
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotFound            = errors.New("not found")
	ErrIllegalState        = errors.New("illegal state")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAmountTooSmall      = errors.New("amount too small")
	ErrDuplicateName       = errors.New("duplicate market name")
	ErrDuplicateUser       = errors.New("duplicate user name")
	ErrStructural          = errors.New("structural error")
	ErrDurability          = errors.New("durability error")
)
