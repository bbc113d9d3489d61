package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is an immutable record of a single buy. It holds only ids, never a
// *Market or *User, so trade history can never create a reference cycle
// with the objects it describes.
type Trade struct {
	ID        string `validate:"required"`
	MarketID  string `validate:"required"`
	UserID    string `validate:"required"`
	Outcome   Outcome `validate:"oneof=YES NO"`
	Shares    float64 `validate:"gt=0"`
	Cost      decimal.Decimal
	CreatedAt time.Time
}
