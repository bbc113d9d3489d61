package models

import "github.com/shopspring/decimal"

// Position holds a user's stake in a single market: both share sides at
// once. A user holds at most one Position per market, and the map key in
// User.Positions always equals its MarketID. Trade and Position hold only
// ids, never pointers to Market/User, so the graph never becomes cyclic.
type Position struct {
	MarketID  string  `validate:"required"`
	YesShares float64 `validate:"gte=0"`
	NoShares  float64 `validate:"gte=0"`
	Settled   bool
}

// Shares returns the share count for the given outcome side.
func (p *Position) Shares(outcome Outcome) float64 {
	if outcome == Yes {
		return p.YesShares
	}
	return p.NoShares
}

// ClearShares zeroes both share sides, per settlement's clearShares() step.
func (p *Position) ClearShares() {
	p.YesShares = 0
	p.NoShares = 0
}

// User holds a balance and a map of positions keyed by market id.
type User struct {
	ID        string `validate:"required"`
	Name      string `validate:"required"`
	Balance   decimal.Decimal
	Positions map[string]*Position
}

// NewUser constructs a user with the given starting balance and no
// positions.
func NewUser(id, name string, startingBalance decimal.Decimal) *User {
	return &User{
		ID:        id,
		Name:      name,
		Balance:   startingBalance,
		Positions: make(map[string]*Position),
	}
}

// PositionFor returns the user's position in a market, or nil if they hold
// none.
func (u *User) PositionFor(marketID string) *Position {
	return u.Positions[marketID]
}

// AddShares credits shares of outcome in marketID to the user, creating the
// Position if it does not already exist.
func (u *User) AddShares(marketID string, outcome Outcome, shares float64) {
	pos := u.Positions[marketID]
	if pos == nil {
		pos = &Position{MarketID: marketID}
		u.Positions[marketID] = pos
	}
	if outcome == Yes {
		pos.YesShares += shares
	} else {
		pos.NoShares += shares
	}
}

// Clone returns a deep copy, used by internal/store to hand out state
// without exposing a pointer into the store's own map.
func (u *User) Clone() *User {
	cp := *u
	cp.Positions = make(map[string]*Position, len(u.Positions))
	for k, p := range u.Positions {
		pc := *p
		cp.Positions[k] = &pc
	}
	return &cp
}
