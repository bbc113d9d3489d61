package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Market is the engine's internal representation of a single binary market.
// qYes and qNo are deliberately unexported (read them through Shares);
// callers outside this module see only a MarketView (internal/api), never
// the raw LMSR state. The liquidity parameter B is exported.
type Market struct {
	ID          string `validate:"required"`
	Name        string `validate:"required"`
	Description string
	B           float64 `validate:"gt=0"`
	qYes        float64
	qNo         float64
	Status      MarketStatus `validate:"oneof=OPEN RESOLVED"`
	Resolved    *Outcome
	CreatedAt   time.Time
	ResolvedAt  *time.Time
}

var (
	ErrAlreadyResolved = errors.New("market is already resolved")
	ErrNotResolved     = errors.New("market is not resolved")
	ErrInvalidMarket   = errors.New("market fails structural invariants")
)

// Validate enforces the invariants struct tags can't reach, since qYes/qNo
// are unexported: both share counts non-negative, and status/resolvedOutcome
// in lockstep (OPEN implies no resolved outcome, RESOLVED implies exactly
// one). Called by the persistence coordinator after every load.
func (m *Market) Validate() error {
	if m.qYes < 0 || m.qNo < 0 {
		return fmt.Errorf("%w: %s: negative share count", ErrInvalidMarket, m.ID)
	}
	switch m.Status {
	case StatusOpen:
		if m.Resolved != nil {
			return fmt.Errorf("%w: %s: OPEN market has a resolved outcome", ErrInvalidMarket, m.ID)
		}
	case StatusResolved:
		if m.Resolved == nil || !m.Resolved.Valid() {
			return fmt.Errorf("%w: %s: RESOLVED market missing a valid outcome", ErrInvalidMarket, m.ID)
		}
	default:
		return fmt.Errorf("%w: %s: unknown status %q", ErrInvalidMarket, m.ID, m.Status)
	}
	return nil
}

// NewMarket constructs a fresh OPEN market with qYes = qNo = 0, i.e. priced
// at 50/50, per the LMSR's initial condition.
func NewMarket(id, name, description string, b float64) *Market {
	return &Market{
		ID:          id,
		Name:        name,
		Description: description,
		B:           b,
		Status:      StatusOpen,
		CreatedAt:   time.Now(),
	}
}

// Shares returns the current qYes, qNo pair. Exported as a method rather
// than public fields so that the zero value of Market is never silently
// mistaken for valid state by a caller outside this package.
func (m *Market) Shares() (qYes, qNo float64) {
	return m.qYes, m.qNo
}

// ApplyTrade advances the market's share quantities for the given outcome.
// It does not validate market status. Callers (internal/engine) must check
// Status == StatusOpen themselves as part of the trade's validation phase,
// before any mutation happens.
func (m *Market) ApplyTrade(outcome Outcome, shares float64) {
	if outcome == Yes {
		m.qYes += shares
	} else {
		m.qNo += shares
	}
}

// Resolve transitions the market to RESOLVED with the given winning outcome.
// Calling Resolve twice returns ErrAlreadyResolved; the market's status never
// reverts once set.
func (m *Market) Resolve(outcome Outcome, at time.Time) error {
	if m.Status == StatusResolved {
		return ErrAlreadyResolved
	}
	m.Status = StatusResolved
	m.Resolved = &outcome
	m.ResolvedAt = &at
	return nil
}

// marketJSON mirrors Market's fields for persistence purposes. qYes/qNo are
// unexported on Market itself so that nothing outside this package can read
// or mutate raw share counts, but the persistence coordinator still needs
// to round-trip them across a restart.
type marketJSON struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	B           float64      `json:"b"`
	QYes        float64      `json:"q_yes"`
	QNo         float64      `json:"q_no"`
	Status      MarketStatus `json:"status"`
	Resolved    *Outcome     `json:"resolved,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
}

func (m Market) MarshalJSON() ([]byte, error) {
	return json.Marshal(marketJSON{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		B:           m.B,
		QYes:        m.qYes,
		QNo:         m.qNo,
		Status:      m.Status,
		Resolved:    m.Resolved,
		CreatedAt:   m.CreatedAt,
		ResolvedAt:  m.ResolvedAt,
	})
}

func (m *Market) UnmarshalJSON(data []byte) error {
	var mj marketJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return err
	}
	m.ID = mj.ID
	m.Name = mj.Name
	m.Description = mj.Description
	m.B = mj.B
	m.qYes = mj.QYes
	m.qNo = mj.QNo
	m.Status = mj.Status
	m.Resolved = mj.Resolved
	m.CreatedAt = mj.CreatedAt
	m.ResolvedAt = mj.ResolvedAt
	return nil
}

// Clone returns a deep copy, used by internal/store to hand out state
// without exposing a pointer into the store's own map.
func (m *Market) Clone() *Market {
	cp := *m
	if m.Resolved != nil {
		o := *m.Resolved
		cp.Resolved = &o
	}
	if m.ResolvedAt != nil {
		t := *m.ResolvedAt
		cp.ResolvedAt = &t
	}
	return &cp
}
