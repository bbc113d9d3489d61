package api

import (
	"github.com/shopspring/decimal"

	"marketcore/internal/lmsr"
	"marketcore/internal/models"
)

// MarketView is what a caller sees of a market: never qYes, qNo, or b
// directly, only the derived prices.
type MarketView struct {
	ID          string
	Name        string
	Description string
	Status      models.MarketStatus
	PriceYes    float64
	PriceNo     float64
	Resolved    *models.Outcome
}

func newMarketView(m *models.Market) MarketView {
	qYes, qNo := m.Shares()
	pYes, pNo := lmsr.Prices(m.B, qYes, qNo)
	return MarketView{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Status:      m.Status,
		PriceYes:    pYes,
		PriceNo:     pNo,
		Resolved:    m.Resolved,
	}
}

// PositionView is a single position within UserDetail. Both share counts are
// exposed together since a user may hold either or both sides of a market.
type PositionView struct {
	MarketID  string
	YesShares float64
	NoShares  float64
	Settled   bool
}

// UserView is the list-shape projection of a user: identity only. Balance
// and positions belong to the dedicated "me" projection (UserDetail) below,
// never to the shape every caller of ListUsers sees.
type UserView struct {
	ID   string
	Name string
}

func newUserView(u *models.User) UserView {
	return UserView{ID: u.ID, Name: u.Name}
}

// UserDetail is the dedicated "me" projection: identity, balance, and every
// position, returned only to a caller asking about one specific user.
type UserDetail struct {
	UserView
	Balance   decimal.Decimal
	Positions []PositionView
}

func newUserDetail(u *models.User) UserDetail {
	detail := UserDetail{UserView: newUserView(u), Balance: u.Balance}
	for _, p := range u.Positions {
		detail.Positions = append(detail.Positions, PositionView{
			MarketID: p.MarketID, YesShares: p.YesShares, NoShares: p.NoShares, Settled: p.Settled,
		})
	}
	return detail
}
