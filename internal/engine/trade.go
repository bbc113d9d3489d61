package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"marketcore/internal/lmsr"
	"marketcore/internal/models"
	"marketcore/internal/store"
)

// minShares is the smallest share quantity a buy is allowed to produce.
// A budget that would buy fewer shares than this is rejected as
// ErrAmountTooSmall rather than silently rounding to zero shares for a
// nonzero cost.
const minShares = 1e-6

// TradeEngine executes buys against a market, following the validate-then-
// apply two-phase protocol: every check and every arithmetic computation
// happens before the first mutation, so a rejected trade can never leave
// partial state behind.
type TradeEngine struct {
	Markets *store.MarketStore
	Users   *store.UserStore
	Clock   Clock
}

func NewTradeEngine(markets *store.MarketStore, users *store.UserStore, clock Clock) *TradeEngine {
	if clock == nil {
		clock = RealClock{}
	}
	return &TradeEngine{Markets: markets, Users: users, Clock: clock}
}

// Buy executes the primary trade operation: buying an exact, caller-chosen
// quantity of shares (Δshares > 0) of outcome in marketID for userID, at
// whatever cost the LMSR kernel prices that quantity at. It returns the
// resulting Trade record.
func (e *TradeEngine) Buy(marketID, userID string, outcome models.Outcome, shares float64) (*models.Trade, error) {
	if !outcome.Valid() {
		return nil, ErrInvalidOutcome
	}
	if shares <= 0 {
		return nil, ErrAmountTooSmall
	}

	mu, market, ok := e.Markets.LockFor(marketID)
	if !ok {
		return nil, ErrMarketNotFound
	}
	mu.Lock()
	defer mu.Unlock()

	return e.buyLocked(market, marketID, userID, outcome, shares, nil)
}

// BuyForBudget is the budget variant of Buy: the caller names an amount to
// spend rather than a share count. It first solves for the number of shares
// that amount buys via the kernel's bisection search, then proceeds through
// the same validate-then-apply path as Buy.
func (e *TradeEngine) BuyForBudget(marketID, userID string, outcome models.Outcome, budget decimal.Decimal) (*models.Trade, error) {
	if !outcome.Valid() {
		return nil, ErrInvalidOutcome
	}
	if budget.LessThanOrEqual(decimal.Zero) {
		return nil, ErrAmountTooSmall
	}

	mu, market, ok := e.Markets.LockFor(marketID)
	if !ok {
		return nil, ErrMarketNotFound
	}
	mu.Lock()
	defer mu.Unlock()

	if market.Status != models.StatusOpen {
		return nil, ErrMarketNotOpen
	}

	budgetF, _ := budget.Float64()
	qYes, qNo := market.Shares()
	shares := lmsr.SharesForBudget(market.B, qYes, qNo, outcome == models.Yes, budgetF)
	if shares < minShares {
		return nil, ErrAmountTooSmall
	}

	return e.buyLocked(market, marketID, userID, outcome, shares, &budget)
}

// buyLocked runs phases 1-3 of the two-phase commit for a market whose
// mutex the caller already holds. cap, if non-nil, clamps the charged cost
// to at most that amount. Used by BuyForBudget, since bisection can
// overshoot its tolerance and must never charge more than the caller
// authorized.
func (e *TradeEngine) buyLocked(market *models.Market, marketID, userID string, outcome models.Outcome, shares float64, cap *decimal.Decimal) (*models.Trade, error) {
	if market.Status != models.StatusOpen {
		return nil, ErrMarketNotOpen
	}

	qYes, qNo := market.Shares()
	actualCost := lmsr.CostToBuy(market.B, qYes, qNo, outcome == models.Yes, shares)
	if actualCost < 0 {
		return nil, fmt.Errorf("lmsr: cost-to-buy returned a negative cost, pricing invariant violated")
	}
	cost := decimal.NewFromFloat(actualCost).RoundBank(8)
	if cap != nil && cost.GreaterThan(*cap) {
		cost = *cap
	}

	trade := &models.Trade{
		ID:        uuid.NewString(),
		MarketID:  marketID,
		UserID:    userID,
		Outcome:   outcome,
		Shares:    shares,
		Cost:      cost,
		CreatedAt: e.Clock.Now(),
	}

	// The balance check and the balance/position write happen inside a
	// single Mutate call so a concurrent trade against the same user on a
	// different market (a different market mutex) can never observe a
	// passed check before this one applies its deduction.
	err := e.Users.Mutate(userID, func(u *models.User) error {
		if u.Balance.LessThan(cost) {
			return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, u.Balance.String(), cost.String())
		}
		u.Balance = u.Balance.Sub(cost)
		u.AddShares(marketID, outcome, shares)
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	// The user side committed; apply the market side, which cannot fail.
	market.ApplyTrade(outcome, shares)

	return trade, nil
}
