package engine

import (
	"errors"

	"github.com/shopspring/decimal"

	"marketcore/internal/models"
	"marketcore/internal/store"
)

// ErrAlreadySettled is returned by SettleUser for a position that has
// already been paid. Unlike payWinners' per-position skip inside
// SettleMarket, the direct single-user entry point treats re-settling as
// caller error rather than a no-op.
var ErrAlreadySettled = errors.New("position is already settled")

// ErrNoPosition is returned by SettleUser when userID holds no position in
// marketID at all.
var ErrNoPosition = errors.New("user holds no position in this market")

// SettlementEngine resolves a market and pays out winning positions at
// 1 unit of currency per winning share. Payout is idempotent per position:
// a position already marked Settled is never paid twice, which is what
// makes re-running SettleMarket for an already-resolved market (e.g. after
// a durability failure) safe. Resolve itself is one-shot and fails on a
// second call.
type SettlementEngine struct {
	Markets *store.MarketStore
	Users   *store.UserStore
	Clock   Clock
}

func NewSettlementEngine(markets *store.MarketStore, users *store.UserStore, clock Clock) *SettlementEngine {
	if clock == nil {
		clock = RealClock{}
	}
	return &SettlementEngine{Markets: markets, Users: users, Clock: clock}
}

// Resolve transitions marketID to RESOLVED with the given winning outcome,
// then pays every user holding a winning position winShares * 1 currency
// unit, marking each paid position Settled. Resolving an already-resolved
// market always fails with ErrAlreadyResolved, even if outcome matches the
// prior resolution. A caller retrying after a durability failure should
// re-run settlement directly (payWinners is itself idempotent per
// position), not call Resolve again.
func (e *SettlementEngine) Resolve(marketID string, outcome models.Outcome) error {
	if !outcome.Valid() {
		return ErrInvalidOutcome
	}

	mu, market, ok := e.Markets.LockFor(marketID)
	if !ok {
		return ErrMarketNotFound
	}
	mu.Lock()
	defer mu.Unlock()

	if err := market.Resolve(outcome, e.Clock.Now()); err != nil {
		return err
	}

	return e.payWinners(marketID, outcome)
}

// SettleMarket is the public, skip-based settlement entry point: it
// iterates every user and pays winning positions, silently skipping any
// position already Settled. Resolve runs the same payout (payWinners)
// internally; this entry point exists so a caller holding a market already known to be RESOLVED
// (e.g. retrying after a durability failure) can re-run settlement without
// going through Resolve's one-shot state transition.
func (e *SettlementEngine) SettleMarket(marketID string) error {
	mu, market, ok := e.Markets.LockFor(marketID)
	if !ok {
		return ErrMarketNotFound
	}
	mu.Lock()
	defer mu.Unlock()

	if market.Status != models.StatusResolved || market.Resolved == nil {
		return ErrMarketNotResolved
	}
	return e.payWinners(marketID, *market.Resolved)
}

// SettleUser is the direct, single-position settlement entry point: unlike
// SettleMarket's per-user skip, it requires a position to exist and rejects
// an already-settled one outright, rather than treating it as a no-op.
// Used by tests and by callers that already know the position's state and
// want a hard failure on misuse.
func (e *SettlementEngine) SettleUser(marketID, userID string) error {
	mu, market, ok := e.Markets.LockFor(marketID)
	if !ok {
		return ErrMarketNotFound
	}
	mu.Lock()
	defer mu.Unlock()

	if market.Status != models.StatusResolved || market.Resolved == nil {
		return ErrMarketNotResolved
	}
	outcome := *market.Resolved

	return e.Users.Mutate(userID, func(u *models.User) error {
		pos := u.PositionFor(marketID)
		if pos == nil {
			return ErrNoPosition
		}
		if pos.Settled {
			return ErrAlreadySettled
		}
		payout := decimal.NewFromFloat(pos.Shares(outcome)).Round(8)
		u.Balance = u.Balance.Add(payout)
		pos.ClearShares()
		pos.Settled = true
		return nil
	})
}

// payWinners settles every unsettled position in marketID, paying
// winShares * 1 currency unit to whichever side holds the resolved outcome
// (zero for a loser) and clearing both share counts regardless of which side
// won. It is safe to call repeatedly: already-settled positions are skipped,
// so a caller retrying after a durability failure never double-pays.
func (e *SettlementEngine) payWinners(marketID string, outcome models.Outcome) error {
	for _, u := range e.Users.List() {
		pos := u.PositionFor(marketID)
		if pos == nil || pos.Settled {
			continue
		}
		payout := decimal.NewFromFloat(pos.Shares(outcome)).Round(8)
		userID := u.ID
		if err := e.Users.Mutate(userID, func(u *models.User) error {
			live := u.PositionFor(marketID)
			if live == nil || live.Settled {
				return nil
			}
			u.Balance = u.Balance.Add(payout)
			live.ClearShares()
			live.Settled = true
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}
