package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"marketcore/internal/models"
	"marketcore/internal/store"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newFixture(t *testing.T) (*store.MarketStore, *store.UserStore, *TradeEngine) {
	t.Helper()
	markets := store.NewMarketStore()
	users := store.NewUserStore()
	market := models.NewMarket("m1", "will it rain", "", 100)
	require.NoError(t, markets.Create(market))
	user := models.NewUser("u1", "alice", decimal.NewFromInt(1000))
	require.NoError(t, users.Create(user))
	engine := NewTradeEngine(markets, users, fixedClock{t: time.Unix(0, 0)})
	return markets, users, engine
}

func TestBuySharesDeductsBalanceAndCreditsShares(t *testing.T) {
	_, users, engine := newFixture(t)

	trade, err := engine.Buy("m1", "u1", models.Yes, 10)
	require.NoError(t, err)
	require.Equal(t, models.Yes, trade.Outcome)
	require.Equal(t, 10.0, trade.Shares)
	require.True(t, trade.Cost.GreaterThan(decimal.Zero))

	u, ok := users.Get("u1")
	require.True(t, ok)
	require.True(t, u.Balance.LessThan(decimal.NewFromInt(1000)))
	pos := u.PositionFor("m1")
	require.NotNil(t, pos)
	require.InDelta(t, 10.0, pos.Shares(models.Yes), 1e-9)
}

func TestBuySharesRejectsNonPositiveShares(t *testing.T) {
	_, _, engine := newFixture(t)
	_, err := engine.Buy("m1", "u1", models.Yes, 0)
	require.ErrorIs(t, err, ErrAmountTooSmall)
	_, err = engine.Buy("m1", "u1", models.Yes, -5)
	require.ErrorIs(t, err, ErrAmountTooSmall)
}

func TestBuyForBudgetDeductsBalanceAndCreditsShares(t *testing.T) {
	_, users, engine := newFixture(t)

	trade, err := engine.BuyForBudget("m1", "u1", models.Yes, decimal.NewFromInt(10))
	require.NoError(t, err)
	require.Equal(t, models.Yes, trade.Outcome)
	require.True(t, trade.Shares > 0)

	u, ok := users.Get("u1")
	require.True(t, ok)
	require.True(t, u.Balance.LessThan(decimal.NewFromInt(1000)))
	pos := u.PositionFor("m1")
	require.NotNil(t, pos)
	require.InDelta(t, trade.Shares, pos.Shares(models.Yes), 1e-9)
}

func TestBuyForBudgetRejectsInsufficientBalance(t *testing.T) {
	_, _, engine := newFixture(t)
	_, err := engine.BuyForBudget("m1", "u1", models.Yes, decimal.NewFromInt(1_000_000))
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestBuyForBudgetRejectsClosedMarket(t *testing.T) {
	markets, _, engine := newFixture(t)
	_, m, _ := markets.LockFor("m1")
	require.NoError(t, m.Resolve(models.Yes, time.Unix(0, 0)))

	_, err := engine.BuyForBudget("m1", "u1", models.Yes, decimal.NewFromInt(10))
	require.ErrorIs(t, err, ErrMarketNotOpen)
}

func TestBuySharesRejectsClosedMarket(t *testing.T) {
	markets, _, engine := newFixture(t)
	_, m, _ := markets.LockFor("m1")
	require.NoError(t, m.Resolve(models.Yes, time.Unix(0, 0)))

	_, err := engine.Buy("m1", "u1", models.Yes, 10)
	require.ErrorIs(t, err, ErrMarketNotOpen)
}

func TestBuyForBudgetRejectsUnknownMarket(t *testing.T) {
	_, _, engine := newFixture(t)
	_, err := engine.BuyForBudget("does-not-exist", "u1", models.Yes, decimal.NewFromInt(10))
	require.ErrorIs(t, err, ErrMarketNotFound)
}

func TestBuyForBudgetRejectsTinyBudget(t *testing.T) {
	_, _, engine := newFixture(t)
	_, err := engine.BuyForBudget("m1", "u1", models.Yes, decimal.New(1, -12))
	require.ErrorIs(t, err, ErrAmountTooSmall)
}

func TestBuyForBudgetNeverChargesMoreThanBudget(t *testing.T) {
	_, users, engine := newFixture(t)
	budget := decimal.NewFromInt(50)
	trade, err := engine.BuyForBudget("m1", "u1", models.No, budget)
	require.NoError(t, err)
	require.True(t, trade.Cost.LessThanOrEqual(budget))

	u, _ := users.Get("u1")
	require.True(t, u.Balance.GreaterThanOrEqual(decimal.NewFromInt(1000).Sub(budget)))
}

func TestBuyRejectsInvalidOutcome(t *testing.T) {
	_, _, engine := newFixture(t)
	_, err := engine.Buy("m1", "u1", models.Outcome("MAYBE"), 10)
	require.ErrorIs(t, err, ErrInvalidOutcome)
}

func TestFailedBuyLeavesStateUnchanged(t *testing.T) {
	markets, users, engine := newFixture(t)

	before, _ := users.Get("u1")
	beforeMarket, _ := markets.Get("m1")

	_, err := engine.BuyForBudget("m1", "u1", models.Yes, decimal.NewFromInt(1_000_000))
	require.ErrorIs(t, err, ErrInsufficientBalance)

	after, _ := users.Get("u1")
	afterMarket, _ := markets.Get("m1")

	require.True(t, before.Balance.Equal(after.Balance))
	require.Nil(t, after.PositionFor("m1"), "a rejected trade must not create a position")
	qYesBefore, qNoBefore := beforeMarket.Shares()
	qYesAfter, qNoAfter := afterMarket.Shares()
	require.Equal(t, qYesBefore, qYesAfter)
	require.Equal(t, qNoBefore, qNoAfter)
}
