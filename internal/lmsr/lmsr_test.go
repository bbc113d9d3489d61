package lmsr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostAtOrigin(t *testing.T) {
	// C(0,0) = b*ln(2)
	got := Cost(100, 0, 0)
	assert.InDelta(t, 100*math.Ln2, got, 1e-9)
}

func TestPricesAtOriginAreHalf(t *testing.T) {
	pYes, pNo := Prices(100, 0, 0)
	assert.InDelta(t, 0.5, pYes, 1e-9)
	assert.InDelta(t, 0.5, pNo, 1e-9)
	assert.InDelta(t, 1.0, pYes+pNo, 1e-12)
}

func TestPricesSumToOne(t *testing.T) {
	pYes, pNo := Prices(50, 37.5, -12.2)
	assert.InDelta(t, 1.0, pYes+pNo, 1e-9)
	assert.True(t, pYes > 0 && pYes < 1)
	assert.True(t, pNo > 0 && pNo < 1)
}

func TestCostToBuyMatchesMarginalPriceForSmallShares(t *testing.T) {
	b := 100.0
	pYes, _ := Prices(b, 0, 0)
	cost := CostToBuy(b, 0, 0, true, 0.001)
	assert.InDelta(t, pYes*0.001, cost, 1e-5)
}

func TestSharesForBudgetRoundTrips(t *testing.T) {
	b := 100.0
	budget := 10.0
	shares := SharesForBudget(b, 0, 0, true, budget)
	cost := CostToBuy(b, 0, 0, true, shares)
	require.InDelta(t, budget, cost, 1e-3)
}

func TestMaxLoss(t *testing.T) {
	assert.InDelta(t, 100*math.Ln2, MaxLoss(100), 1e-9)
}

func TestCostToBuyIsMonotoneInShares(t *testing.T) {
	b, qYes, qNo := 100.0, 12.0, 7.0
	cost1 := CostToBuy(b, qYes, qNo, true, 1)
	cost2 := CostToBuy(b, qYes, qNo, true, 2)
	assert.True(t, cost1 < cost2, "cost must strictly increase with shares bought")
}

func TestCostToBuyIsPositiveForPositiveShares(t *testing.T) {
	assert.True(t, CostToBuy(100, 0, 0, true, 5) > 0)
	assert.True(t, CostToBuy(100, 0, 0, false, 5) > 0)
}

func TestCostToBuySymmetryAcrossOutcomes(t *testing.T) {
	b := 100.0
	yesCost := CostToBuy(b, 12.0, 7.0, true, 3.0)
	noCost := CostToBuy(b, 7.0, 12.0, false, 3.0)
	assert.InDelta(t, yesCost, noCost, 1e-9)
}

func TestBuyingYesMovesPriceTowardYesAndAwayFromNo(t *testing.T) {
	b := 100.0
	pYesBefore, pNoBefore := Prices(b, 0, 0)
	pYesAfter, pNoAfter := Prices(b, 10, 0)
	assert.True(t, pYesAfter > pYesBefore)
	assert.True(t, pNoAfter < pNoBefore)
}
