// Package lmsr implements Robin Hanson's Logarithmic Market Scoring Rule
// (2003) for a single binary-outcome market.
//
// The kernel works in float64 internally, since the cost function involves
// a log-sum-exp that has no exact decimal form, and only ever touches
// decimal.Decimal at the call boundary in internal/engine, where a cost is
// rounded to a fixed scale exactly once.
package lmsr

import "math"

// Cost returns the LMSR cost function C(qYes, qNo) = b * ln(e^(qYes/b) + e^(qNo/b)),
// computed with the standard log-sum-exp stabilization to avoid overflow for
// large share quantities.
func Cost(b, qYes, qNo float64) float64 {
	return b * logSumExp(qYes/b, qNo/b)
}

// Prices returns the instantaneous marginal price of YES and NO shares,
// i.e. the softmax of (qYes/b, qNo/b). pYes+pNo always equals 1 and both are
// strictly between 0 and 1 for finite qYes, qNo, and b > 0.
func Prices(b, qYes, qNo float64) (pYes, pNo float64) {
	m := max(qYes, qNo)
	eYes := math.Exp(qYes/b - m/b)
	eNo := math.Exp(qNo/b - m/b)
	sum := eYes + eNo
	return eYes / sum, eNo / sum
}

// CostToBuy returns the cost of moving qYes (or qNo) forward by shares,
// i.e. C(q_outcome + shares) - C(q_current). A negative shares value prices
// a sale, which this module's callers never perform (see Non-goals), but the
// formula itself is symmetric and correct for either sign.
func CostToBuy(b, qYes, qNo float64, buyYes bool, shares float64) float64 {
	before := Cost(b, qYes, qNo)
	if buyYes {
		return Cost(b, qYes+shares, qNo) - before
	}
	return Cost(b, qYes, qNo+shares) - before
}

// SharesForBudget solves for the number of shares of the given outcome whose
// cost equals budget, via bisection on CostToBuy. The bracket starts at
// [0, 10*budget], its upper end doubled until it covers budget, and the
// search stops once the bracket is narrower than 1e-4 shares, returning its
// midpoint. It assumes budget >= 0; CostToBuy is strictly increasing in
// shares for a fixed outcome, so the bisection bracket always converges.
func SharesForBudget(b, qYes, qNo float64, buyYes bool, budget float64) float64 {
	const (
		maxIterations = 100
		tolerance     = 1e-4
	)

	lo, hi := 0.0, 10*budget
	for CostToBuy(b, qYes, qNo, buyYes, hi) < budget {
		hi *= 2
	}

	for i := 0; i < maxIterations && hi-lo >= tolerance; i++ {
		mid := (lo + hi) / 2
		if CostToBuy(b, qYes, qNo, buyYes, mid) < budget {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// MaxLoss returns the market maker's maximum possible loss, b*ln(2), which
// is bounded regardless of how the market resolves.
func MaxLoss(b float64) float64 {
	return b * math.Ln2
}

func logSumExp(a, b float64) float64 {
	m := max(a, b)
	return m + math.Log(math.Exp(a-m)+math.Exp(b-m))
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
