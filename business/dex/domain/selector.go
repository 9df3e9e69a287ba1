package domain

import (
	"math/big"

	"github.com/tamago-labs/kaia-mcp/internal/apperror"
)

// Scoring weights for candidate ranking.
const (
	weightOutput    = 0.4
	weightLiquidity = 0.3
	weightImpact    = 0.2
	weightFee       = 0.1
)

// Candidate is one per-tier quote awaiting selection.
// LiquidityScore and PriceImpactPercent are fixed at construction;
// CombinedScore is filled in by SelectBest when there is competition.
type Candidate struct {
	Pool               *PoolState
	AmountInRaw        *big.Int
	AmountOutRaw       *big.Int
	LiquidityScore     float64
	PriceImpactPercent float64
	CombinedScore      float64
}

// NewCandidate builds a candidate and derives its liquidity and price
// impact scores from the trade-size-to-liquidity ratio. float64 is fine
// here: scores rank candidates and never feed an on-chain amount.
func NewCandidate(pool *PoolState, amountInRaw, amountOutRaw *big.Int) Candidate {
	in := bigToFloat(amountInRaw)
	liq := bigToFloat(pool.Liquidity)

	liquidityScore := 0.0
	if liq > 0 {
		liquidityScore = 1 / (1 + (in/liq)*10)
	}

	impact := 0.0
	if in+liq > 0 {
		impact = in / (in + liq) * 100
		if impact > 100 {
			impact = 100
		}
	}

	return Candidate{
		Pool:               pool,
		AmountInRaw:        new(big.Int).Set(amountInRaw),
		AmountOutRaw:       new(big.Int).Set(amountOutRaw),
		LiquidityScore:     liquidityScore,
		PriceImpactPercent: impact,
	}
}

// SelectBest picks the candidate with the highest combined score.
//
// A single candidate is returned as-is without scoring. With multiple
// candidates, output amounts are normalized against the best one and
// combined with liquidity, price impact, and fee cost. Ties keep the
// first-seen candidate, so the result is deterministic for a given
// probe order.
func SelectBest(candidates []Candidate) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, apperror.New(apperror.CodeNoPool,
			apperror.WithContext("no candidate quotes to select from"))
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	maxOut := candidates[0].AmountOutRaw
	for _, c := range candidates[1:] {
		if c.AmountOutRaw.Cmp(maxOut) > 0 {
			maxOut = c.AmountOutRaw
		}
	}
	maxOutF := bigToFloat(maxOut)

	best := 0
	for i := range candidates {
		c := &candidates[i]

		outputScore := 0.0
		if maxOutF > 0 {
			outputScore = bigToFloat(c.AmountOutRaw) / maxOutF
		}

		c.CombinedScore = weightOutput*outputScore +
			weightLiquidity*c.LiquidityScore +
			weightImpact*(1-c.PriceImpactPercent/100) +
			weightFee*(1-float64(c.Pool.Fee)/10000)

		if c.CombinedScore > candidates[best].CombinedScore {
			best = i
		}
	}

	return candidates[best], nil
}

func bigToFloat(x *big.Int) float64 {
	if x == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(x).Float64()
	return f
}
