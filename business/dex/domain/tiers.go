package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// TradeSizeCategory classifies a trade by its human-unit input amount.
// It only chooses the fee-tier probe order; it never changes quote math.
type TradeSizeCategory string

const (
	TradeSizeMicro  TradeSizeCategory = "micro"  // < 10
	TradeSizeSmall  TradeSizeCategory = "small"  // < 100
	TradeSizeMedium TradeSizeCategory = "medium" // < 1000
	TradeSizeLarge  TradeSizeCategory = "large"  // < 10000
	TradeSizeWhale  TradeSizeCategory = "whale"  // >= 10000
)

var tradeSizeBounds = []struct {
	limit    decimal.Decimal
	category TradeSizeCategory
}{
	{decimal.NewFromInt(10), TradeSizeMicro},
	{decimal.NewFromInt(100), TradeSizeSmall},
	{decimal.NewFromInt(1000), TradeSizeMedium},
	{decimal.NewFromInt(10000), TradeSizeLarge},
}

// Probe orderings are hand-tuned per size class: small trades probe
// low-fee tiers first, large trades probe high-fee tiers first where
// the deepest liquidity tends to concentrate. Every tier is probed
// eventually, so the ordering only affects tie-breaks.
var tierOrderings = map[TradeSizeCategory][]FeeTier{
	TradeSizeMicro:  {FeeTier001, FeeTier005, FeeTier030, FeeTier100},
	TradeSizeSmall:  {FeeTier005, FeeTier001, FeeTier030, FeeTier100},
	TradeSizeMedium: {FeeTier005, FeeTier030, FeeTier001, FeeTier100},
	TradeSizeLarge:  {FeeTier030, FeeTier005, FeeTier100, FeeTier001},
	TradeSizeWhale:  {FeeTier100, FeeTier030, FeeTier005, FeeTier001},
}

// ClassifyTradeSize buckets a human-unit amount into a size category.
func ClassifyTradeSize(amountInHuman decimal.Decimal) TradeSizeCategory {
	for _, b := range tradeSizeBounds {
		if amountInHuman.LessThan(b.limit) {
			return b.category
		}
	}
	return TradeSizeWhale
}

// OrderedTiers returns the probe ordering for a size category.
// The returned slice is a copy the caller may reorder.
func OrderedTiers(category TradeSizeCategory) []FeeTier {
	ordering, ok := tierOrderings[category]
	if !ok {
		ordering = tierOrderings[TradeSizeMedium]
	}

	out := make([]FeeTier, len(ordering))
	copy(out, ordering)
	return out
}

// OrderedTiersForAmount classifies a raw amount by its human value and
// returns the matching probe ordering.
func OrderedTiersForAmount(amountInRaw *big.Int, decimals uint8) []FeeTier {
	human := decimal.NewFromBigInt(amountInRaw, -int32(decimals))
	return OrderedTiers(ClassifyTradeSize(human))
}
