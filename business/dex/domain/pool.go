// Package domain contains the core domain types and quote math for the dex context.
package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// FeeTier is a DragonSwap V3 pool fee tier in hundredths of a bip.
type FeeTier int64

// Fee tiers deployed by DragonSwap V3.
const (
	FeeTier001 FeeTier = 100   // 0.01%
	FeeTier005 FeeTier = 500   // 0.05%
	FeeTier030 FeeTier = 3000  // 0.30%
	FeeTier100 FeeTier = 10000 // 1.00%
)

// Percent returns the fee as a percentage (e.g. 3000 -> 0.3).
func (f FeeTier) Percent() float64 {
	return float64(f) / 10000
}

// PoolState is an immutable snapshot of one fee-tier pool for an ordered
// token pair. token0 < token1 by address is a protocol invariant, and the
// pool's price is always expressed as token1 per token0.
//
// Pool state changes every block. A snapshot is read fresh for each quote
// request and must never be cached across requests.
type PoolState struct {
	PoolAddress  common.Address
	Token0       common.Address
	Token1       common.Address
	Fee          FeeTier
	Liquidity    *big.Int
	SqrtPriceX96 *big.Int
	Tick         int64
}

// HasLiquidity reports whether the pool has any in-range liquidity.
func (p *PoolState) HasLiquidity() bool {
	return p.Liquidity != nil && p.Liquidity.Sign() > 0
}

// Initialized reports whether the pool has a usable price. A freshly
// deployed pool reports sqrtPriceX96 == 0 until the first mint.
func (p *PoolState) Initialized() bool {
	return p.SqrtPriceX96 != nil && p.SqrtPriceX96.Sign() > 0
}

// Involves reports whether addr is one of the pool's two tokens.
func (p *PoolState) Involves(addr common.Address) bool {
	return addr == p.Token0 || addr == p.Token1
}
