package domain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/tamago-labs/kaia-mcp/internal/apperror"
)

// q192 = 2^192, the square of the Q96 fixed-point one.
var q192 = new(big.Int).Lsh(big.NewInt(1), 192)

// ComputeAmountOut computes the raw output amount for swapping amountInRaw
// of tokenIn through the pool at its current instantaneous price.
//
// The pool price token1/token0 in raw units is (sqrtPriceX96 / 2^96)^2.
// Working directly in raw units the decimal rescaling factors cancel, so:
//
//	token0 -> token1: out = floor(in * sqrtPriceX96^2 / 2^192)
//	token1 -> token0: out = floor(in * 2^192 / sqrtPriceX96^2)
//
// All arithmetic is arbitrary-precision integer math with a single final
// floor; no floating point touches an on-chain amount.
//
// This uses only the current tick's price and does not integrate across
// tick boundaries, so for trades large relative to in-range liquidity it
// overstates output. The selector's price-impact score compensates by
// penalizing such candidates.
func ComputeAmountOut(pool *PoolState, tokenIn common.Address, amountInRaw *big.Int) (*big.Int, error) {
	if amountInRaw == nil || amountInRaw.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContext("amount in must be positive"))
	}
	if !pool.HasLiquidity() {
		return nil, apperror.New(apperror.CodeNoLiquidity,
			apperror.WithContext(fmt.Sprintf("pool %s has zero liquidity", pool.PoolAddress.Hex())))
	}
	if !pool.Initialized() {
		return nil, apperror.New(apperror.CodeNoLiquidity,
			apperror.WithContext(fmt.Sprintf("pool %s price not initialized", pool.PoolAddress.Hex())))
	}

	priceX192 := new(big.Int).Mul(pool.SqrtPriceX96, pool.SqrtPriceX96)

	out := new(big.Int)
	switch tokenIn {
	case pool.Token0:
		out.Mul(amountInRaw, priceX192)
		out.Quo(out, q192)
	case pool.Token1:
		out.Mul(amountInRaw, q192)
		out.Quo(out, priceX192)
	default:
		return nil, apperror.New(apperror.CodeInvalidPair,
			apperror.WithContext(fmt.Sprintf("token %s is not part of pool %s", tokenIn.Hex(), pool.PoolAddress.Hex())))
	}

	return out, nil
}

// PriceToken1PerToken0 returns the pool's human-readable price of token1
// per token0, rescaled by the tokens' decimal difference. Display only;
// swap amounts never pass through this value.
func PriceToken1PerToken0(sqrtPriceX96 *big.Int, token0Decimals, token1Decimals uint8) decimal.Decimal {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() == 0 {
		return decimal.Zero
	}

	priceX192 := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	raw := decimal.NewFromBigInt(priceX192, 0).
		DivRound(decimal.NewFromBigInt(q192, 0), 24)

	return raw.Shift(int32(token0Decimals) - int32(token1Decimals))
}
