package domain

import (
	"fmt"
	"math/big"

	"github.com/tamago-labs/kaia-mcp/internal/apperror"
)

const bpsDenominator = 10000

// ValidateSlippageBps checks a slippage tolerance is in [0, 10000).
// 10000 or more would demand a non-positive minimum output.
func ValidateSlippageBps(slippageBps int64) error {
	if slippageBps < 0 || slippageBps >= bpsDenominator {
		return apperror.New(apperror.CodeInvalidSlippage,
			apperror.WithContext(fmt.Sprintf("slippage %d bps outside [0, 10000)", slippageBps)))
	}
	return nil
}

// ApplyMinimumOut converts an expected output into the minimum acceptable
// output for a slippage tolerance in basis points:
//
//	minOut = floor(amountOutRaw * (10000 - slippageBps) / 10000)
func ApplyMinimumOut(amountOutRaw *big.Int, slippageBps int64) (*big.Int, error) {
	if err := ValidateSlippageBps(slippageBps); err != nil {
		return nil, err
	}

	min := new(big.Int).Mul(amountOutRaw, big.NewInt(bpsDenominator-slippageBps))
	min.Quo(min, big.NewInt(bpsDenominator))
	return min, nil
}
