package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/tamago-labs/kaia-mcp/internal/asset"
)

// SwapQuote is the computed result of a quote request.
//
// AmountOut is the expected output at the pool's current price;
// AmountOutMinimum is the slippage-adjusted floor a swap transaction
// will accept. AmountOutMinimum <= AmountOut always holds.
type SwapQuote struct {
	TokenIn            *asset.Asset
	TokenOut           *asset.Asset
	AmountIn           asset.Amount
	AmountOut          asset.Amount
	AmountOutMinimum   asset.Amount
	FeeTierUsed        FeeTier
	PoolAddress        common.Address
	PriceImpactPercent float64
	LiquidityScore     float64
	SlippageBps        int64

	// ExecutionPrice is the human-readable tokenOut/tokenIn rate implied
	// by the quote. Display only.
	ExecutionPrice decimal.Decimal
}
