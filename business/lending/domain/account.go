package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/tamago-labs/kaia-mcp/internal/asset"
)

// AccountSnapshot is one market's view of an account, straight from
// the cToken's getAccountSnapshot.
type AccountSnapshot struct {
	Market        MarketRef
	CTokenBalance *big.Int
	BorrowBalance *big.Int // underlying units, stored balance
	ExchangeRate  *big.Int
}

// SupplyBalanceUnderlying returns the supplied amount in underlying units.
func (s *AccountSnapshot) SupplyBalanceUnderlying() *big.Int {
	return UnderlyingFromCTokens(s.CTokenBalance, s.ExchangeRate)
}

// AccountLiquidity is the comptroller's account-level solvency view.
// Both values are 1e18-scaled USD mantissas; at most one is nonzero.
type AccountLiquidity struct {
	Liquidity *big.Int // borrowable headroom
	Shortfall *big.Int // amount underwater, eligible for liquidation
}

// LiquidityUSD returns the borrowable headroom in USD.
func (l *AccountLiquidity) LiquidityUSD() decimal.Decimal {
	return mantissaToDecimal(l.Liquidity)
}

// ShortfallUSD returns the underwater amount in USD.
func (l *AccountLiquidity) ShortfallUSD() decimal.Decimal {
	return mantissaToDecimal(l.Shortfall)
}

// PositionEntry is an account's holdings in one market.
type PositionEntry struct {
	Market      MarketRef
	Supplied    asset.Amount
	Borrowed    asset.Amount
	SuppliedUSD decimal.Decimal
	BorrowedUSD decimal.Decimal

	// Collateral reports whether the account entered this market, so
	// the supply counts toward borrowing capacity.
	Collateral bool
}

// Position is an account's full lending protocol position.
type Position struct {
	Address common.Address
	Entries []PositionEntry

	LiquidityUSD decimal.Decimal
	ShortfallUSD decimal.Decimal

	TotalSuppliedUSD decimal.Decimal
	TotalBorrowedUSD decimal.Decimal

	// HealthFactor is collateral-weighted supply over borrows. Valid
	// only when HasBorrows; below 1.0 the account can be liquidated.
	HealthFactor float64
	HasBorrows   bool
}

func mantissaToDecimal(mantissa *big.Int) decimal.Decimal {
	if mantissa == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(mantissa, -18)
}
