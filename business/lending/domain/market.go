// Package domain contains KiloLend lending protocol domain types and math.
package domain

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tamago-labs/kaia-mcp/internal/asset"
)

// mantissaOne is the 1e18 fixed-point scale used by cToken rates and
// comptroller collateral factors.
var mantissaOne = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// daysPerYear matches the protocol's APY compounding convention.
const daysPerYear = 365

// MarketRef identifies one lending market: the cToken contract and its
// underlying asset. IsNative marks the KAIA market whose cToken is
// payable and has no underlying ERC-20.
type MarketRef struct {
	Symbol   string
	CToken   common.Address
	Under    *asset.Asset
	IsNative bool
}

// Market is the on-chain state of one lending market. All big.Int
// fields are raw protocol values; rates and factors are 1e18-scaled
// mantissas.
type Market struct {
	Ref MarketRef

	// ExchangeRate converts cTokens to underlying, scaled by
	// 1e(18 + underlyingDecimals - 8).
	ExchangeRate *big.Int

	SupplyRatePerBlock *big.Int
	BorrowRatePerBlock *big.Int

	Cash          *big.Int // underlying held by the cToken
	TotalBorrows  *big.Int
	TotalReserves *big.Int
	TotalSupply   *big.Int // cTokens outstanding

	// CollateralFactor is the comptroller's 1e18-scaled factor; zero
	// means the market cannot be used as collateral.
	CollateralFactor *big.Int
}

// SupplyAPY returns the compounded yearly supply rate in percent.
func (m *Market) SupplyAPY(blocksPerYear int64) float64 {
	return APY(m.SupplyRatePerBlock, blocksPerYear)
}

// BorrowAPY returns the compounded yearly borrow rate in percent.
func (m *Market) BorrowAPY(blocksPerYear int64) float64 {
	return APY(m.BorrowRatePerBlock, blocksPerYear)
}

// Utilization returns borrows as a percentage of lendable liquidity.
func (m *Market) Utilization() float64 {
	return Utilization(m.Cash, m.TotalBorrows, m.TotalReserves)
}

// TotalUnderlying returns the market size in underlying units:
// cash + borrows - reserves.
func (m *Market) TotalUnderlying() *big.Int {
	total := new(big.Int).Add(m.Cash, m.TotalBorrows)
	return total.Sub(total, m.TotalReserves)
}

// APY compounds a per-block interest rate into a yearly percentage.
// Rates are 1e18-scaled per-block mantissas; compounding follows the
// protocol convention of daily periods over 365 days. The result is a
// display value, so float math is fine here.
func APY(ratePerBlock *big.Int, blocksPerYear int64) float64 {
	if ratePerBlock == nil || ratePerBlock.Sign() <= 0 || blocksPerYear <= 0 {
		return 0
	}

	rate := new(big.Float).SetInt(ratePerBlock)
	rate.Quo(rate, new(big.Float).SetInt(mantissaOne))
	perBlock, _ := rate.Float64()

	blocksPerDay := float64(blocksPerYear) / daysPerYear
	return (math.Pow(1+perBlock*blocksPerDay, daysPerYear) - 1) * 100
}

// Utilization returns borrows/(cash+borrows-reserves) in percent.
// Markets with nothing lendable report zero.
func Utilization(cash, borrows, reserves *big.Int) float64 {
	if borrows == nil || borrows.Sign() <= 0 {
		return 0
	}

	denom := new(big.Int).Add(cash, borrows)
	denom.Sub(denom, reserves)
	if denom.Sign() <= 0 {
		return 0
	}

	b := new(big.Float).SetInt(borrows)
	d := new(big.Float).SetInt(denom)
	ratio, _ := new(big.Float).Quo(b, d).Float64()
	return ratio * 100
}

// UnderlyingFromCTokens converts a cToken balance to underlying units
// using the market exchange rate, truncating toward zero.
func UnderlyingFromCTokens(cTokenBalance, exchangeRate *big.Int) *big.Int {
	if cTokenBalance == nil || exchangeRate == nil || cTokenBalance.Sign() <= 0 {
		return big.NewInt(0)
	}
	out := new(big.Int).Mul(cTokenBalance, exchangeRate)
	return out.Quo(out, mantissaOne)
}

// ScaleMantissa converts a 1e18-scaled mantissa to a float in [0, n].
// Used for collateral factors, which are display-and-weighting values.
func ScaleMantissa(mantissa *big.Int) float64 {
	if mantissa == nil || mantissa.Sign() <= 0 {
		return 0
	}
	v := new(big.Float).SetInt(mantissa)
	v.Quo(v, new(big.Float).SetInt(mantissaOne))
	out, _ := v.Float64()
	return out
}
