// Package domain contains the core domain types for the chain context.
package domain

import (
	"math/big"
	"time"
)

// GasPrice represents a gas price reading from the Kaia network.
// Kaia denominates gas in kei (1 KAIA = 10^18 kei); ston is the
// gwei-equivalent display unit (1 ston = 10^9 kei).
type GasPrice struct {
	Kei       *big.Int
	Ston      float64
	Timestamp time.Time
}

// NewGasPrice creates a GasPrice from a kei value.
func NewGasPrice(kei *big.Int) *GasPrice {
	ston := new(big.Float).Quo(
		new(big.Float).SetInt(kei),
		big.NewFloat(1e9),
	)
	stonFloat, _ := ston.Float64()

	return &GasPrice{
		Kei:       new(big.Int).Set(kei),
		Ston:      stonFloat,
		Timestamp: time.Now(),
	}
}

// GasEstimate represents the estimated cost of a transaction.
type GasEstimate struct {
	GasLimit      uint64
	GasPrice      *GasPrice
	TotalCostKei  *big.Int
	TotalCostKAIA float64
}

// NewGasEstimate calculates the total cost for a gas limit at a given price.
func NewGasEstimate(gasLimit uint64, price *GasPrice) *GasEstimate {
	totalKei := new(big.Int).Mul(
		new(big.Int).SetUint64(gasLimit),
		price.Kei,
	)

	totalKAIA := new(big.Float).Quo(
		new(big.Float).SetInt(totalKei),
		big.NewFloat(1e18),
	)
	kaiaFloat, _ := totalKAIA.Float64()

	return &GasEstimate{
		GasLimit:      gasLimit,
		GasPrice:      price,
		TotalCostKei:  totalKei,
		TotalCostKAIA: kaiaFloat,
	}
}
