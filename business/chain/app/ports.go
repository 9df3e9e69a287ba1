// Package app contains application services and port definitions for the chain context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tamago-labs/kaia-mcp/business/chain/domain"
)

// ChainReader defines the interface for reading Kaia contract and account state.
type ChainReader interface {
	// Call executes a read-only contract call and returns the raw return data.
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)

	// Multicall executes a batch of calls atomically through Multicall3 so
	// every result reflects the same block.
	Multicall(ctx context.Context, calls []domain.Call) ([]domain.CallResult, error)

	// NativeBalance retrieves the KAIA balance of an address in kei.
	NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error)

	// BlockNumber retrieves the latest block number.
	BlockNumber(ctx context.Context) (uint64, error)
}

// GasOracle defines the interface for gas price information.
type GasOracle interface {
	// GetGasPrice retrieves the current gas price.
	GetGasPrice(ctx context.Context) (*domain.GasPrice, error)

	// EstimateGas estimates the gas needed for a transaction.
	EstimateGas(ctx context.Context, data []byte, to string) (uint64, error)

	// GetGasEstimate returns a full cost estimate for a known gas limit.
	GetGasEstimate(ctx context.Context, gasLimit uint64) (*domain.GasEstimate, error)
}
