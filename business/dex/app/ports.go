// Package app contains application services and port definitions for the dex context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tamago-labs/kaia-mcp/business/dex/domain"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
)

// PoolReader reads DragonSwap pool state. Every read hits the chain:
// pool state changes each block and is never served from a cache.
type PoolReader interface {
	// GetPoolState reads the pool for (tokenA, tokenB) at one fee tier.
	// Returns a NOT_FOUND error when the factory reports no pool or the
	// pool's state cannot be read.
	GetPoolState(ctx context.Context, tokenA, tokenB common.Address, fee domain.FeeTier) (*domain.PoolState, error)

	// AllPoolStates reads every existing pool for the pair across the
	// configured fee tiers. Tiers without a pool are omitted.
	AllPoolStates(ctx context.Context, tokenA, tokenB common.Address) ([]*domain.PoolState, error)
}

// ExactInputSingleParams are the arguments for a router exactInputSingle call.
type ExactInputSingleParams struct {
	TokenIn          common.Address
	TokenOut         common.Address
	Fee              domain.FeeTier
	Recipient        common.Address
	Deadline         *big.Int
	AmountIn         *big.Int
	AmountOutMinimum *big.Int
}

// SwapRouter builds calldata for the DragonSwap router.
type SwapRouter interface {
	// Address returns the router contract address (the allowance spender).
	Address() common.Address

	// ExactInputSingle encodes an exactInputSingle call.
	ExactInputSingle(params ExactInputSingleParams) ([]byte, error)
}

// TokenResolver maps a user-supplied symbol or 0x address to a typed asset.
type TokenResolver interface {
	Resolve(ctx context.Context, symbolOrAddress string, decimalsHint int) (*asset.Asset, error)
}

// Signer is the wallet collaborator for the swap write path.
type Signer interface {
	// Address returns the signing account address.
	Address() common.Address

	// IsReadOnly reports whether no private key is configured.
	IsReadOnly() bool

	// EnsureAllowance checks the ERC-20 allowance for spender and submits
	// an approval when it is insufficient, waiting for the receipt.
	// Returns the approval tx hash, or the zero hash when none was needed.
	EnsureAllowance(ctx context.Context, token, spender common.Address, amount *big.Int) (common.Hash, error)

	// SubmitAndConfirm signs, broadcasts, and waits for a contract call.
	SubmitAndConfirm(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error)
}
