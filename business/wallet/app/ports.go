// Package app contains application services and port definitions for the wallet context.
package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tamago-labs/kaia-mcp/internal/asset"
)

// TransactionSigner signs and submits transactions for the configured
// account. Implementations serialize submissions so nonces stay ordered.
type TransactionSigner interface {
	// Address returns the signing account address, or the zero address
	// in read-only mode.
	Address() common.Address

	// IsReadOnly reports whether no private key is configured.
	IsReadOnly() bool

	// SubmitAndConfirm signs, broadcasts and waits for the receipt of a
	// contract call. A nil value means no native KAIA is attached.
	// Returns the transaction hash; a reverted receipt is an error.
	SubmitAndConfirm(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error)
}

// ERC20 reads token balances and allowances and encodes approvals.
type ERC20 interface {
	// BalanceOf reads one token balance.
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)

	// BalancesOf reads many token balances in one multicall batch.
	// The result is positionally aligned with tokens; an unreadable
	// token yields a nil entry instead of failing the batch.
	BalancesOf(ctx context.Context, tokens []common.Address, owner common.Address) ([]*big.Int, error)

	// Allowance reads the amount spender may transfer from owner.
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)

	// ApproveCalldata encodes an approve(spender, amount) call.
	ApproveCalldata(spender common.Address, amount *big.Int) ([]byte, error)
}

// TokenResolver maps a user-supplied symbol or 0x address to a typed asset.
type TokenResolver interface {
	Resolve(ctx context.Context, symbolOrAddress string, decimalsHint int) (*asset.Asset, error)
}
