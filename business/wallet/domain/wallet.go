// Package domain contains wallet domain types.
package domain

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/tamago-labs/kaia-mcp/internal/asset"
)

// Status is a snapshot of the configured wallet account.
// In read-only mode no private key is loaded: Address is the zero
// address and NativeBalance is zero.
type Status struct {
	Address       common.Address
	ReadOnly      bool
	NativeBalance asset.Amount
}
