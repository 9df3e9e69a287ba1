package dragonswap

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/tamago-labs/kaia-mcp/business/dex/app"
	"github.com/tamago-labs/kaia-mcp/internal/config"
)

// Ensure Router implements the app port.
var _ app.SwapRouter = (*Router)(nil)

// Router encodes calls for the DragonSwap V3 swap router. It builds
// calldata only; signing and submission belong to the wallet.
type Router struct {
	address   common.Address
	routerABI abi.ABI
}

// NewRouter creates a Router for the configured router contract.
func NewRouter(cfg config.DragonSwapConfig) (*Router, error) {
	routerABI, err := abi.JSON(strings.NewReader(RouterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	return &Router{
		address:   cfg.RouterAddressHex(),
		routerABI: routerABI,
	}, nil
}

// Address returns the router contract address.
func (r *Router) Address() common.Address {
	return r.address
}

// ExactInputSingle encodes an exactInputSingle call. The price limit is
// left at zero; the minimum-out bound is the only slippage protection.
func (r *Router) ExactInputSingle(params app.ExactInputSingleParams) ([]byte, error) {
	callData, err := r.routerABI.Pack("exactInputSingle", exactInputSingleParams{
		TokenIn:           params.TokenIn,
		TokenOut:          params.TokenOut,
		Fee:               big.NewInt(int64(params.Fee)),
		Recipient:         params.Recipient,
		Deadline:          params.Deadline,
		AmountIn:          params.AmountIn,
		AmountOutMinimum:  params.AmountOutMinimum,
		SqrtPriceLimitX96: big.NewInt(0),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode exactInputSingle: %w", err)
	}

	return callData, nil
}
