// Package erc20 implements ERC-20 balance, allowance and approval
// calls through the chain reader.
package erc20

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	chainapp "github.com/tamago-labs/kaia-mcp/business/chain/app"
	chaindomain "github.com/tamago-labs/kaia-mcp/business/chain/domain"
	"github.com/tamago-labs/kaia-mcp/business/wallet/app"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
)

// ERC20ABI covers the calls the wallet makes against tokens.
const ERC20ABI = `[
	{
		"inputs": [{"internalType": "address", "name": "account", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "owner", "type": "address"},
			{"internalType": "address", "name": "spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "address", "name": "spender", "type": "address"},
			{"internalType": "uint256", "name": "amount", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"internalType": "bool", "name": "", "type": "bool"}],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// Ensure Caller implements the app port.
var _ app.ERC20 = (*Caller)(nil)

// Caller reads ERC-20 state through the chain reader and encodes
// approval calldata. It holds no connection of its own.
type Caller struct {
	chain  chainapp.ChainReader
	abi    abi.ABI
	logger logger.LoggerInterface
}

// NewCaller creates an ERC-20 caller.
func NewCaller(chain chainapp.ChainReader, log logger.LoggerInterface) (*Caller, error) {
	parsedABI, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}

	return &Caller{
		chain:  chain,
		abi:    parsedABI,
		logger: log,
	}, nil
}

// BalanceOf reads one token balance.
func (c *Caller) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	callData, err := c.abi.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to encode balanceOf: %w", err)
	}

	ret, err := c.chain.Call(ctx, token, callData)
	if err != nil {
		return nil, err
	}

	var balance *big.Int
	if err := c.abi.UnpackIntoInterface(&balance, "balanceOf", ret); err != nil {
		return nil, fmt.Errorf("failed to decode balanceOf: %w", err)
	}
	return balance, nil
}

// BalancesOf reads many token balances in one multicall batch. The
// result is positionally aligned with tokens; a failed or undecodable
// balanceOf yields a nil entry.
func (c *Caller) BalancesOf(ctx context.Context, tokens []common.Address, owner common.Address) ([]*big.Int, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	callData, err := c.abi.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to encode balanceOf: %w", err)
	}

	calls := make([]chaindomain.Call, len(tokens))
	for i, token := range tokens {
		calls[i] = chaindomain.Call{Target: token, CallData: callData}
	}

	results, err := c.chain.Multicall(ctx, calls)
	if err != nil {
		return nil, err
	}
	if len(results) != len(tokens) {
		return nil, fmt.Errorf("balanceOf batch returned %d results, want %d", len(results), len(tokens))
	}

	balances := make([]*big.Int, len(tokens))
	for i, res := range results {
		if !res.Success {
			continue
		}
		var balance *big.Int
		if err := c.abi.UnpackIntoInterface(&balance, "balanceOf", res.ReturnData); err != nil {
			c.logger.Debug(ctx, "undecodable balanceOf result",
				"token", tokens[i].Hex(),
				"error", err.Error(),
			)
			continue
		}
		balances[i] = balance
	}

	return balances, nil
}

// Allowance reads the amount spender may transfer from owner.
func (c *Caller) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	callData, err := c.abi.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("failed to encode allowance: %w", err)
	}

	ret, err := c.chain.Call(ctx, token, callData)
	if err != nil {
		return nil, err
	}

	var allowance *big.Int
	if err := c.abi.UnpackIntoInterface(&allowance, "allowance", ret); err != nil {
		return nil, fmt.Errorf("failed to decode allowance: %w", err)
	}
	return allowance, nil
}

// ApproveCalldata encodes an approve(spender, amount) call.
func (c *Caller) ApproveCalldata(spender common.Address, amount *big.Int) ([]byte, error) {
	callData, err := c.abi.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to encode approve: %w", err)
	}
	return callData, nil
}
