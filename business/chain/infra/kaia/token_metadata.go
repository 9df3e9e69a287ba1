package kaia

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/tamago-labs/kaia-mcp/business/chain/app"
	"github.com/tamago-labs/kaia-mcp/business/chain/domain"
	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
)

// erc20MetadataABI covers the three read-only metadata functions.
const erc20MetadataABI = `[
	{"inputs":[],"name":"symbol","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"name","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

// Ensure TokenMetadata implements the port.
var _ app.TokenMetadataReader = (*TokenMetadata)(nil)

// TokenMetadata reads ERC-20 metadata in a single multicall batch.
type TokenMetadata struct {
	reader app.ChainReader
	abi    abi.ABI
	logger logger.LoggerInterface
}

// NewTokenMetadata creates a TokenMetadata reader.
func NewTokenMetadata(reader app.ChainReader, log logger.LoggerInterface) (*TokenMetadata, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20MetadataABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 metadata ABI: %w", err)
	}
	return &TokenMetadata{reader: reader, abi: parsed, logger: log}, nil
}

// ReadTokenMetadata fetches symbol, name, and decimals for a token.
// The three reads go out as one batch so they reflect the same block.
func (t *TokenMetadata) ReadTokenMetadata(ctx context.Context, addr common.Address) (string, string, uint8, error) {
	calls := make([]domain.Call, 0, 3)
	for _, method := range []string{"symbol", "name", "decimals"} {
		data, err := t.abi.Pack(method)
		if err != nil {
			return "", "", 0, apperror.New(apperror.CodeInternalError,
				apperror.WithCause(err),
				apperror.WithContext("pack "+method))
		}
		calls = append(calls, domain.Call{Target: addr, CallData: data})
	}

	results, err := t.reader.Multicall(ctx, calls)
	if err != nil {
		return "", "", 0, err
	}

	for i, r := range results {
		if !r.Success {
			return "", "", 0, apperror.New(apperror.CodeContractCallFailed,
				apperror.WithContext(fmt.Sprintf("token %s does not answer %s()", addr.Hex(), []string{"symbol", "name", "decimals"}[i])))
		}
	}

	symbol, err := t.unpackString("symbol", results[0].ReturnData)
	if err != nil {
		return "", "", 0, err
	}
	name, err := t.unpackString("name", results[1].ReturnData)
	if err != nil {
		return "", "", 0, err
	}

	var decimals uint8
	if err := t.abi.UnpackIntoInterface(&decimals, "decimals", results[2].ReturnData); err != nil {
		return "", "", 0, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("decode decimals of %s", addr.Hex())))
	}

	return symbol, name, decimals, nil
}

func (t *TokenMetadata) unpackString(method string, data []byte) (string, error) {
	var s string
	if err := t.abi.UnpackIntoInterface(&s, method, data); err != nil {
		return "", apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("decode "+method))
	}
	return s, nil
}
