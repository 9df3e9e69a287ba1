package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
	"github.com/tamago-labs/kaia-mcp/internal/cache"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
)

// TokenMetadataReader reads ERC-20 metadata for tokens outside the registry.
type TokenMetadataReader interface {
	ReadTokenMetadata(ctx context.Context, addr common.Address) (symbol, name string, decimals uint8, err error)
}

// TokenResolver turns a user-supplied token reference (symbol or 0x address)
// into a typed asset. Known symbols and addresses come from the registry;
// unknown addresses fall back to an on-chain metadata read, cached because
// token metadata is immutable in practice.
type TokenResolver struct {
	chainID  uint64
	registry *asset.Registry
	metadata TokenMetadataReader
	cache    *cache.Cache[common.Address, *asset.Asset]
	logger   logger.LoggerInterface
}

// NewTokenResolver creates a TokenResolver.
func NewTokenResolver(chainID uint64, registry *asset.Registry, metadata TokenMetadataReader, log logger.LoggerInterface) *TokenResolver {
	return &TokenResolver{
		chainID:  chainID,
		registry: registry,
		metadata: metadata,
		cache:    cache.New[common.Address, *asset.Asset](10 * time.Minute),
		logger:   log,
	}
}

// Resolve maps symbolOrAddress to an asset on the resolver's chain.
//
// Resolution order: registry by symbol, registry by address, cached
// metadata, on-chain metadata read. decimalsHint (0 = unset) is only
// consulted when an unknown address's metadata read fails; it lets a
// caller quote a token the chain cannot describe.
func (r *TokenResolver) Resolve(ctx context.Context, symbolOrAddress string, decimalsHint int) (*asset.Asset, error) {
	if symbolOrAddress == "" {
		return nil, apperror.New(apperror.CodeInvalidToken,
			apperror.WithContext("empty token reference"))
	}

	if a, ok := r.registry.GetBySymbolAndChain(symbolOrAddress, r.chainID); ok {
		return a, nil
	}

	if !common.IsHexAddress(symbolOrAddress) {
		return nil, apperror.New(apperror.CodeInvalidToken,
			apperror.WithContext(fmt.Sprintf("unknown symbol %q and not a hex address", symbolOrAddress)))
	}

	addr := common.HexToAddress(symbolOrAddress)
	if a, ok := r.registry.Get(asset.NewTokenAssetID(r.chainID, addr)); ok {
		return a, nil
	}

	if a, found := r.cache.Get(ctx, addr); found {
		return a, nil
	}

	symbol, name, decimals, err := r.metadata.ReadTokenMetadata(ctx, addr)
	if err != nil {
		if decimalsHint > 0 && decimalsHint <= 36 {
			r.logger.Warn(ctx, "token metadata read failed, using caller decimals",
				"address", addr.Hex(), "decimals", decimalsHint, "error", err)
			return asset.MustNewToken(r.chainID, addr, shortAddr(addr), shortAddr(addr), uint8(decimalsHint)), nil
		}
		return nil, apperror.New(apperror.CodeInvalidToken,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("token %s metadata unavailable", addr.Hex())))
	}

	a := asset.MustNewToken(r.chainID, addr, symbol, name, decimals)
	r.cache.Set(ctx, addr, a, time.Hour)

	r.logger.Debug(ctx, "resolved token from chain metadata",
		"address", addr.Hex(), "symbol", symbol, "decimals", decimals)

	return a, nil
}

// Close releases the resolver's cache.
func (r *TokenResolver) Close() error {
	r.cache.Close()
	return nil
}

func shortAddr(addr common.Address) string {
	h := addr.Hex()
	return h[:6] + ".." + h[len(h)-4:]
}
