// Package lending implements the lending bounded context for the
// KiloLend money market.
package lending

import (
	"context"
	"fmt"

	chainDI "github.com/tamago-labs/kaia-mcp/business/chain/di"
	"github.com/tamago-labs/kaia-mcp/business/lending/app"
	lendingDI "github.com/tamago-labs/kaia-mcp/business/lending/di"
	"github.com/tamago-labs/kaia-mcp/business/lending/domain"
	"github.com/tamago-labs/kaia-mcp/business/lending/infra/kilolend"
	pricingDI "github.com/tamago-labs/kaia-mcp/business/pricing/di"
	walletDI "github.com/tamago-labs/kaia-mcp/business/wallet/di"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
	"github.com/tamago-labs/kaia-mcp/internal/config"
	"github.com/tamago-labs/kaia-mcp/internal/di"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
	"github.com/tamago-labs/kaia-mcp/internal/monolith"
)

// Module implements the lending bounded context.
type Module struct{}

// RegisterServices registers all lending services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register MarketReader (private) - reads market state through the chain context
	di.RegisterToken(c, lendingDI.MarketReader, func(sr di.ServiceRegistry) app.MarketReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		refs, err := buildMarketRefs(cfg, registry)
		if err != nil {
			panic("failed to build market refs: " + err.Error())
		}

		reader, err := kilolend.NewReader(
			chainDI.GetChainReader(sr),
			cfg.KiloLend.ComptrollerAddressHex(),
			refs,
			log,
		)
		if err != nil {
			panic("failed to create market reader: " + err.Error())
		}
		return reader
	})

	// Register CTokenCodec (private) - calldata encoding only
	di.RegisterToken(c, lendingDI.CTokenCodec, func(sr di.ServiceRegistry) app.CTokenCodec {
		codec, err := kilolend.NewCodec()
		if err != nil {
			panic("failed to create cToken codec: " + err.Error())
		}
		return codec
	})

	// Register LendingService (public - backs the market and position tools)
	di.RegisterToken(c, lendingDI.LendingService, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		refs, err := buildMarketRefs(cfg, registry)
		if err != nil {
			panic("failed to build market refs: " + err.Error())
		}

		return app.NewService(
			refs,
			cfg.KiloLend.BlocksPerYear,
			cfg.KiloLend.ComptrollerAddressHex(),
			lendingDI.GetMarketReader(sr),
			lendingDI.GetCTokenCodec(sr),
			walletDI.GetWalletService(sr),
			pricingDI.GetPriceService(sr),
			log,
		)
	})

	return nil
}

// Startup initializes the lending module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	// Resolve eagerly so wiring errors surface at startup, not first use
	svc := lendingDI.GetLendingService(mono.Services())

	symbols := make([]string, 0, len(svc.MarketRefs()))
	for _, ref := range svc.MarketRefs() {
		symbols = append(symbols, ref.Symbol)
	}

	log.Info(ctx, "lending module started",
		"comptroller", mono.Config().KiloLend.ComptrollerAddress,
		"markets", symbols,
	)
	return nil
}

// buildMarketRefs resolves the configured markets against the asset
// registry. Every ERC-20 underlying must be registered so its decimals
// are known.
func buildMarketRefs(cfg *config.Config, registry *asset.Registry) ([]domain.MarketRef, error) {
	chainID := cfg.Kaia.ChainID

	refs := make([]domain.MarketRef, 0, len(cfg.KiloLend.Markets))
	for _, mc := range cfg.KiloLend.Markets {
		var under *asset.Asset
		if mc.IsNative() {
			native, ok := registry.GetNative(chainID)
			if !ok {
				return nil, fmt.Errorf("market %s: no native asset registered for chain %d", mc.Symbol, chainID)
			}
			under = native
		} else {
			token, ok := registry.GetToken(chainID, mc.UnderlyingHex())
			if !ok {
				return nil, fmt.Errorf("market %s: underlying %s is not registered; add it to the token config", mc.Symbol, mc.Underlying)
			}
			under = token
		}

		refs = append(refs, domain.MarketRef{
			Symbol:   mc.Symbol,
			CToken:   mc.CTokenHex(),
			Under:    under,
			IsNative: mc.IsNative(),
		})
	}

	return refs, nil
}
