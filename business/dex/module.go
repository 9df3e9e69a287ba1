// Package dex implements the dex bounded context for DragonSwap quotes and swaps.
package dex

import (
	"context"
	"fmt"

	chainDI "github.com/tamago-labs/kaia-mcp/business/chain/di"
	"github.com/tamago-labs/kaia-mcp/business/dex/app"
	dexDI "github.com/tamago-labs/kaia-mcp/business/dex/di"
	"github.com/tamago-labs/kaia-mcp/business/dex/infra/dragonswap"
	walletDI "github.com/tamago-labs/kaia-mcp/business/wallet/di"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
	"github.com/tamago-labs/kaia-mcp/internal/config"
	"github.com/tamago-labs/kaia-mcp/internal/di"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
	"github.com/tamago-labs/kaia-mcp/internal/monolith"
)

// Module implements the dex bounded context.
type Module struct{}

// RegisterServices registers all dex services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register PoolReader (private) - reads pool state through the chain context
	di.RegisterToken(c, dexDI.PoolReader, func(sr di.ServiceRegistry) app.PoolReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		reader, err := dragonswap.NewPoolReader(chainDI.GetChainReader(sr), cfg.DragonSwap, log)
		if err != nil {
			panic("failed to create pool reader: " + err.Error())
		}
		return reader
	})

	// Register SwapRouter (private) - calldata encoding only
	di.RegisterToken(c, dexDI.SwapRouter, func(sr di.ServiceRegistry) app.SwapRouter {
		cfg := sr.Get("config").(*config.Config)

		router, err := dragonswap.NewRouter(cfg.DragonSwap)
		if err != nil {
			panic("failed to create swap router: " + err.Error())
		}
		return router
	})

	// Register QuoteService (public - backs the quote and pool listing tools)
	di.RegisterToken(c, dexDI.QuoteService, func(sr di.ServiceRegistry) *app.QuoteService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		wkaia, ok := registry.GetBySymbolAndChain("WKAIA", cfg.Kaia.ChainID)
		if !ok {
			panic(fmt.Sprintf("WKAIA is not registered for chain %d", cfg.Kaia.ChainID))
		}

		return app.NewQuoteService(
			dexDI.GetPoolReader(sr),
			chainDI.GetTokenResolver(sr),
			wkaia.Address(),
			int64(cfg.DragonSwap.DefaultSlippageBps),
			log,
		)
	})

	// Register SwapExecutor (public - backs the execute_swap tool)
	di.RegisterToken(c, dexDI.SwapExecutor, func(sr di.ServiceRegistry) *app.SwapExecutor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewSwapExecutor(
			dexDI.GetQuoteService(sr),
			dexDI.GetSwapRouter(sr),
			walletDI.GetWalletService(sr),
			cfg.DragonSwap.DeadlineMinutes,
			log,
		)
	})

	return nil
}

// Startup initializes the dex module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	// Resolve eagerly so wiring errors surface at startup, not first use
	dexDI.GetQuoteService(mono.Services())
	dexDI.GetSwapExecutor(mono.Services())

	log.Info(ctx, "dex module started",
		"factory", mono.Config().DragonSwap.FactoryAddress,
		"router", mono.Config().DragonSwap.RouterAddress,
		"fee_tiers", mono.Config().DragonSwap.FeeTiers,
	)
	return nil
}
