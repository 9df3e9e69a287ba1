// Package chain implements the chain bounded context for Kaia network access.
package chain

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/tamago-labs/kaia-mcp/business/chain/app"
	chainDI "github.com/tamago-labs/kaia-mcp/business/chain/di"
	"github.com/tamago-labs/kaia-mcp/business/chain/infra/kaia"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
	"github.com/tamago-labs/kaia-mcp/internal/config"
	"github.com/tamago-labs/kaia-mcp/internal/di"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
	"github.com/tamago-labs/kaia-mcp/internal/monolith"
)

// Module implements the chain bounded context.
type Module struct{}

// RegisterServices registers all chain services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register ChainReader (public - every other context reads through it)
	di.RegisterToken(c, chainDI.ChainReader, func(sr di.ServiceRegistry) app.ChainReader {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclient.Client)

		readerCfg := kaia.ReaderConfig{
			MulticallAddress:  cfg.Kaia.MulticallAddressHex(),
			RequestsPerMinute: cfg.Kaia.RequestsPerMinute,
		}
		reader, err := kaia.NewReader(client, readerCfg, log)
		if err != nil {
			panic("failed to create chain reader: " + err.Error())
		}
		return reader
	})

	// Register GasOracle (public - wallet context prices transactions with it)
	di.RegisterToken(c, chainDI.GasOracle, func(sr di.ServiceRegistry) app.GasOracle {
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclient.Client)

		oracle, err := kaia.NewGasOracle(client, kaia.DefaultGasOracleConfig(), log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		return oracle
	})

	// Register ChainService (public - backs the network_info tool)
	di.RegisterToken(c, chainDI.ChainService, func(sr di.ServiceRegistry) *app.ChainService {
		cfg := sr.Get("config").(*config.Config)
		reader := chainDI.GetChainReader(sr)
		oracle := chainDI.GetGasOracle(sr)
		return app.NewChainService(cfg.Kaia.ChainID, reader, oracle)
	})

	// Register TokenResolver (public - symbol/address resolution for tools)
	di.RegisterToken(c, chainDI.TokenResolver, func(sr di.ServiceRegistry) *app.TokenResolver {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		metadata, err := kaia.NewTokenMetadata(chainDI.GetChainReader(sr), log)
		if err != nil {
			panic("failed to create token metadata reader: " + err.Error())
		}
		return app.NewTokenResolver(cfg.Kaia.ChainID, registry, metadata, log)
	})

	return nil
}

// Startup initializes the chain module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	// Resolve eagerly so wiring errors surface at startup, not first use
	chainDI.GetChainReader(mono.Services())
	chainDI.GetGasOracle(mono.Services())

	log.Info(ctx, "chain module started", "chain_id", mono.Config().Kaia.ChainID)
	return nil
}
