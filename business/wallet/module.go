// Package wallet implements the wallet bounded context for account state and signing.
package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	chainDI "github.com/tamago-labs/kaia-mcp/business/chain/di"
	"github.com/tamago-labs/kaia-mcp/business/wallet/app"
	walletDI "github.com/tamago-labs/kaia-mcp/business/wallet/di"
	"github.com/tamago-labs/kaia-mcp/business/wallet/infra/erc20"
	"github.com/tamago-labs/kaia-mcp/business/wallet/infra/signer"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
	"github.com/tamago-labs/kaia-mcp/internal/config"
	"github.com/tamago-labs/kaia-mcp/internal/di"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
	"github.com/tamago-labs/kaia-mcp/internal/monolith"
)

// Module implements the wallet bounded context.
type Module struct{}

// RegisterServices registers all wallet services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register TransactionSigner (private) - key handling and submission
	di.RegisterToken(c, walletDI.TransactionSigner, func(sr di.ServiceRegistry) app.TransactionSigner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*ethclient.Client)

		signerCfg := signer.SignerConfig{
			ChainID:        cfg.Kaia.ChainID,
			PrivateKey:     cfg.Wallet.PrivateKey,
			ReceiptTimeout: cfg.Wallet.ReceiptTimeout,
			GasLimitMargin: cfg.Wallet.GasLimitMargin,
		}
		s, err := signer.NewSigner(client, chainDI.GetGasOracle(sr), signerCfg, log)
		if err != nil {
			panic("failed to create transaction signer: " + err.Error())
		}
		return s
	})

	// Register ERC20 (private) - token reads through the chain reader
	di.RegisterToken(c, walletDI.ERC20, func(sr di.ServiceRegistry) app.ERC20 {
		log := sr.Get("logger").(logger.LoggerInterface)

		caller, err := erc20.NewCaller(chainDI.GetChainReader(sr), log)
		if err != nil {
			panic("failed to create ERC-20 caller: " + err.Error())
		}
		return caller
	})

	// Register WalletService (public - other contexts submit through it)
	di.RegisterToken(c, walletDI.WalletService, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		return app.NewService(
			cfg.Kaia.ChainID,
			walletDI.GetTransactionSigner(sr),
			chainDI.GetChainReader(sr),
			walletDI.GetERC20(sr),
			registry,
			chainDI.GetTokenResolver(sr),
			log,
		)
	})

	return nil
}

// Startup initializes the wallet module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	svc := walletDI.GetWalletService(mono.Services())
	if svc.IsReadOnly() {
		log.Warn(ctx, "wallet module started in read-only mode; transaction tools are disabled")
		return nil
	}

	log.Info(ctx, "wallet module started", "address", svc.Address().Hex())
	return nil
}
