// Package di contains dependency injection tokens for the wallet context.
package di

import (
	"github.com/tamago-labs/kaia-mcp/business/wallet/app"
	"github.com/tamago-labs/kaia-mcp/internal/di"
)

// Public service tokens - exposed to other modules
var (
	WalletService = di.NewToken[*app.Service]("wallet.WalletService")
)

// Private dependency tokens - internal to wallet module
var (
	TransactionSigner = di.NewToken[app.TransactionSigner]("wallet:transactionSigner")
	ERC20             = di.NewToken[app.ERC20]("wallet:erc20")
)

// Helper functions for type-safe access
func GetWalletService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, WalletService)
}

func GetTransactionSigner(c di.ServiceRegistry) app.TransactionSigner {
	return di.GetToken(c, TransactionSigner)
}

func GetERC20(c di.ServiceRegistry) app.ERC20 {
	return di.GetToken(c, ERC20)
}
