// Package di contains dependency injection tokens for the chain context.
package di

import (
	"github.com/tamago-labs/kaia-mcp/business/chain/app"
	"github.com/tamago-labs/kaia-mcp/internal/di"
)

// Public service tokens - exposed to other modules
var (
	ChainReader   = di.NewToken[app.ChainReader]("chain.ChainReader")
	GasOracle     = di.NewToken[app.GasOracle]("chain.GasOracle")
	ChainService  = di.NewToken[*app.ChainService]("chain.ChainService")
	TokenResolver = di.NewToken[*app.TokenResolver]("chain.TokenResolver")
)

// Helper functions for type-safe access
func GetChainReader(c di.ServiceRegistry) app.ChainReader {
	return di.GetToken(c, ChainReader)
}

func GetGasOracle(c di.ServiceRegistry) app.GasOracle {
	return di.GetToken(c, GasOracle)
}

func GetChainService(c di.ServiceRegistry) *app.ChainService {
	return di.GetToken(c, ChainService)
}

func GetTokenResolver(c di.ServiceRegistry) *app.TokenResolver {
	return di.GetToken(c, TokenResolver)
}
