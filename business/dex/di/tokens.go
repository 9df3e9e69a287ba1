// Package di contains dependency injection tokens for the dex context.
package di

import (
	"github.com/tamago-labs/kaia-mcp/business/dex/app"
	"github.com/tamago-labs/kaia-mcp/internal/di"
)

// Public service tokens - exposed to other modules
var (
	QuoteService = di.NewToken[*app.QuoteService]("dex.QuoteService")
	SwapExecutor = di.NewToken[*app.SwapExecutor]("dex.SwapExecutor")
)

// Private dependency tokens - internal to dex module
var (
	PoolReader = di.NewToken[app.PoolReader]("dex:poolReader")
	SwapRouter = di.NewToken[app.SwapRouter]("dex:swapRouter")
)

// Helper functions for type-safe access
func GetQuoteService(c di.ServiceRegistry) *app.QuoteService {
	return di.GetToken(c, QuoteService)
}

func GetSwapExecutor(c di.ServiceRegistry) *app.SwapExecutor {
	return di.GetToken(c, SwapExecutor)
}

func GetPoolReader(c di.ServiceRegistry) app.PoolReader {
	return di.GetToken(c, PoolReader)
}

func GetSwapRouter(c di.ServiceRegistry) app.SwapRouter {
	return di.GetToken(c, SwapRouter)
}
