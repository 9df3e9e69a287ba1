// Package di contains dependency injection tokens for the lending context.
package di

import (
	"github.com/tamago-labs/kaia-mcp/business/lending/app"
	"github.com/tamago-labs/kaia-mcp/internal/di"
)

// Public service tokens - exposed to other modules
var (
	LendingService = di.NewToken[*app.Service]("lending.LendingService")
)

// Private dependency tokens - internal to lending module
var (
	MarketReader = di.NewToken[app.MarketReader]("lending:marketReader")
	CTokenCodec  = di.NewToken[app.CTokenCodec]("lending:cTokenCodec")
)

// Helper functions for type-safe access
func GetLendingService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, LendingService)
}

func GetMarketReader(c di.ServiceRegistry) app.MarketReader {
	return di.GetToken(c, MarketReader)
}

func GetCTokenCodec(c di.ServiceRegistry) app.CTokenCodec {
	return di.GetToken(c, CTokenCodec)
}
