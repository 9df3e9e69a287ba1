// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/tamago-labs/kaia-mcp/business/pricing/app"
	"github.com/tamago-labs/kaia-mcp/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PriceService = di.NewToken[*app.PriceService]("pricing.PriceService")
)

// Private dependency tokens - internal to pricing module
var (
	PriceProvider = di.NewToken[app.PriceProvider]("pricing:priceProvider")
)

// Helper functions for type-safe access
func GetPriceService(c di.ServiceRegistry) *app.PriceService {
	return di.GetToken(c, PriceService)
}

func GetPriceProvider(c di.ServiceRegistry) app.PriceProvider {
	return di.GetToken(c, PriceProvider)
}
