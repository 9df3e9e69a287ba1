// Package pricing implements the pricing bounded context for USD token prices.
package pricing

import (
	"context"

	"github.com/tamago-labs/kaia-mcp/business/pricing/app"
	pricingDI "github.com/tamago-labs/kaia-mcp/business/pricing/di"
	"github.com/tamago-labs/kaia-mcp/business/pricing/infra/coingecko"
	"github.com/tamago-labs/kaia-mcp/internal/config"
	"github.com/tamago-labs/kaia-mcp/internal/di"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
	"github.com/tamago-labs/kaia-mcp/internal/monolith"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register PriceProvider (CoinGecko) - private dependency
	di.RegisterToken(c, pricingDI.PriceProvider, func(sr di.ServiceRegistry) app.PriceProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		provider, err := coingecko.NewClient(cfg.PriceFeed, log)
		if err != nil {
			panic("failed to create coingecko client: " + err.Error())
		}
		return provider
	})

	// Register PriceService (public - exposed to other modules)
	di.RegisterToken(c, pricingDI.PriceService, func(sr di.ServiceRegistry) *app.PriceService {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		provider := pricingDI.GetPriceProvider(sr)
		return app.NewPriceService(provider, cfg.PriceFeed, log)
	})

	return nil
}

// Startup initializes the pricing module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	svc := pricingDI.GetPriceService(mono.Services())

	mono.Logger().Info(ctx, "pricing module started",
		"base_url", mono.Config().PriceFeed.BaseURL,
		"symbols", len(svc.Symbols()),
	)
	return nil
}
