package tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (h *Handler) registerPriceTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("get_token_prices",
		mcp.WithDescription("Get USD token prices from the price feed. Live prices are cached "+
			"briefly; when the feed is unavailable a cached or static fallback price is returned "+
			"and marked stale."),
		mcp.WithString("symbols",
			mcp.Description("Token symbols to price, comma-separated (e.g. \"KAIA,USDT\"). "+
				"Defaults to every configured token."),
		),
	), h.handleTokenPrices)
}

func (h *Handler) handleTokenPrices(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prices, err := h.prices.TokenPrices(ctx, splitList(req.GetString("symbols", "")))
	if err != nil {
		return errResult(err), nil
	}

	rows := make([]map[string]any, 0, len(prices))
	for _, p := range prices {
		rows = append(rows, map[string]any{
			"symbol":    p.Symbol,
			"priceUsd":  p.PriceUSD.String(),
			"source":    string(p.Source),
			"stale":     p.Stale,
			"fetchedAt": p.FetchedAt.UTC().Format(time.RFC3339),
		})
	}

	return okResult(map[string]any{
		"prices": rows,
		"count":  len(rows),
	}), nil
}
