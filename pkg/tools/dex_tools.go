package tools

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	dexapp "github.com/tamago-labs/kaia-mcp/business/dex/app"
	dexdomain "github.com/tamago-labs/kaia-mcp/business/dex/domain"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
)

func (h *Handler) registerDexTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("get_swap_quote",
		mcp.WithDescription("Quote a DragonSwap V3 exact-input swap from live pool state. "+
			"Probes every fee tier, selects the best pool by output amount, liquidity depth, "+
			"price impact and fee cost, and reports the slippage-adjusted minimum output. "+
			"Read-only; no transaction is sent."),
		mcp.WithString("tokenIn",
			mcp.Required(),
			mcp.Description("Token to sell: a known symbol (KAIA, WKAIA, USDT, ...) or a 0x address."),
		),
		mcp.WithString("tokenOut",
			mcp.Required(),
			mcp.Description("Token to buy: a known symbol or a 0x address."),
		),
		mcp.WithString("amountIn",
			mcp.Required(),
			mcp.Description("Amount of tokenIn to sell, in human units (e.g. \"1.5\")."),
		),
		mcp.WithNumber("amountInDecimals",
			mcp.Description("Decimals for an unknown tokenIn address. Usually resolved automatically."),
		),
		mcp.WithNumber("slippageBps",
			mcp.Description("Slippage tolerance in basis points (50 = 0.5%). Defaults to the configured tolerance."),
		),
	), h.handleSwapQuote)

	s.AddTool(mcp.NewTool("execute_swap",
		mcp.WithDescription("Execute a DragonSwap V3 exact-input swap. Recomputes a fresh quote, "+
			"approves the router when the allowance is too low, then submits exactInputSingle and "+
			"waits for the receipt. Requires a configured wallet."),
		mcp.WithString("tokenIn",
			mcp.Required(),
			mcp.Description("Token to sell: a known symbol or a 0x address."),
		),
		mcp.WithString("tokenOut",
			mcp.Required(),
			mcp.Description("Token to buy: a known symbol or a 0x address."),
		),
		mcp.WithString("amountIn",
			mcp.Required(),
			mcp.Description("Amount of tokenIn to sell, in human units."),
		),
		mcp.WithNumber("amountInDecimals",
			mcp.Description("Decimals for an unknown tokenIn address. Usually resolved automatically."),
		),
		mcp.WithNumber("slippageBps",
			mcp.Description("Slippage tolerance in basis points. Defaults to the configured tolerance."),
		),
		mcp.WithString("recipient",
			mcp.Description("Address receiving tokenOut. Defaults to the wallet address."),
		),
		mcp.WithNumber("deadlineMinutes",
			mcp.Description("How long the transaction stays valid in the mempool. Defaults to the configured deadline."),
		),
	), h.handleExecuteSwap)

	s.AddTool(mcp.NewTool("list_pools",
		mcp.WithDescription("List the live DragonSwap V3 pools for a token pair across all fee tiers, "+
			"with liquidity, current price and tick."),
		mcp.WithString("tokenIn",
			mcp.Required(),
			mcp.Description("First token of the pair: a known symbol or a 0x address."),
		),
		mcp.WithString("tokenOut",
			mcp.Required(),
			mcp.Description("Second token of the pair: a known symbol or a 0x address."),
		),
	), h.handleListPools)
}

func (h *Handler) handleSwapQuote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	quoteReq, res := h.quoteRequest(req)
	if res != nil {
		return res, nil
	}

	quote, err := h.quotes.GetQuote(ctx, quoteReq)
	if err != nil {
		return errResult(err), nil
	}

	return okResult(map[string]any{"quote": quoteJSON(quote)}), nil
}

func (h *Handler) handleExecuteSwap(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	quoteReq, res := h.quoteRequest(req)
	if res != nil {
		return res, nil
	}

	result, err := h.swaps.Execute(ctx, dexapp.ExecuteRequest{
		QuoteRequest:    quoteReq,
		Recipient:       req.GetString("recipient", ""),
		DeadlineMinutes: req.GetInt("deadlineMinutes", 0),
	})
	if err != nil {
		return errResult(err), nil
	}

	payload := map[string]any{
		"quote":     quoteJSON(result.Quote),
		"txHash":    result.TxHash.Hex(),
		"recipient": result.Recipient.Hex(),
		"deadline":  result.Deadline.UTC().Format(time.RFC3339),
	}
	if result.ApprovalTxHash != (common.Hash{}) {
		payload["approvalTxHash"] = result.ApprovalTxHash.Hex()
	}

	return okResult(payload), nil
}

func (h *Handler) handleListPools(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tokenIn, err := req.RequireString("tokenIn")
	if err != nil {
		return invalidArg(err), nil
	}
	tokenOut, err := req.RequireString("tokenOut")
	if err != nil {
		return invalidArg(err), nil
	}

	pools, assetIn, assetOut, err := h.quotes.ListPools(ctx, tokenIn, tokenOut)
	if err != nil {
		return errResult(err), nil
	}

	rows := make([]map[string]any, 0, len(pools))
	for _, p := range pools {
		rows = append(rows, map[string]any{
			"feeTier":              int64(p.FeeTier),
			"feePercent":           p.FeeTier.Percent(),
			"address":              p.PoolAddress.Hex(),
			"liquidity":            p.Liquidity,
			"priceToken1PerToken0": p.PriceToken1Per0.String(),
			"tick":                 p.Tick,
			"token0":               p.Token0.Hex(),
			"token1":               p.Token1.Hex(),
		})
	}

	return okResult(map[string]any{
		"tokenIn":  assetJSON(assetIn),
		"tokenOut": assetJSON(assetOut),
		"pools":    rows,
		"count":    len(rows),
	}), nil
}

// quoteRequest parses the arguments shared by quote and execute. A
// non-nil result is the validation failure to return.
func (h *Handler) quoteRequest(req mcp.CallToolRequest) (dexapp.QuoteRequest, *mcp.CallToolResult) {
	tokenIn, err := req.RequireString("tokenIn")
	if err != nil {
		return dexapp.QuoteRequest{}, invalidArg(err)
	}
	tokenOut, err := req.RequireString("tokenOut")
	if err != nil {
		return dexapp.QuoteRequest{}, invalidArg(err)
	}
	amountIn, err := req.RequireString("amountIn")
	if err != nil {
		return dexapp.QuoteRequest{}, invalidArg(err)
	}

	slippageBps := int64(req.GetInt("slippageBps", 0))
	if slippageBps == 0 {
		slippageBps = h.quotes.DefaultSlippageBps()
	}

	return dexapp.QuoteRequest{
		TokenIn:          tokenIn,
		TokenOut:         tokenOut,
		AmountIn:         amountIn,
		AmountInDecimals: req.GetInt("amountInDecimals", 0),
		SlippageBps:      slippageBps,
	}, nil
}

func quoteJSON(q *dexdomain.SwapQuote) map[string]any {
	return map[string]any{
		"tokenIn":            assetJSON(q.TokenIn),
		"tokenOut":           assetJSON(q.TokenOut),
		"amountIn":           amountJSON(q.AmountIn),
		"amountOut":          amountJSON(q.AmountOut),
		"amountOutMinimum":   amountJSON(q.AmountOutMinimum),
		"executionPrice":     q.ExecutionPrice.String(),
		"feeTier":            int64(q.FeeTierUsed),
		"feePercent":         q.FeeTierUsed.Percent(),
		"pool":               q.PoolAddress.Hex(),
		"priceImpactPercent": q.PriceImpactPercent,
		"liquidityScore":     q.LiquidityScore,
		"slippageBps":        q.SlippageBps,
	}
}

func assetJSON(a *asset.Asset) map[string]any {
	out := map[string]any{"symbol": a.Symbol()}
	if a.IsToken() {
		out["address"] = a.Address().Hex()
	} else {
		out["native"] = true
	}
	return out
}
