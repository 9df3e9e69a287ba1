package tools

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"

	lendapp "github.com/tamago-labs/kaia-mcp/business/lending/app"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
)

func (h *Handler) registerLendingTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("get_market_data",
		mcp.WithDescription("Get every KiloLend lending market: supply and borrow APY, utilization, "+
			"available cash, total borrows, collateral factor and USD valuations."),
	), h.handleMarketData)

	s.AddTool(mcp.NewTool("get_account_position",
		mcp.WithDescription("Get a KiloLend account position: per-market supplied and borrowed "+
			"balances with USD values, account liquidity, and the health factor when the account "+
			"has debt (below 1.0 the account can be liquidated)."),
		mcp.WithString("address",
			mcp.Description("Account to read (0x address). Defaults to the configured wallet."),
		),
	), h.handleAccountPosition)

	s.AddTool(mcp.NewTool("supply",
		mcp.WithDescription("Supply tokens to a KiloLend market to earn interest. ERC-20 markets "+
			"are approved automatically first; the KAIA market attaches the amount as transaction "+
			"value. Requires a configured wallet."),
		mcp.WithString("market",
			mcp.Required(),
			mcp.Description("Market symbol, e.g. USDT or KAIA."),
		),
		mcp.WithString("amount",
			mcp.Required(),
			mcp.Description("Amount to supply, in human units (e.g. \"100.5\")."),
		),
	), h.lendingWrite("supply", func(ctx context.Context, market, amount string) (*lendapp.TxResult, error) {
		return h.lending.Supply(ctx, market, amount)
	}))

	s.AddTool(mcp.NewTool("withdraw",
		mcp.WithDescription("Withdraw supplied tokens from a KiloLend market by redeeming the "+
			"underlying amount. Requires a configured wallet."),
		mcp.WithString("market",
			mcp.Required(),
			mcp.Description("Market symbol, e.g. USDT or KAIA."),
		),
		mcp.WithString("amount",
			mcp.Required(),
			mcp.Description("Underlying amount to withdraw, in human units."),
		),
	), h.lendingWrite("withdraw", func(ctx context.Context, market, amount string) (*lendapp.TxResult, error) {
		return h.lending.Withdraw(ctx, market, amount)
	}))

	s.AddTool(mcp.NewTool("borrow",
		mcp.WithDescription("Borrow tokens from a KiloLend market against supplied collateral. "+
			"The account must have entered collateral markets first (see enter_markets). "+
			"Requires a configured wallet."),
		mcp.WithString("market",
			mcp.Required(),
			mcp.Description("Market symbol, e.g. USDT or KAIA."),
		),
		mcp.WithString("amount",
			mcp.Required(),
			mcp.Description("Amount to borrow, in human units."),
		),
	), h.lendingWrite("borrow", func(ctx context.Context, market, amount string) (*lendapp.TxResult, error) {
		return h.lending.Borrow(ctx, market, amount)
	}))

	s.AddTool(mcp.NewTool("repay",
		mcp.WithDescription("Repay borrowed tokens in a KiloLend market. Pass amount \"max\" to "+
			"repay the full stored borrow balance. Requires a configured wallet."),
		mcp.WithString("market",
			mcp.Required(),
			mcp.Description("Market symbol, e.g. USDT or KAIA."),
		),
		mcp.WithString("amount",
			mcp.Required(),
			mcp.Description("Amount to repay in human units, or \"max\" for the full debt."),
		),
	), h.lendingWrite("repay", func(ctx context.Context, market, amount string) (*lendapp.TxResult, error) {
		return h.lending.Repay(ctx, market, amount)
	}))

	s.AddTool(mcp.NewTool("enter_markets",
		mcp.WithDescription("Enter KiloLend markets so their supplied balances count as collateral "+
			"for borrowing. Requires a configured wallet."),
		mcp.WithString("markets",
			mcp.Required(),
			mcp.Description("Market symbols to enter, comma-separated (e.g. \"USDT,KAIA\")."),
		),
	), h.handleEnterMarkets)
}

func (h *Handler) handleMarketData(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	views, err := h.lending.Markets(ctx)
	if err != nil {
		return errResult(err), nil
	}

	rows := make([]map[string]any, 0, len(views))
	for _, v := range views {
		m := v.Market
		row := map[string]any{
			"symbol":             m.Ref.Symbol,
			"cToken":             m.Ref.CToken.Hex(),
			"supplyApyPercent":   v.SupplyAPY,
			"borrowApyPercent":   v.BorrowAPY,
			"utilizationPercent": v.Utilization,
			"cash":               amountJSON(asset.NewAmount(m.Ref.Under, m.Cash)),
			"totalBorrows":       amountJSON(asset.NewAmount(m.Ref.Under, m.TotalBorrows)),
			"collateralFactor":   decimal.NewFromBigInt(m.CollateralFactor, -18).InexactFloat64(),
			"priceUsd":           v.PriceUSD.String(),
			"totalSupplyUsd":     v.TotalSupplyUSD.String(),
			"totalBorrowsUsd":    v.TotalBorrowsUSD.String(),
		}
		if m.Ref.IsNative {
			row["native"] = true
		} else {
			row["underlying"] = m.Ref.Under.Address().Hex()
		}
		rows = append(rows, row)
	}

	return okResult(map[string]any{
		"markets": rows,
		"count":   len(rows),
	}), nil
}

func (h *Handler) handleAccountPosition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	position, err := h.lending.Position(ctx, req.GetString("address", ""))
	if err != nil {
		return errResult(err), nil
	}

	entries := make([]map[string]any, 0, len(position.Entries))
	for _, e := range position.Entries {
		entries = append(entries, map[string]any{
			"market":      e.Market.Symbol,
			"supplied":    amountJSON(e.Supplied),
			"borrowed":    amountJSON(e.Borrowed),
			"suppliedUsd": e.SuppliedUSD.String(),
			"borrowedUsd": e.BorrowedUSD.String(),
			"collateral":  e.Collateral,
		})
	}

	payload := map[string]any{
		"address":          position.Address.Hex(),
		"entries":          entries,
		"totalSuppliedUsd": position.TotalSuppliedUSD.String(),
		"totalBorrowedUsd": position.TotalBorrowedUSD.String(),
		"liquidityUsd":     position.LiquidityUSD.String(),
		"shortfallUsd":     position.ShortfallUSD.String(),
		"hasBorrows":       position.HasBorrows,
	}
	// Without debt a health factor is undefined, not infinite.
	if position.HasBorrows {
		payload["healthFactor"] = position.HealthFactor
	}

	return okResult(payload), nil
}

func (h *Handler) handleEnterMarkets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("markets")
	if err != nil {
		return invalidArg(err), nil
	}

	result, err := h.lending.EnterMarkets(ctx, splitList(raw))
	if err != nil {
		return errResult(err), nil
	}

	symbols := make([]string, len(result.Markets))
	for i, ref := range result.Markets {
		symbols[i] = ref.Symbol
	}

	return okResult(map[string]any{
		"markets": symbols,
		"txHash":  result.TxHash.Hex(),
	}), nil
}

// lendingWrite builds the shared handler for the four market write
// tools; they differ only in the service call.
func (h *Handler) lendingWrite(op string, call func(ctx context.Context, market, amount string) (*lendapp.TxResult, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		market, err := req.RequireString("market")
		if err != nil {
			return invalidArg(err), nil
		}
		amount, err := req.RequireString("amount")
		if err != nil {
			return invalidArg(err), nil
		}

		result, err := call(ctx, market, amount)
		if err != nil {
			return errResult(err), nil
		}

		payload := map[string]any{
			"operation": op,
			"market":    result.Market.Symbol,
			"amount":    amountJSON(result.Amount),
			"txHash":    result.TxHash.Hex(),
		}
		if result.ApprovalTxHash != (common.Hash{}) {
			payload["approvalTxHash"] = result.ApprovalTxHash.Hex()
		}

		return okResult(payload), nil
	}
}
