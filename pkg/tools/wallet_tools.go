package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (h *Handler) registerWalletTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("wallet_status",
		mcp.WithDescription("Get the configured wallet's address, mode and native KAIA balance. "+
			"In read-only mode no private key is loaded and transaction tools are unavailable."),
	), h.handleWalletStatus)

	s.AddTool(mcp.NewTool("get_token_balances",
		mcp.WithDescription("Get native KAIA and ERC-20 token balances on Kaia for the wallet "+
			"or an explicit account address. Covers all well-known tokens plus any extras requested."),
		mcp.WithString("address",
			mcp.Description("Account to read (0x address). Defaults to the configured wallet."),
		),
		mcp.WithString("tokens",
			mcp.Description("Extra tokens to include, comma-separated symbols or 0x addresses."),
		),
	), h.handleTokenBalances)
}

func (h *Handler) handleWalletStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.wallet.Status(ctx)
	if err != nil {
		return errResult(err), nil
	}

	chainID := h.network.ChainID()
	payload := map[string]any{
		"readOnly": status.ReadOnly,
		"chainId":  chainID,
		"network":  networkName(chainID),
	}
	if status.ReadOnly {
		payload["address"] = nil
		payload["note"] = "no private key configured; transaction tools are disabled"
	} else {
		payload["address"] = status.Address.Hex()
		payload["nativeBalance"] = amountJSON(status.NativeBalance)
	}

	return okResult(payload), nil
}

func (h *Handler) handleTokenBalances(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address := req.GetString("address", "")
	extra := splitList(req.GetString("tokens", ""))

	balances, err := h.wallet.TokenBalances(ctx, address, extra)
	if err != nil {
		return errResult(err), nil
	}

	rows := make([]map[string]any, 0, len(balances))
	for _, b := range balances {
		row := amountJSON(b)
		if b.Asset().IsToken() {
			row["address"] = b.Asset().Address().Hex()
		}
		rows = append(rows, row)
	}

	return okResult(map[string]any{
		"balances": rows,
		"count":    len(rows),
	}), nil
}

// splitList parses a comma-separated argument, dropping empty parts.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
