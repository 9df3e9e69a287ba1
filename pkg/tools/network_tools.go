package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func (h *Handler) registerNetworkTools(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("network_info",
		mcp.WithDescription("Get Kaia network status: chain id, network name, latest block number "+
			"and the current gas price."),
	), h.handleNetworkInfo)
}

func (h *Handler) handleNetworkInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := h.network.NetworkStatus(ctx)
	if err != nil {
		return errResult(err), nil
	}

	return okResult(map[string]any{
		"chainId":     status.ChainID,
		"network":     networkName(status.ChainID),
		"blockNumber": status.BlockNumber,
		"gasPrice": map[string]any{
			"kei":  status.GasPrice.Kei.String(),
			"ston": status.GasPrice.Ston,
		},
	}), nil
}
