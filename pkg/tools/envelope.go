package tools

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
)

// okResult renders a success envelope as a JSON tool result.
func okResult(payload map[string]any) *mcp.CallToolResult {
	payload["success"] = true
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errResult(apperror.New(apperror.CodeInternalError,
			apperror.WithCause(err),
			apperror.WithContext("encode tool result")))
	}
	return mcp.NewToolResultText(string(data))
}

// errResult renders a failure envelope as a JSON tool result. The
// result is flagged as an error but stays a tool result, so the
// calling agent receives the code and message instead of a protocol
// failure.
func errResult(err error) *mcp.CallToolResult {
	detail := map[string]any{
		"code":    string(apperror.CodeUnknownError),
		"message": err.Error(),
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		detail["code"] = string(appErr.Code)
		detail["message"] = appErr.Message
		if appErr.Context != "" {
			detail["context"] = appErr.Context
		}
		if appErr.TxHash != "" {
			detail["txHash"] = appErr.TxHash
		}
	}

	data, mErr := json.MarshalIndent(map[string]any{
		"success": false,
		"error":   detail,
	}, "", "  ")
	if mErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf(`{"success":false,"error":{"code":%q,"message":%q}}`,
			apperror.CodeInternalError, err.Error()))
	}
	return mcp.NewToolResultError(string(data))
}

// invalidArg wraps a malformed tool argument into the standard
// validation failure.
func invalidArg(err error) *mcp.CallToolResult {
	return errResult(apperror.New(apperror.CodeInvalidInput, apperror.WithCause(err),
		apperror.WithMessage(err.Error())))
}

// amountJSON renders a token amount with its human and raw values.
func amountJSON(a asset.Amount) map[string]any {
	return map[string]any{
		"symbol": a.Asset().Symbol(),
		"amount": a.ToDecimal().String(),
		"raw":    a.Raw().String(),
	}
}

// networkName maps a chain id to its public network name.
func networkName(chainID uint64) string {
	switch chainID {
	case asset.ChainIDKaia:
		return "mainnet"
	case asset.ChainIDKairos:
		return "kairos"
	default:
		return fmt.Sprintf("chain-%d", chainID)
	}
}
