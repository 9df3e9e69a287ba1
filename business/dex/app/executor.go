package app

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tamago-labs/kaia-mcp/business/dex/domain"
	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
)

// ExecuteRequest is a swap execution order. Quote parameters are
// re-derived fresh at execution time; a previously returned quote is
// never trusted across requests.
type ExecuteRequest struct {
	QuoteRequest

	// Recipient receives tokenOut. Empty means the signer's address.
	Recipient string

	// DeadlineMinutes bounds how long the transaction stays valid in the
	// mempool. 0 means the configured default.
	DeadlineMinutes int
}

// SwapResult reports a submitted swap.
type SwapResult struct {
	Quote          *domain.SwapQuote
	TxHash         common.Hash
	ApprovalTxHash common.Hash // zero when no approval was needed
	Recipient      common.Address
	Deadline       time.Time
}

// SwapExecutor drives the swap write path: fresh quote, allowance,
// router call, receipt.
type SwapExecutor struct {
	quotes          *QuoteService
	router          SwapRouter
	signer          Signer
	deadlineMinutes int

	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewSwapExecutor creates a SwapExecutor.
func NewSwapExecutor(quotes *QuoteService, router SwapRouter, signer Signer, deadlineMinutes int, log logger.LoggerInterface) *SwapExecutor {
	return &SwapExecutor{
		quotes:          quotes,
		router:          router,
		signer:          signer,
		deadlineMinutes: deadlineMinutes,
		logger:          log,
		tracer:          otel.Tracer(tracerName),
	}
}

// Execute submits a swap for the requested pair and amount.
//
// The quote is always recomputed from live pool state. A non-native
// tokenIn must have router allowance; an approval transaction is
// submitted and confirmed first when it does not. Approval failure
// aborts the swap. Swap failure surfaces with the transaction hash
// and is never retried, since a resubmitted swap could double-execute.
func (e *SwapExecutor) Execute(ctx context.Context, req ExecuteRequest) (*SwapResult, error) {
	ctx, span := e.tracer.Start(ctx, "dex.execute_swap",
		trace.WithAttributes(
			attribute.String("token_in", req.TokenIn),
			attribute.String("token_out", req.TokenOut),
			attribute.String("amount_in", req.AmountIn),
		),
	)
	defer span.End()

	if e.signer.IsReadOnly() {
		return nil, apperror.New(apperror.CodeWalletReadOnly)
	}

	recipient := e.signer.Address()
	if req.Recipient != "" {
		if !common.IsHexAddress(req.Recipient) {
			return nil, apperror.New(apperror.CodeInvalidInput,
				apperror.WithContext(fmt.Sprintf("recipient %q is not a hex address", req.Recipient)))
		}
		recipient = common.HexToAddress(req.Recipient)
	}

	quote, err := e.quotes.GetQuote(ctx, req.QuoteRequest)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	minutes := req.DeadlineMinutes
	if minutes <= 0 {
		minutes = e.deadlineMinutes
	}
	deadline := time.Now().Add(time.Duration(minutes) * time.Minute)

	// Native KAIA rides along as msg.value and needs no allowance.
	var value *big.Int
	approvalTx := common.Hash{}
	if quote.TokenIn.IsNative() {
		value = new(big.Int).Set(quote.AmountIn.Raw())
	} else {
		approvalTx, err = e.signer.EnsureAllowance(ctx, quote.TokenIn.Address(), e.router.Address(), quote.AmountIn.Raw())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "approval failed")
			return nil, apperror.Wrap(err, apperror.CodeApprovalFailed,
				fmt.Sprintf("approve %s for router", quote.TokenIn.Symbol()))
		}
		if approvalTx != (common.Hash{}) {
			e.logger.Info(ctx, "router allowance approved",
				"token", quote.TokenIn.Symbol(), "tx", approvalTx.Hex())
		}
	}

	calldata, err := e.router.ExactInputSingle(ExactInputSingleParams{
		TokenIn:          e.quotes.poolToken(quote.TokenIn),
		TokenOut:         e.quotes.poolToken(quote.TokenOut),
		Fee:              quote.FeeTierUsed,
		Recipient:        recipient,
		Deadline:         big.NewInt(deadline.Unix()),
		AmountIn:         quote.AmountIn.Raw(),
		AmountOutMinimum: quote.AmountOutMinimum.Raw(),
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	txHash, err := e.signer.SubmitAndConfirm(ctx, e.router.Address(), calldata, value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "swap failed")
		return nil, err
	}

	e.logger.Info(ctx, "swap executed",
		"pair", quote.TokenIn.Symbol()+"/"+quote.TokenOut.Symbol(),
		"amount_in", quote.AmountIn.String(),
		"min_out", quote.AmountOutMinimum.String(),
		"fee_tier", int64(quote.FeeTierUsed),
		"tx", txHash.Hex())

	span.SetAttributes(attribute.String("tx_hash", txHash.Hex()))
	span.SetStatus(codes.Ok, "executed")

	return &SwapResult{
		Quote:          quote,
		TxHash:         txHash,
		ApprovalTxHash: approvalTx,
		Recipient:      recipient,
		Deadline:       deadline,
	}, nil
}
