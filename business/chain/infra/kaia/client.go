// Package kaia implements chain access against a Kaia RPC endpoint.
package kaia

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/tamago-labs/kaia-mcp/business/chain/app"
	"github.com/tamago-labs/kaia-mcp/business/chain/domain"
	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/circuitbreaker"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
	"github.com/tamago-labs/kaia-mcp/internal/ratelimit"
)

// ReaderConfig holds configuration for the chain reader.
type ReaderConfig struct {
	MulticallAddress  common.Address
	RequestsPerMinute int
}

// readerMetrics holds OTEL metric instruments.
type readerMetrics struct {
	callsTotal  metric.Int64Counter
	callErrors  metric.Int64Counter
	callLatency metric.Float64Histogram
	batchSize   metric.Int64Histogram
}

// Ensure Reader implements ChainReader.
var _ app.ChainReader = (*Reader)(nil)

// Reader implements ChainReader using a shared go-ethereum client.
type Reader struct {
	client       *ethclient.Client
	multicall    common.Address
	multicallABI abi.ABI

	logger  logger.LoggerInterface
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *readerMetrics
}

// NewReader creates a new chain reader on top of an existing client connection.
func NewReader(client *ethclient.Client, cfg ReaderConfig, log logger.LoggerInterface) (*Reader, error) {
	parsedABI, err := abi.JSON(strings.NewReader(Multicall3ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse multicall ABI: %w", err)
	}

	r := &Reader{
		client:       client,
		multicall:    cfg.MulticallAddress,
		multicallABI: parsedABI,
		logger:       log,
		limiter:      ratelimit.New(cfg.RequestsPerMinute),
		tracer:       otel.Tracer(tracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("kaia-reader")
	r.cb = circuitbreaker.New[[]byte](cbCfg)

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return r, nil
}

func (r *Reader) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &readerMetrics{}

	r.metrics.callsTotal, err = meter.Int64Counter(
		"kaia_calls_total",
		metric.WithDescription("Total contract read calls"),
	)
	if err != nil {
		return err
	}

	r.metrics.callErrors, err = meter.Int64Counter(
		"kaia_call_errors_total",
		metric.WithDescription("Total failed contract read calls"),
	)
	if err != nil {
		return err
	}

	r.metrics.callLatency, err = meter.Float64Histogram(
		"kaia_call_latency_ms",
		metric.WithDescription("Contract read call latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	r.metrics.batchSize, err = meter.Int64Histogram(
		"kaia_multicall_batch_size",
		metric.WithDescription("Number of calls per multicall batch"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Call executes a read-only contract call against the latest block.
func (r *Reader) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	ctx, span := r.tracer.Start(ctx, "kaia.call",
		trace.WithAttributes(
			attribute.String("to", to.Hex()),
			attribute.Int("data_len", len(data)),
		),
	)
	defer span.End()

	r.metrics.callsTotal.Add(ctx, 1)
	start := time.Now()

	if err := r.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}

	msg := ethereum.CallMsg{To: &to, Data: data}
	out, err := r.cb.Execute(func() ([]byte, error) {
		return r.client.CallContract(ctx, msg, nil)
	})
	r.metrics.callLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		r.metrics.callErrors.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "call failed")
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("call to %s", to.Hex())))
	}

	span.SetStatus(codes.Ok, "called")
	return out, nil
}

// Multicall executes a batch of calls through Multicall3.aggregate3.
// All calls are evaluated in a single eth_call, so every result reflects
// the same block. Individual calls are allowed to fail; a reverted call
// surfaces as CallResult.Success == false.
func (r *Reader) Multicall(ctx context.Context, calls []domain.Call) ([]domain.CallResult, error) {
	ctx, span := r.tracer.Start(ctx, "kaia.multicall",
		trace.WithAttributes(attribute.Int("batch_size", len(calls))),
	)
	defer span.End()

	if len(calls) == 0 {
		return nil, nil
	}

	r.metrics.batchSize.Record(ctx, int64(len(calls)))

	packed := make([]aggregate3Call, len(calls))
	for i, c := range calls {
		packed[i] = aggregate3Call{
			Target:       c.Target,
			AllowFailure: true,
			CallData:     c.CallData,
		}
	}

	data, err := r.multicallABI.Pack("aggregate3", packed)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeInternalError,
			apperror.WithCause(err),
			apperror.WithContext("pack aggregate3"))
	}

	raw, err := r.Call(ctx, r.multicall, data)
	if err != nil {
		span.SetStatus(codes.Error, "multicall failed")
		return nil, err
	}

	var unpacked []aggregate3Result
	if err := r.multicallABI.UnpackIntoInterface(&unpacked, "aggregate3", raw); err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("unpack aggregate3"))
	}
	if len(unpacked) != len(calls) {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("multicall returned %d results for %d calls", len(unpacked), len(calls))))
	}

	results := make([]domain.CallResult, len(unpacked))
	for i, u := range unpacked {
		results[i] = domain.CallResult{
			Success:    u.Success,
			ReturnData: u.ReturnData,
		}
	}

	span.SetStatus(codes.Ok, "batched")
	return results, nil
}

// NativeBalance retrieves the KAIA balance of an address in kei.
func (r *Reader) NativeBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	ctx, span := r.tracer.Start(ctx, "kaia.balance",
		trace.WithAttributes(attribute.String("address", addr.Hex())),
	)
	defer span.End()

	if err := r.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}

	balance, err := r.client.BalanceAt(ctx, addr, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "balance failed")
		return nil, apperror.New(apperror.CodeRPCError,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("balance of %s", addr.Hex())))
	}

	span.SetStatus(codes.Ok, "fetched")
	return balance, nil
}

// BlockNumber retrieves the latest block number.
func (r *Reader) BlockNumber(ctx context.Context) (uint64, error) {
	ctx, span := r.tracer.Start(ctx, "kaia.block_number")
	defer span.End()

	if err := r.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		return 0, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}

	block, err := r.client.BlockNumber(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return 0, apperror.New(apperror.CodeRPCError,
			apperror.WithCause(err),
			apperror.WithContext("block number query"))
	}

	span.SetStatus(codes.Ok, "fetched")
	return block, nil
}
