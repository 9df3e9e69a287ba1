// Package dragonswap implements pool state reads and router calldata
// encoding for the DragonSwap V3 contracts on Kaia.
package dragonswap

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	chainapp "github.com/tamago-labs/kaia-mcp/business/chain/app"
	chaindomain "github.com/tamago-labs/kaia-mcp/business/chain/domain"
	"github.com/tamago-labs/kaia-mcp/business/dex/app"
	"github.com/tamago-labs/kaia-mcp/business/dex/domain"
	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/config"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
)

const (
	tracerName = "dragonswap"
	meterName  = "dragonswap"
)

// Ensure PoolReader implements the app port.
var _ app.PoolReader = (*PoolReader)(nil)

// poolStateMethods is the per-pool multicall layout. parseState depends
// on this order.
var poolStateMethods = [...]string{"slot0", "liquidity", "token0", "token1", "fee"}

// readerMetrics holds OTEL metric instruments.
type readerMetrics struct {
	readsTotal  metric.Int64Counter
	readErrors  metric.Int64Counter
	readLatency metric.Float64Histogram
}

// PoolReader reads DragonSwap V3 pool state through the chain reader.
// Pool state moves every block, so reads always hit the chain and are
// never cached. The per-pool fields are fetched in a single multicall
// batch so price, liquidity and token ordering reflect the same block.
type PoolReader struct {
	chain      chainapp.ChainReader
	factory    common.Address
	factoryABI abi.ABI
	poolABI    abi.ABI
	feeTiers   []domain.FeeTier

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *readerMetrics
}

// NewPoolReader creates a PoolReader for the configured factory.
func NewPoolReader(chain chainapp.ChainReader, cfg config.DragonSwapConfig, log logger.LoggerInterface) (*PoolReader, error) {
	factoryABI, err := abi.JSON(strings.NewReader(FactoryABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse factory ABI: %w", err)
	}
	poolABI, err := abi.JSON(strings.NewReader(PoolABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool ABI: %w", err)
	}

	tiers := make([]domain.FeeTier, 0, len(cfg.FeeTiers))
	for _, f := range cfg.FeeTiers {
		tiers = append(tiers, domain.FeeTier(f))
	}

	r := &PoolReader{
		chain:      chain,
		factory:    cfg.FactoryAddressHex(),
		factoryABI: factoryABI,
		poolABI:    poolABI,
		feeTiers:   tiers,
		logger:     log,
		tracer:     otel.Tracer(tracerName),
	}

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return r, nil
}

func (r *PoolReader) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &readerMetrics{}

	r.metrics.readsTotal, err = meter.Int64Counter(
		"dragonswap_pool_reads_total",
		metric.WithDescription("Total pool state read requests"),
	)
	if err != nil {
		return err
	}

	r.metrics.readErrors, err = meter.Int64Counter(
		"dragonswap_pool_read_errors_total",
		metric.WithDescription("Total pool state read errors"),
	)
	if err != nil {
		return err
	}

	r.metrics.readLatency, err = meter.Float64Histogram(
		"dragonswap_pool_read_latency_ms",
		metric.WithDescription("Pool state read latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// GetPoolState reads the pool for (tokenA, tokenB) at one fee tier.
func (r *PoolReader) GetPoolState(ctx context.Context, tokenA, tokenB common.Address, fee domain.FeeTier) (*domain.PoolState, error) {
	ctx, span := r.tracer.Start(ctx, "dragonswap.get_pool_state",
		trace.WithAttributes(
			attribute.String("token_a", tokenA.Hex()),
			attribute.String("token_b", tokenB.Hex()),
			attribute.Int64("fee_tier", int64(fee)),
		),
	)
	defer span.End()

	start := time.Now()
	r.metrics.readsTotal.Add(ctx, 1)

	pool, err := r.lookupPool(ctx, tokenA, tokenB, fee)
	if err != nil {
		r.metrics.readErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	state, err := r.readState(ctx, pool)
	r.metrics.readLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		r.metrics.readErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("pool", state.PoolAddress.Hex()),
		attribute.String("liquidity", state.Liquidity.String()),
	)
	span.SetStatus(codes.Ok, "pool state read")

	return state, nil
}

// AllPoolStates reads every existing pool for the pair across the
// configured fee tiers. Tiers without a pool, or whose state cannot be
// decoded, are omitted.
func (r *PoolReader) AllPoolStates(ctx context.Context, tokenA, tokenB common.Address) ([]*domain.PoolState, error) {
	ctx, span := r.tracer.Start(ctx, "dragonswap.all_pool_states",
		trace.WithAttributes(
			attribute.String("token_a", tokenA.Hex()),
			attribute.String("token_b", tokenB.Hex()),
		),
	)
	defer span.End()

	start := time.Now()
	r.metrics.readsTotal.Add(ctx, 1)

	// One batch of factory lookups covering all tiers.
	lookups := make([]chaindomain.Call, 0, len(r.feeTiers))
	for _, fee := range r.feeTiers {
		callData, err := r.factoryABI.Pack("getPool", tokenA, tokenB, big.NewInt(int64(fee)))
		if err != nil {
			return nil, fmt.Errorf("failed to encode getPool: %w", err)
		}
		lookups = append(lookups, chaindomain.Call{Target: r.factory, CallData: callData})
	}

	lookupResults, err := r.chain.Multicall(ctx, lookups)
	if err != nil {
		r.metrics.readErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(lookupResults) != len(r.feeTiers) {
		return nil, fmt.Errorf("getPool batch returned %d results, want %d", len(lookupResults), len(r.feeTiers))
	}

	type foundPool struct {
		fee  domain.FeeTier
		addr common.Address
	}
	found := make([]foundPool, 0, len(r.feeTiers))
	for i, res := range lookupResults {
		if !res.Success {
			continue
		}
		var pool common.Address
		if err := r.factoryABI.UnpackIntoInterface(&pool, "getPool", res.ReturnData); err != nil {
			continue
		}
		if pool == (common.Address{}) {
			continue
		}
		found = append(found, foundPool{fee: r.feeTiers[i], addr: pool})
	}

	if len(found) == 0 {
		span.SetStatus(codes.Ok, "no pools")
		return nil, nil
	}

	// One batch of state reads covering all found pools.
	stateCalls := make([]chaindomain.Call, 0, len(found)*len(poolStateMethods))
	for _, p := range found {
		calls, err := r.stateCalls(p.addr)
		if err != nil {
			return nil, err
		}
		stateCalls = append(stateCalls, calls...)
	}

	stateResults, err := r.chain.Multicall(ctx, stateCalls)
	if err != nil {
		r.metrics.readErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(stateResults) != len(stateCalls) {
		return nil, fmt.Errorf("state batch returned %d results, want %d", len(stateResults), len(stateCalls))
	}

	states := make([]*domain.PoolState, 0, len(found))
	for i, p := range found {
		chunk := stateResults[i*len(poolStateMethods) : (i+1)*len(poolStateMethods)]
		state, err := r.parseState(p.addr, chunk)
		if err != nil {
			r.logger.Debug(ctx, "skipping unreadable pool",
				"pool", p.addr.Hex(),
				"fee_tier", int64(p.fee),
				"error", err.Error(),
			)
			continue
		}
		states = append(states, state)
	}

	r.metrics.readLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	span.SetAttributes(attribute.Int("pools_found", len(states)))
	span.SetStatus(codes.Ok, "pool states read")

	return states, nil
}

// lookupPool asks the factory for the pool address at one fee tier.
// The factory returns the zero address when no pool exists.
func (r *PoolReader) lookupPool(ctx context.Context, tokenA, tokenB common.Address, fee domain.FeeTier) (common.Address, error) {
	callData, err := r.factoryABI.Pack("getPool", tokenA, tokenB, big.NewInt(int64(fee)))
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to encode getPool: %w", err)
	}

	ret, err := r.chain.Call(ctx, r.factory, callData)
	if err != nil {
		return common.Address{}, err
	}

	var pool common.Address
	if err := r.factoryABI.UnpackIntoInterface(&pool, "getPool", ret); err != nil {
		return common.Address{}, fmt.Errorf("failed to decode getPool: %w", err)
	}

	if pool == (common.Address{}) {
		return common.Address{}, apperror.New(apperror.CodeNotFound,
			apperror.WithMessage(fmt.Sprintf("no pool for fee tier %d", fee)))
	}

	return pool, nil
}

// stateCalls builds the per-pool multicall batch in poolStateMethods order.
func (r *PoolReader) stateCalls(pool common.Address) ([]chaindomain.Call, error) {
	calls := make([]chaindomain.Call, 0, len(poolStateMethods))
	for _, method := range poolStateMethods {
		data, err := r.poolABI.Pack(method)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", method, err)
		}
		calls = append(calls, chaindomain.Call{Target: pool, CallData: data})
	}
	return calls, nil
}

// readState fetches one pool's state in a single multicall batch.
func (r *PoolReader) readState(ctx context.Context, pool common.Address) (*domain.PoolState, error) {
	calls, err := r.stateCalls(pool)
	if err != nil {
		return nil, err
	}

	results, err := r.chain.Multicall(ctx, calls)
	if err != nil {
		return nil, err
	}

	return r.parseState(pool, results)
}

// parseState decodes a poolStateMethods-ordered result chunk. A reverted
// sub-call means the pool is unusable and is reported as not found.
func (r *PoolReader) parseState(pool common.Address, results []chaindomain.CallResult) (*domain.PoolState, error) {
	if len(results) != len(poolStateMethods) {
		return nil, fmt.Errorf("pool %s state batch returned %d results, want %d", pool.Hex(), len(results), len(poolStateMethods))
	}
	for i, res := range results {
		if !res.Success {
			return nil, apperror.New(apperror.CodeNotFound,
				apperror.WithMessage(fmt.Sprintf("pool %s %s call reverted", pool.Hex(), poolStateMethods[i])))
		}
	}

	var slot0 slot0Result
	if err := r.poolABI.UnpackIntoInterface(&slot0, "slot0", results[0].ReturnData); err != nil {
		return nil, fmt.Errorf("failed to decode slot0: %w", err)
	}

	var liquidity *big.Int
	if err := r.poolABI.UnpackIntoInterface(&liquidity, "liquidity", results[1].ReturnData); err != nil {
		return nil, fmt.Errorf("failed to decode liquidity: %w", err)
	}

	var token0 common.Address
	if err := r.poolABI.UnpackIntoInterface(&token0, "token0", results[2].ReturnData); err != nil {
		return nil, fmt.Errorf("failed to decode token0: %w", err)
	}

	var token1 common.Address
	if err := r.poolABI.UnpackIntoInterface(&token1, "token1", results[3].ReturnData); err != nil {
		return nil, fmt.Errorf("failed to decode token1: %w", err)
	}

	var fee *big.Int
	if err := r.poolABI.UnpackIntoInterface(&fee, "fee", results[4].ReturnData); err != nil {
		return nil, fmt.Errorf("failed to decode fee: %w", err)
	}

	return &domain.PoolState{
		PoolAddress:  pool,
		Token0:       token0,
		Token1:       token1,
		Fee:          domain.FeeTier(fee.Int64()),
		Liquidity:    liquidity,
		SqrtPriceX96: slot0.SqrtPriceX96,
		Tick:         slot0.Tick.Int64(),
	}, nil
}
