// Package kilolend implements market state reads and calldata encoding
// for the KiloLend (Compound v2 style) contracts on Kaia.
package kilolend

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
	"github.com/tamago-labs/kaia-mcp/business/lending/app"
	"github.com/tamago-labs/kaia-mcp/business/lending/domain"
	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
)

const (
	tracerName = "kilolend"
	meterName  = "kilolend"
)

// Ensure Reader implements the app port.
var _ app.MarketReader = (*Reader)(nil)

// marketViewMethods is the per-market multicall layout for cToken views.
// parseMarket depends on this order; the comptroller markets() call is
// appended after these in each chunk.
var marketViewMethods = [...]string{
	"exchangeRateStored",
	"supplyRatePerBlock",
	"borrowRatePerBlock",
	"getCash",
	"totalBorrows",
	"totalReserves",
	"totalSupply",
}

// readerMetrics holds OTEL metric instruments.
type readerMetrics struct {
	readsTotal  metric.Int64Counter
	readErrors  metric.Int64Counter
	readLatency metric.Float64Histogram
}

// Reader reads KiloLend market and account state through the chain
// reader. Rates and balances accrue every block, so reads always hit
// the chain. All per-market fields are fetched in a single multicall
// batch so every market reflects the same block.
type Reader struct {
	chain          chainapp.ChainReader
	comptroller    common.Address
	markets        []domain.MarketRef
	cTokenABI      abi.ABI
	comptrollerABI abi.ABI

	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *readerMetrics
}

// NewReader creates a Reader over the configured market set.
func NewReader(chain chainapp.ChainReader, comptroller common.Address, markets []domain.MarketRef, log logger.LoggerInterface) (*Reader, error) {
	cTokenABI, err := abi.JSON(strings.NewReader(CTokenABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse cToken ABI: %w", err)
	}
	comptrollerABI, err := abi.JSON(strings.NewReader(ComptrollerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse comptroller ABI: %w", err)
	}

	r := &Reader{
		chain:          chain,
		comptroller:    comptroller,
		markets:        markets,
		cTokenABI:      cTokenABI,
		comptrollerABI: comptrollerABI,
		logger:         log,
		tracer:         otel.Tracer(tracerName),
	}

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return r, nil
}

func (r *Reader) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	r.metrics = &readerMetrics{}

	r.metrics.readsTotal, err = meter.Int64Counter(
		"kilolend_reads_total",
		metric.WithDescription("Total market state read requests"),
	)
	if err != nil {
		return err
	}

	r.metrics.readErrors, err = meter.Int64Counter(
		"kilolend_read_errors_total",
		metric.WithDescription("Total market state read errors"),
	)
	if err != nil {
		return err
	}

	r.metrics.readLatency, err = meter.Float64Histogram(
		"kilolend_read_latency_ms",
		metric.WithDescription("Market state read latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// MarketStates reads every configured market in one multicall batch.
// Markets whose state cannot be read are omitted.
func (r *Reader) MarketStates(ctx context.Context) ([]*domain.Market, error) {
	ctx, span := r.tracer.Start(ctx, "kilolend.market_states")
	defer span.End()

	start := time.Now()
	r.metrics.readsTotal.Add(ctx, 1)

	chunkLen := len(marketViewMethods) + 1
	calls := make([]chaindomain.Call, 0, len(r.markets)*chunkLen)
	for _, ref := range r.markets {
		for _, method := range marketViewMethods {
			data, err := r.cTokenABI.Pack(method)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s: %w", method, err)
			}
			calls = append(calls, chaindomain.Call{Target: ref.CToken, CallData: data})
		}
		data, err := r.comptrollerABI.Pack("markets", ref.CToken)
		if err != nil {
			return nil, fmt.Errorf("failed to encode markets: %w", err)
		}
		calls = append(calls, chaindomain.Call{Target: r.comptroller, CallData: data})
	}

	results, err := r.chain.Multicall(ctx, calls)
	if err != nil {
		r.metrics.readErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(results) != len(calls) {
		return nil, fmt.Errorf("market batch returned %d results, want %d", len(results), len(calls))
	}

	markets := make([]*domain.Market, 0, len(r.markets))
	for i, ref := range r.markets {
		chunk := results[i*chunkLen : (i+1)*chunkLen]
		market, err := r.parseMarket(ref, chunk)
		if err != nil {
			r.logger.Warn(ctx, "skipping unreadable market",
				"market", ref.Symbol,
				"c_token", ref.CToken.Hex(),
				"error", err.Error(),
			)
			continue
		}
		markets = append(markets, market)
	}

	r.metrics.readLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	span.SetAttributes(attribute.Int("markets", len(markets)))
	span.SetStatus(codes.Ok, "market states read")

	return markets, nil
}

// AccountSnapshots reads the account's balances across every configured
// market in one multicall batch. Markets that fail to answer are
// omitted.
func (r *Reader) AccountSnapshots(ctx context.Context, account common.Address) ([]*domain.AccountSnapshot, error) {
	ctx, span := r.tracer.Start(ctx, "kilolend.account_snapshots",
		trace.WithAttributes(attribute.String("account", account.Hex())),
	)
	defer span.End()

	start := time.Now()
	r.metrics.readsTotal.Add(ctx, 1)

	calls := make([]chaindomain.Call, 0, len(r.markets))
	for _, ref := range r.markets {
		data, err := r.cTokenABI.Pack("getAccountSnapshot", account)
		if err != nil {
			return nil, fmt.Errorf("failed to encode getAccountSnapshot: %w", err)
		}
		calls = append(calls, chaindomain.Call{Target: ref.CToken, CallData: data})
	}

	results, err := r.chain.Multicall(ctx, calls)
	if err != nil {
		r.metrics.readErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if len(results) != len(calls) {
		return nil, fmt.Errorf("snapshot batch returned %d results, want %d", len(results), len(calls))
	}

	snaps := make([]*domain.AccountSnapshot, 0, len(r.markets))
	for i, ref := range r.markets {
		res := results[i]
		if !res.Success {
			r.logger.Warn(ctx, "skipping failed account snapshot",
				"market", ref.Symbol,
				"account", account.Hex(),
			)
			continue
		}

		var snap accountSnapshotResult
		if err := r.cTokenABI.UnpackIntoInterface(&snap, "getAccountSnapshot", res.ReturnData); err != nil {
			r.logger.Warn(ctx, "skipping undecodable account snapshot",
				"market", ref.Symbol,
				"error", err.Error(),
			)
			continue
		}
		if snap.ErrCode.Sign() != 0 {
			r.logger.Warn(ctx, "skipping account snapshot with error code",
				"market", ref.Symbol,
				"err_code", snap.ErrCode.String(),
			)
			continue
		}

		snaps = append(snaps, &domain.AccountSnapshot{
			Market:        ref,
			CTokenBalance: snap.CTokenBalance,
			BorrowBalance: snap.BorrowBalance,
			ExchangeRate:  snap.ExchangeRateMantissa,
		})
	}

	r.metrics.readLatency.Record(ctx, float64(time.Since(start).Milliseconds()))
	span.SetAttributes(attribute.Int("snapshots", len(snaps)))
	span.SetStatus(codes.Ok, "account snapshots read")

	return snaps, nil
}

// AccountLiquidity reads the comptroller's account liquidity figures.
func (r *Reader) AccountLiquidity(ctx context.Context, account common.Address) (*domain.AccountLiquidity, error) {
	ctx, span := r.tracer.Start(ctx, "kilolend.account_liquidity",
		trace.WithAttributes(attribute.String("account", account.Hex())),
	)
	defer span.End()

	data, err := r.comptrollerABI.Pack("getAccountLiquidity", account)
	if err != nil {
		return nil, fmt.Errorf("failed to encode getAccountLiquidity: %w", err)
	}

	ret, err := r.chain.Call(ctx, r.comptroller, data)
	if err != nil {
		r.metrics.readErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var out accountLiquidityResult
	if err := r.comptrollerABI.UnpackIntoInterface(&out, "getAccountLiquidity", ret); err != nil {
		return nil, fmt.Errorf("failed to decode getAccountLiquidity: %w", err)
	}
	if out.ErrCode.Sign() != 0 {
		err := apperror.New(apperror.CodeComptrollerRejected,
			apperror.WithMessage(fmt.Sprintf("getAccountLiquidity returned error code %s", out.ErrCode)))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "account liquidity read")

	return &domain.AccountLiquidity{
		Liquidity: out.Liquidity,
		Shortfall: out.Shortfall,
	}, nil
}

// EnteredMarkets reads the cToken addresses the account has entered as
// collateral.
func (r *Reader) EnteredMarkets(ctx context.Context, account common.Address) ([]common.Address, error) {
	ctx, span := r.tracer.Start(ctx, "kilolend.entered_markets",
		trace.WithAttributes(attribute.String("account", account.Hex())),
	)
	defer span.End()

	data, err := r.comptrollerABI.Pack("getAssetsIn", account)
	if err != nil {
		return nil, fmt.Errorf("failed to encode getAssetsIn: %w", err)
	}

	ret, err := r.chain.Call(ctx, r.comptroller, data)
	if err != nil {
		r.metrics.readErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var entered []common.Address
	if err := r.comptrollerABI.UnpackIntoInterface(&entered, "getAssetsIn", ret); err != nil {
		return nil, fmt.Errorf("failed to decode getAssetsIn: %w", err)
	}

	span.SetAttributes(attribute.Int("entered", len(entered)))
	span.SetStatus(codes.Ok, "entered markets read")

	return entered, nil
}

// parseMarket decodes one market's result chunk: the cToken views in
// marketViewMethods order followed by the comptroller markets() call.
func (r *Reader) parseMarket(ref domain.MarketRef, results []chaindomain.CallResult) (*domain.Market, error) {
	if len(results) != len(marketViewMethods)+1 {
		return nil, fmt.Errorf("market %s batch returned %d results, want %d", ref.Symbol, len(results), len(marketViewMethods)+1)
	}

	views := make(map[string]*big.Int, len(marketViewMethods))
	for i, method := range marketViewMethods {
		res := results[i]
		if !res.Success {
			return nil, apperror.New(apperror.CodeContractCallFailed,
				apperror.WithMessage(fmt.Sprintf("market %s %s call reverted", ref.Symbol, method)))
		}
		var value *big.Int
		if err := r.cTokenABI.UnpackIntoInterface(&value, method, res.ReturnData); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", method, err)
		}
		views[method] = value
	}

	listingRes := results[len(marketViewMethods)]
	if !listingRes.Success {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithMessage(fmt.Sprintf("comptroller markets call reverted for %s", ref.Symbol)))
	}
	var listing marketsResult
	if err := r.comptrollerABI.UnpackIntoInterface(&listing, "markets", listingRes.ReturnData); err != nil {
		return nil, fmt.Errorf("failed to decode markets: %w", err)
	}

	collateralFactor := listing.CollateralFactorMantissa
	if !listing.IsListed {
		collateralFactor = new(big.Int)
	}

	return &domain.Market{
		Ref:                ref,
		ExchangeRate:       views["exchangeRateStored"],
		SupplyRatePerBlock: views["supplyRatePerBlock"],
		BorrowRatePerBlock: views["borrowRatePerBlock"],
		Cash:               views["getCash"],
		TotalBorrows:       views["totalBorrows"],
		TotalReserves:      views["totalReserves"],
		TotalSupply:        views["totalSupply"],
		CollateralFactor:   collateralFactor,
	}, nil
}
