package app

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tamago-labs/kaia-mcp/business/dex/domain"
	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/asset"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
)

const tracerName = "dex"

// QuoteRequest is a swap quote query. TokenIn and TokenOut accept a
// known symbol or a 0x address. AmountIn is a human-unit decimal string.
type QuoteRequest struct {
	TokenIn          string
	TokenOut         string
	AmountIn         string
	AmountInDecimals int   // 0 = resolve from registry or chain
	SlippageBps      int64
}

// PoolInfo is a display row for one live pool of a pair.
type PoolInfo struct {
	FeeTier         domain.FeeTier
	PoolAddress     common.Address
	Liquidity       string
	PriceToken1Per0 decimal.Decimal
	Tick            int64
	Token0          common.Address
	Token1          common.Address
}

// QuoteService computes swap quotes from raw pool state.
//
// Each request resolves tokens, classifies the trade size for probe
// order, reads every configured fee tier's pool fresh, computes per-tier
// candidates, and selects the best by combined score. Tier probes fan
// out concurrently; results are assembled in probe order so selection
// stays deterministic.
type QuoteService struct {
	pools              PoolReader
	resolver           TokenResolver
	wkaia              common.Address
	defaultSlippageBps int64

	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewQuoteService creates a QuoteService.
func NewQuoteService(
	pools PoolReader,
	resolver TokenResolver,
	wkaia common.Address,
	defaultSlippageBps int64,
	log logger.LoggerInterface,
) *QuoteService {
	return &QuoteService{
		pools:              pools,
		resolver:           resolver,
		wkaia:              wkaia,
		defaultSlippageBps: defaultSlippageBps,
		logger:             log,
		tracer:             otel.Tracer(tracerName),
	}
}

// GetQuote computes a swap quote for the requested pair and amount.
func (s *QuoteService) GetQuote(ctx context.Context, req QuoteRequest) (*domain.SwapQuote, error) {
	ctx, span := s.tracer.Start(ctx, "dex.get_quote",
		trace.WithAttributes(
			attribute.String("token_in", req.TokenIn),
			attribute.String("token_out", req.TokenOut),
			attribute.String("amount_in", req.AmountIn),
		),
	)
	defer span.End()

	// Parameter validation happens before any network I/O. Defaulting of
	// an absent slippage argument is the tool layer's job; by the time a
	// request reaches here the tolerance is explicit.
	if err := domain.ValidateSlippageBps(req.SlippageBps); err != nil {
		span.RecordError(err)
		return nil, err
	}
	slippageBps := req.SlippageBps

	tokenIn, tokenOut, err := s.resolvePair(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	amountIn, err := asset.ParseString(tokenIn, req.AmountIn)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("amount %q for %s", req.AmountIn, tokenIn.Symbol())))
	}
	if !amountIn.IsPositive() {
		return nil, apperror.New(apperror.CodeInvalidAmount,
			apperror.WithContext("amount in must be positive"))
	}

	// Pools trade the wrapped token; native KAIA maps to WKAIA.
	addrIn := s.poolToken(tokenIn)
	addrOut := s.poolToken(tokenOut)
	if addrIn == addrOut {
		return nil, apperror.New(apperror.CodeInvalidPair,
			apperror.WithContext(fmt.Sprintf("%s and %s are the same pool token", tokenIn.Symbol(), tokenOut.Symbol())))
	}

	tiers := domain.OrderedTiersForAmount(amountIn.Raw(), tokenIn.Decimals())
	span.SetAttributes(attribute.Int("tiers_probed", len(tiers)))

	candidates := s.probeTiers(ctx, tiers, addrIn, addrOut, amountIn.Raw())
	if len(candidates) == 0 {
		err := apperror.New(apperror.CodeNoPool,
			apperror.WithMessage(fmt.Sprintf("no available pools for %s/%s", tokenIn.Symbol(), tokenOut.Symbol())))
		span.RecordError(err)
		span.SetStatus(codes.Error, "no pools")
		return nil, err
	}

	best, err := domain.SelectBest(candidates)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	minOut, err := domain.ApplyMinimumOut(best.AmountOutRaw, slippageBps)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	quote := &domain.SwapQuote{
		TokenIn:            tokenIn,
		TokenOut:           tokenOut,
		AmountIn:           amountIn,
		AmountOut:          asset.NewAmount(tokenOut, best.AmountOutRaw),
		AmountOutMinimum:   asset.NewAmount(tokenOut, minOut),
		FeeTierUsed:        best.Pool.Fee,
		PoolAddress:        best.Pool.PoolAddress,
		PriceImpactPercent: best.PriceImpactPercent,
		LiquidityScore:     best.LiquidityScore,
		SlippageBps:        slippageBps,
		ExecutionPrice:     executionPrice(amountIn, asset.NewAmount(tokenOut, best.AmountOutRaw)),
	}

	s.logger.Info(ctx, "swap quote computed",
		"pair", tokenIn.Symbol()+"/"+tokenOut.Symbol(),
		"amount_in", amountIn.String(),
		"amount_out", quote.AmountOut.String(),
		"fee_tier", int64(quote.FeeTierUsed),
		"pool", quote.PoolAddress.Hex())

	span.SetAttributes(
		attribute.Int64("fee_tier", int64(quote.FeeTierUsed)),
		attribute.Float64("price_impact", quote.PriceImpactPercent),
	)
	span.SetStatus(codes.Ok, "quoted")

	return quote, nil
}

// probeTiers reads each tier's pool and computes a candidate quote.
// Probes run concurrently; a failed probe only removes that tier.
// Results keep probe order so tie-breaks stay deterministic.
func (s *QuoteService) probeTiers(ctx context.Context, tiers []domain.FeeTier, tokenIn, tokenOut common.Address, amountInRaw *big.Int) []domain.Candidate {
	type probeResult struct {
		candidate domain.Candidate
		ok        bool
	}

	results := make([]probeResult, len(tiers))
	g, gctx := errgroup.WithContext(ctx)

	for i, tier := range tiers {
		g.Go(func() error {
			pool, err := s.pools.GetPoolState(gctx, tokenIn, tokenOut, tier)
			if err != nil {
				s.logger.Debug(gctx, "fee tier skipped", "fee_tier", int64(tier), "reason", err.Error())
				return nil
			}

			out, err := domain.ComputeAmountOut(pool, tokenIn, amountInRaw)
			if err != nil {
				s.logger.Debug(gctx, "fee tier skipped", "fee_tier", int64(tier), "reason", err.Error())
				return nil
			}

			results[i] = probeResult{candidate: domain.NewCandidate(pool, amountInRaw, out), ok: true}
			return nil
		})
	}

	// Probe goroutines never return errors; Wait only joins them.
	_ = g.Wait()

	candidates := make([]domain.Candidate, 0, len(tiers))
	for _, r := range results {
		if r.ok {
			candidates = append(candidates, r.candidate)
		}
	}
	return candidates
}

// ListPools reads every live pool for a pair for display.
func (s *QuoteService) ListPools(ctx context.Context, tokenInRef, tokenOutRef string) ([]PoolInfo, *asset.Asset, *asset.Asset, error) {
	ctx, span := s.tracer.Start(ctx, "dex.list_pools")
	defer span.End()

	tokenIn, err := s.resolver.Resolve(ctx, tokenInRef, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	tokenOut, err := s.resolver.Resolve(ctx, tokenOutRef, 0)
	if err != nil {
		return nil, nil, nil, err
	}

	pools, err := s.pools.AllPoolStates(ctx, s.poolToken(tokenIn), s.poolToken(tokenOut))
	if err != nil {
		span.RecordError(err)
		return nil, nil, nil, err
	}

	dec0, dec1 := s.pairDecimals(tokenIn, tokenOut)

	infos := make([]PoolInfo, 0, len(pools))
	for _, p := range pools {
		liq := "0"
		if p.Liquidity != nil {
			liq = p.Liquidity.String()
		}
		infos = append(infos, PoolInfo{
			FeeTier:         p.Fee,
			PoolAddress:     p.PoolAddress,
			Liquidity:       liq,
			PriceToken1Per0: domain.PriceToken1PerToken0(p.SqrtPriceX96, dec0, dec1),
			Tick:            p.Tick,
			Token0:          p.Token0,
			Token1:          p.Token1,
		})
	}

	span.SetAttributes(attribute.Int("pools", len(infos)))
	return infos, tokenIn, tokenOut, nil
}

// DefaultSlippageBps returns the configured default slippage.
func (s *QuoteService) DefaultSlippageBps() int64 {
	return s.defaultSlippageBps
}

// WrappedNative returns the WKAIA address used in pool paths.
func (s *QuoteService) WrappedNative() common.Address {
	return s.wkaia
}

func (s *QuoteService) resolvePair(ctx context.Context, req QuoteRequest) (*asset.Asset, *asset.Asset, error) {
	tokenIn, err := s.resolver.Resolve(ctx, req.TokenIn, req.AmountInDecimals)
	if err != nil {
		return nil, nil, err
	}
	tokenOut, err := s.resolver.Resolve(ctx, req.TokenOut, 0)
	if err != nil {
		return nil, nil, err
	}
	return tokenIn, tokenOut, nil
}

// poolToken maps an asset to the address used in pool lookups.
func (s *QuoteService) poolToken(a *asset.Asset) common.Address {
	if a.IsNative() {
		return s.wkaia
	}
	return a.Address()
}

// pairDecimals orders the pair's decimals by the pool's token0 < token1
// address ordering.
func (s *QuoteService) pairDecimals(tokenIn, tokenOut *asset.Asset) (uint8, uint8) {
	addrIn, addrOut := s.poolToken(tokenIn), s.poolToken(tokenOut)
	if bytesCompare(addrIn, addrOut) < 0 {
		return tokenIn.Decimals(), tokenOut.Decimals()
	}
	return tokenOut.Decimals(), tokenIn.Decimals()
}

func bytesCompare(a, b common.Address) int {
	return bytes.Compare(a.Bytes(), b.Bytes())
}

// executionPrice derives the human tokenOut/tokenIn rate. Display only.
func executionPrice(in, out asset.Amount) decimal.Decimal {
	inHuman := in.ToDecimal()
	if inHuman.IsZero() {
		return decimal.Zero
	}
	return out.ToDecimal().DivRound(inHuman, 18)
}
