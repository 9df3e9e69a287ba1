package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tamago-labs/kaia-mcp/business/pricing/domain"
	"github.com/tamago-labs/kaia-mcp/internal/apperror"
	"github.com/tamago-labs/kaia-mcp/internal/config"
	"github.com/tamago-labs/kaia-mcp/internal/logger"
)

const (
	tracerName = "pricing"

	defaultCacheTTL = 60 * time.Second
)

type cachedPrice struct {
	price decimal.Decimal
	at    time.Time
}

// PriceService serves USD token prices. Live prices come from the feed
// and are cached for the configured TTL; when the feed fails, a stale
// cached price is served before the static fallback. A configured
// symbol therefore always resolves to some price, marked stale when it
// is not live.
type PriceService struct {
	provider PriceProvider
	coinIDs  map[string]string
	fallback map[string]decimal.Decimal
	cacheTTL time.Duration

	mu    sync.RWMutex
	cache map[string]cachedPrice

	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewPriceService creates a PriceService from the feed configuration.
func NewPriceService(provider PriceProvider, cfg config.PriceFeedConfig, log logger.LoggerInterface) *PriceService {
	coinIDs := make(map[string]string, len(cfg.CoinIDs))
	for sym, id := range cfg.CoinIDs {
		coinIDs[strings.ToUpper(sym)] = id
	}
	fallback := make(map[string]decimal.Decimal, len(cfg.FallbackPrices))
	for sym, price := range cfg.FallbackPricesDecimal() {
		fallback[strings.ToUpper(sym)] = price
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &PriceService{
		provider: provider,
		coinIDs:  coinIDs,
		fallback: fallback,
		cacheTTL: ttl,
		cache:    make(map[string]cachedPrice),
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
}

// Symbols returns every configured symbol, sorted.
func (s *PriceService) Symbols() []string {
	seen := make(map[string]bool, len(s.coinIDs)+len(s.fallback))
	for sym := range s.coinIDs {
		seen[sym] = true
	}
	for sym := range s.fallback {
		seen[sym] = true
	}

	symbols := make([]string, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

// TokenPrices resolves USD prices for the given symbols, or for every
// configured symbol when none are given. Symbols with no coin id and no
// fallback are omitted. One feed request covers all cache misses.
func (s *PriceService) TokenPrices(ctx context.Context, symbols []string) ([]domain.TokenPrice, error) {
	ctx, span := s.tracer.Start(ctx, "pricing.token_prices",
		trace.WithAttributes(attribute.Int("symbols", len(symbols))),
	)
	defer span.End()

	if len(symbols) == 0 {
		symbols = s.Symbols()
	}

	ordered := make([]string, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		ordered = append(ordered, sym)
	}

	resolved := make(map[string]domain.TokenPrice, len(ordered))
	var toFetch []string
	for _, sym := range ordered {
		if price, ok := s.cached(sym, s.cacheTTL); ok {
			resolved[sym] = price
			continue
		}
		if _, ok := s.coinIDs[sym]; ok {
			toFetch = append(toFetch, sym)
			continue
		}
		if price, ok := s.fallbackPrice(sym); ok {
			resolved[sym] = price
			continue
		}
		s.logger.Warn(ctx, "no price source for symbol", "symbol", sym)
	}

	if len(toFetch) > 0 {
		s.fetchInto(ctx, toFetch, resolved)
	}

	prices := make([]domain.TokenPrice, 0, len(resolved))
	for _, sym := range ordered {
		if price, ok := resolved[sym]; ok {
			prices = append(prices, price)
		}
	}

	if len(prices) == 0 && len(ordered) > 0 {
		err := apperror.New(apperror.CodePriceUnavailable,
			apperror.WithMessage(fmt.Sprintf("no prices available for %s", strings.Join(ordered, ", "))))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("prices", len(prices)))
	span.SetStatus(codes.Ok, "prices resolved")

	return prices, nil
}

// USDPrice resolves one symbol's USD price.
func (s *PriceService) USDPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	prices, err := s.TokenPrices(ctx, []string{symbol})
	if err != nil {
		return decimal.Zero, err
	}
	if len(prices) == 0 {
		return decimal.Zero, apperror.New(apperror.CodePriceUnavailable,
			apperror.WithMessage(fmt.Sprintf("no price available for %q", symbol)))
	}
	return prices[0].PriceUSD, nil
}

// fetchInto fetches live prices for the given symbols in one request
// and degrades per symbol on failure.
func (s *PriceService) fetchInto(ctx context.Context, symbols []string, resolved map[string]domain.TokenPrice) {
	ids := make([]string, len(symbols))
	for i, sym := range symbols {
		ids[i] = s.coinIDs[sym]
	}

	live, err := s.provider.FetchUSDPrices(ctx, ids)
	if err != nil {
		s.logger.Warn(ctx, "price feed request failed, degrading",
			"symbols", symbols,
			"error", err.Error(),
		)
		for _, sym := range symbols {
			s.degrade(ctx, sym, resolved)
		}
		return
	}

	now := time.Now()
	for _, sym := range symbols {
		price, ok := live[s.coinIDs[sym]]
		if !ok {
			s.logger.Warn(ctx, "price feed returned no price", "symbol", sym)
			s.degrade(ctx, sym, resolved)
			continue
		}

		s.store(sym, price, now)
		resolved[sym] = domain.TokenPrice{
			Symbol:    sym,
			PriceUSD:  price,
			Source:    domain.SourceLive,
			FetchedAt: now,
		}
	}
}

// degrade serves the best non-live price for a symbol: stale cache
// first, static fallback second.
func (s *PriceService) degrade(ctx context.Context, sym string, resolved map[string]domain.TokenPrice) {
	if price, ok := s.cached(sym, 0); ok {
		price.Stale = true
		resolved[sym] = price
		return
	}
	if price, ok := s.fallbackPrice(sym); ok {
		resolved[sym] = price
		return
	}
	s.logger.Warn(ctx, "no cached or fallback price", "symbol", sym)
}

// cached returns the cache entry for sym. A zero maxAge accepts any
// age; otherwise entries older than maxAge are rejected.
func (s *PriceService) cached(sym string, maxAge time.Duration) (domain.TokenPrice, bool) {
	s.mu.RLock()
	entry, ok := s.cache[sym]
	s.mu.RUnlock()

	if !ok {
		return domain.TokenPrice{}, false
	}
	if maxAge > 0 && time.Since(entry.at) >= maxAge {
		return domain.TokenPrice{}, false
	}

	return domain.TokenPrice{
		Symbol:    sym,
		PriceUSD:  entry.price,
		Source:    domain.SourceCached,
		FetchedAt: entry.at,
	}, true
}

func (s *PriceService) fallbackPrice(sym string) (domain.TokenPrice, bool) {
	price, ok := s.fallback[sym]
	if !ok {
		return domain.TokenPrice{}, false
	}
	return domain.TokenPrice{
		Symbol:    sym,
		PriceUSD:  price,
		Source:    domain.SourceFallback,
		Stale:     true,
		FetchedAt: time.Now(),
	}, true
}

func (s *PriceService) store(sym string, price decimal.Decimal, at time.Time) {
	s.mu.Lock()
	s.cache[sym] = cachedPrice{price: price, at: at}
	s.mu.Unlock()
}
