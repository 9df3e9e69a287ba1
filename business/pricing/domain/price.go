// Package domain contains the core domain types for the pricing context.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source tells where a price came from.
type Source string

const (
	// SourceLive is a price fetched from the feed for this request.
	SourceLive Source = "live"

	// SourceCached is a price served from the in-memory cache.
	SourceCached Source = "cached"

	// SourceFallback is a static configured price, served when the feed
	// and the cache have nothing.
	SourceFallback Source = "fallback"
)

// TokenPrice is one token's USD price with provenance.
type TokenPrice struct {
	Symbol   string
	PriceUSD decimal.Decimal
	Source   Source

	// Stale marks prices past the cache TTL and static fallbacks.
	Stale bool

	// FetchedAt is when the price was obtained from the feed. For
	// fallback prices it is the serving time.
	FetchedAt time.Time
}
