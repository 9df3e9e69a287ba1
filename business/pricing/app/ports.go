// Package app contains application services and port definitions for the pricing context.
package app

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceProvider fetches live USD prices from an external feed. Keys of
// the returned map are the feed's coin ids, not token symbols; ids the
// feed does not know are absent from the map.
type PriceProvider interface {
	FetchUSDPrices(ctx context.Context, coinIDs []string) (map[string]decimal.Decimal, error)
}
