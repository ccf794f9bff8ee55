// Package pricesource fetches current market prices and display names for
// inventory items from an external marketplace.
package pricesource

import (
	"context"

	"github.com/shopspring/decimal"
)

// Source looks up market data for an item reference (a listing link or a
// market item name).
type Source interface {
	// Name returns the source's display name (e.g., "Steam Community Market").
	Name() string

	// FetchPrice returns the current price of ref. The bool is false when no
	// price is available for any reason; failures are logged, never returned.
	FetchPrice(ctx context.Context, ref string) (decimal.Decimal, bool)

	// FetchName derives the item's display name from ref, or "" if none can be derived.
	FetchName(ref string) string
}
