// Package price serves per-asset price quotes to the valuation engine.
//
// Feed resolves an asset's registry feed symbol through a quote source and
// stamps the result with the asset's configured precision. A short-lived
// cache keeps repeated valuations of the same asset from hammering the
// quote store.
package price

import (
	"context"
	"fmt"

	"github.com/unitfund/fundd/internal/domain"
	"github.com/unitfund/fundd/internal/quote"
)

// QuoteSource serves stored external quotes by feed symbol.
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (quote.Quote, error)
}

// Feed implements the price-feed contract consumed by the valuation engine.
type Feed struct {
	source QuoteSource
	cache  *quoteCache
}

// NewFeed creates a price feed over the given quote source.
func NewFeed(source QuoteSource) *Feed {
	if source == nil {
		panic("price.NewFeed: source is nil")
	}
	return &Feed{
		source: source,
		cache:  newQuoteCache(),
	}
}

// Price returns the asset's price in base currency. Feed failures propagate
// to the caller; valuation queries fail rather than price against nothing.
func (f *Feed) Price(ctx context.Context, asset domain.Asset) (domain.PriceQuote, error) {
	if cached, ok := f.cache.get(asset.Code); ok {
		return cached, nil
	}

	q, err := f.source.Quote(ctx, asset.FeedSymbol)
	if err != nil {
		return domain.PriceQuote{}, fmt.Errorf("pricing %s: %w", asset.Code, err)
	}

	pq := domain.PriceQuote{
		Asset:     asset,
		Price:     q.Price,
		Precision: asset.Precision,
		At:        q.UpdatedAt,
	}
	f.cache.set(asset.Code, pq)
	return pq, nil
}
