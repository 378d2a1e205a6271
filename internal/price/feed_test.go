package price

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unitfund/fundd/internal/domain"
	"github.com/unitfund/fundd/internal/quote"
)

type mockSource struct {
	quotes map[string]quote.Quote
	calls  int
}

func (m *mockSource) Quote(_ context.Context, symbol string) (quote.Quote, error) {
	m.calls++
	q, ok := m.quotes[symbol]
	if !ok {
		return quote.Quote{}, errors.New("no quote")
	}
	return q, nil
}

var gold = domain.Asset{Code: "GOLD", Precision: 7, FeedSymbol: "gold"}

func TestPriceResolvesFeedSymbol(t *testing.T) {
	src := &mockSource{quotes: map[string]quote.Quote{
		"gold": {Symbol: "gold", Price: decimal.NewFromInt(61), UpdatedAt: time.Now()},
	}}
	feed := NewFeed(src)

	pq, err := feed.Price(context.Background(), gold)
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if !pq.Price.Equal(decimal.NewFromInt(61)) {
		t.Errorf("price = %s, want 61", pq.Price)
	}
	if pq.Precision != gold.Precision {
		t.Errorf("precision = %d, want %d", pq.Precision, gold.Precision)
	}
}

func TestPriceCaches(t *testing.T) {
	src := &mockSource{quotes: map[string]quote.Quote{
		"gold": {Symbol: "gold", Price: decimal.NewFromInt(61), UpdatedAt: time.Now()},
	}}
	feed := NewFeed(src)

	ctx := context.Background()
	feed.Price(ctx, gold)
	feed.Price(ctx, gold)

	if src.calls != 1 {
		t.Errorf("source calls = %d, want 1 (second hit from cache)", src.calls)
	}
}

func TestPricePropagatesSourceFailure(t *testing.T) {
	feed := NewFeed(&mockSource{})
	if _, err := feed.Price(context.Background(), gold); err == nil {
		t.Fatal("expected error from empty source")
	}
}
