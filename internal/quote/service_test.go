package quote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestFetchAndStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "symbols=") {
			t.Errorf("missing symbols param: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"gold":{"price":"61.25"},"bitcoin":{"price":"56210.4"}}`))
	}))
	defer srv.Close()

	repo := NewMemoryRepository()
	svc := NewService(NewClient(srv.URL, time.Millisecond, 1), repo, []string{"gold", "bitcoin"}, time.Hour)

	if err := svc.FetchAndStore(context.Background()); err != nil {
		t.Fatalf("fetch and store: %v", err)
	}

	q, err := svc.Quote(context.Background(), "gold")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if !q.Price.Equal(dec("61.25")) {
		t.Errorf("gold = %s, want 61.25", q.Price)
	}
}

func TestFetchRetriesOnServerError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"gold":{"price":"60"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Millisecond, 2)
	prices, err := client.FetchPrices(context.Background(), []string{"gold"})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if !prices["gold"].Equal(dec("60")) {
		t.Errorf("gold = %s, want 60", prices["gold"])
	}
}

func TestFetchGivesUpOnClientError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Millisecond, 3)
	if _, err := client.FetchPrices(context.Background(), []string{"gold"}); err == nil {
		t.Fatal("expected error on HTTP 400")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 4xx)", calls)
	}
}

func TestQuoteRejectsStale(t *testing.T) {
	repo := NewMemoryRepository()
	repo.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	repo.Save(context.Background(), "gold", dec("60"))

	svc := NewService(NewClient("http://unused", 0, 0), repo, []string{"gold"}, time.Hour)
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC) }

	if _, err := svc.Quote(context.Background(), "gold"); err == nil {
		t.Fatal("expected stale-quote error")
	}
}

func TestQuoteUnknownSymbol(t *testing.T) {
	svc := NewService(NewClient("http://unused", 0, 0), NewMemoryRepository(), nil, time.Hour)
	if _, err := svc.Quote(context.Background(), "gold"); err == nil {
		t.Fatal("expected not-found error")
	}
}
