package worker

import (
	"context"
	"log/slog"
	"time"
)

// QuoteFetcher pulls fresh prices from the external feed into storage.
type QuoteFetcher interface {
	FetchAndStore(ctx context.Context) error
}

// QuoteWorker keeps the stored price quotes fresh. Valuation refuses stale
// quotes, so the loop fetches once at startup and then on every tick.
type QuoteWorker struct {
	fetcher  QuoteFetcher
	interval time.Duration
}

// NewQuoteWorker creates a new QuoteWorker.
func NewQuoteWorker(fetcher QuoteFetcher, interval time.Duration) *QuoteWorker {
	return &QuoteWorker{fetcher: fetcher, interval: interval}
}

// fetch runs one fetch pass and logs the outcome.
func (w *QuoteWorker) fetch(ctx context.Context) {
	if err := w.fetcher.FetchAndStore(ctx); err != nil {
		slog.Error("QuoteWorker: fetch failed", "error", err)
		return
	}
	slog.Info("QuoteWorker: fetch completed")
}

// Run starts the quote worker loop. It blocks until the context is cancelled.
func (w *QuoteWorker) Run(ctx context.Context) {
	slog.Info("QuoteWorker: starting", "interval", w.interval)

	w.fetch(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("QuoteWorker: shutting down")
			return
		case <-ticker.C:
			w.fetch(ctx)
		}
	}
}
