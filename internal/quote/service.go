package quote

import (
	"context"
	"fmt"
	"time"
)

// Service fetches external prices and serves them from the quote store.
type Service struct {
	client  *Client
	repo    Repository
	symbols []string
	stale   time.Duration
	now     func() time.Time
}

// NewService creates a quote Service covering the given feed symbols.
// Quotes older than staleThreshold are refused rather than served.
func NewService(client *Client, repo Repository, symbols []string, staleThreshold time.Duration) *Service {
	if client == nil {
		panic("quote.NewService: client is nil")
	}
	if repo == nil {
		panic("quote.NewService: repo is nil")
	}
	return &Service{
		client:  client,
		repo:    repo,
		symbols: symbols,
		stale:   staleThreshold,
		now:     time.Now,
	}
}

// FetchAndStore fetches all covered symbols from the quote API and stores
// them in the repository.
func (s *Service) FetchAndStore(ctx context.Context) error {
	prices, err := s.client.FetchPrices(ctx, s.symbols)
	if err != nil {
		return fmt.Errorf("fetching external prices: %w", err)
	}

	for symbol, price := range prices {
		if err := s.repo.Save(ctx, symbol, price); err != nil {
			return fmt.Errorf("storing quote for %s: %w", symbol, err)
		}
	}
	return nil
}

// Quote returns the stored quote for symbol, rejecting stale entries.
func (s *Service) Quote(ctx context.Context, symbol string) (Quote, error) {
	q, err := s.repo.Get(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}
	if s.stale > 0 && s.now().Sub(q.UpdatedAt) > s.stale {
		return Quote{}, fmt.Errorf("quote for %s is stale: updated %s", symbol, q.UpdatedAt.Format(time.RFC3339))
	}
	return q, nil
}
