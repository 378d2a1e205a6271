package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unitfund/fundd/internal/domain"
	"github.com/unitfund/fundd/internal/valuation"
)

// Marker runs a mark-to-market pass and commits the result.
type Marker interface {
	MarkToMarket(ctx context.Context) (valuation.Mark, error)
}

// Record is the persisted payload of one snapshot: the mark together with
// the committed fund state at that instant.
type Record struct {
	GAV          decimal.Decimal `json:"gav"`
	NAV          decimal.Decimal `json:"nav"`
	Delta        decimal.Decimal `json:"delta"`
	SharePrice   decimal.Decimal `json:"sharePrice"`
	TotalShares  decimal.Decimal `json:"totalShares"`
	SumInvested  decimal.Decimal `json:"sumInvested"`
	SumWithdrawn decimal.Decimal `json:"sumWithdrawn"`
	At           time.Time       `json:"at"`
}

// Service manages snapshot generation and retrieval for one fund.
type Service struct {
	fund   *domain.Fund
	marker Marker
	repo   Repository
	slug   string
	name   string
}

// NewService creates a snapshot service for the fund identified by slug.
func NewService(fund *domain.Fund, marker Marker, repo Repository, slug, name string) *Service {
	if fund == nil {
		panic("snapshot.NewService: fund is nil")
	}
	if marker == nil {
		panic("snapshot.NewService: marker is nil")
	}
	if repo == nil {
		panic("snapshot.NewService: repo is nil")
	}
	return &Service{fund: fund, marker: marker, repo: repo, slug: slug, name: name}
}

// dayOf normalizes a timestamp to midnight UTC, the key snapshots are
// stored and looked up under.
func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Generate marks the fund to market and stores the resulting state under the
// given date, normalized to midnight UTC. Re-generating for the same date
// overwrites the stored record.
func (s *Service) Generate(ctx context.Context, date time.Time) (Record, error) {
	fundID, err := s.repo.EnsureFund(ctx, s.slug, s.name)
	if err != nil {
		return Record{}, fmt.Errorf("ensuring fund: %w", err)
	}

	mark, err := s.marker.MarkToMarket(ctx)
	if err != nil {
		return Record{}, fmt.Errorf("marking to market: %w", err)
	}

	state := s.fund.State()
	rec := Record{
		GAV:          mark.GAV,
		NAV:          mark.NAV,
		Delta:        mark.Delta,
		SharePrice:   state.SharePrice,
		TotalShares:  state.TotalShares,
		SumInvested:  state.SumInvested,
		SumWithdrawn: state.SumWithdrawn,
		At:           mark.At,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := s.repo.Save(ctx, fundID, dayOf(date), data); err != nil {
		return Record{}, fmt.Errorf("saving snapshot: %w", err)
	}
	return rec, nil
}

// GetLatest retrieves the most recent snapshot.
func (s *Service) GetLatest(ctx context.Context) (*Snapshot, error) {
	return s.repo.GetLatest(ctx, s.slug)
}

// GetByDate retrieves the snapshot for a specific date.
func (s *Service) GetByDate(ctx context.Context, date time.Time) (*Snapshot, error) {
	return s.repo.GetByDate(ctx, s.slug, dayOf(date))
}

// List retrieves recent snapshots, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Snapshot, error) {
	return s.repo.List(ctx, s.slug, limit)
}
