// Package journal persists the fund's issuance and redemption events.
package journal

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/unitfund/fundd/internal/domain"
)

// Repository defines persistent storage for fund events.
type Repository interface {
	Record(ctx context.Context, ev domain.Event) error
	List(ctx context.Context, limit int) ([]domain.Event, error)
	ListByParty(ctx context.Context, party string, limit int) ([]domain.Event, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL event repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Record(ctx context.Context, ev domain.Event) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO fund_events (kind, party, shares, amount, price, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		string(ev.Kind), ev.Party, ev.Shares, ev.Amount, ev.Price, ev.OccurredAt)
	if err != nil {
		return fmt.Errorf("recording %s event: %w", ev.Kind, err)
	}
	return nil
}

func (r *PgRepository) List(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT kind, party, shares, amount, price, occurred_at
		 FROM fund_events
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (r *PgRepository) ListByParty(ctx context.Context, party string, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT kind, party, shares, amount, price, occurred_at
		 FROM fund_events
		 WHERE party = $1
		 ORDER BY occurred_at DESC, id DESC
		 LIMIT $2`, party, limit)
	if err != nil {
		return nil, fmt.Errorf("listing events for %s: %w", party, err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

type pgRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEvents(rows pgRows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		var ev domain.Event
		var kind string
		if err := rows.Scan(&kind, &ev.Party, &ev.Shares, &ev.Amount, &ev.Price, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		ev.Kind = domain.EventKind(kind)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

// MemoryRepository implements Repository in memory, for tests and for
// running the engine without a database.
type MemoryRepository struct {
	mu     sync.RWMutex
	events []domain.Event
}

// NewMemoryRepository creates an empty in-memory event repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Record(_ context.Context, ev domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *MemoryRepository) List(_ context.Context, limit int) ([]domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return newestFirst(r.events, limit), nil
}

func (r *MemoryRepository) ListByParty(_ context.Context, party string, limit int) ([]domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := lo.Filter(r.events, func(ev domain.Event, _ int) bool {
		return ev.Party == party
	})
	return newestFirst(matched, limit), nil
}

// newestFirst returns up to limit events in reverse insertion order.
func newestFirst(events []domain.Event, limit int) []domain.Event {
	if limit <= 0 {
		limit = 100
	}
	reversed := lo.Reverse(append([]domain.Event(nil), events...))
	if len(reversed) > limit {
		reversed = reversed[:limit]
	}
	return reversed
}
