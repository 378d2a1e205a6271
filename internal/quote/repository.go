package quote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that no quote is stored for the requested symbol.
var ErrNotFound = errors.New("quote not found")

// Quote is an external price quote stored for a feed symbol.
type Quote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Repository defines persistent storage for external quotes.
type Repository interface {
	Save(ctx context.Context, symbol string, price decimal.Decimal) error
	Get(ctx context.Context, symbol string) (Quote, error)
	All(ctx context.Context) ([]Quote, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL quote repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Save(ctx context.Context, symbol string, price decimal.Decimal) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO price_quotes (symbol, price, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (symbol) DO UPDATE SET price = $2, updated_at = NOW()`,
		symbol, price)
	if err != nil {
		return fmt.Errorf("saving quote for %s: %w", symbol, err)
	}
	return nil
}

func (r *PgRepository) Get(ctx context.Context, symbol string) (Quote, error) {
	var q Quote
	err := r.pool.QueryRow(ctx,
		`SELECT symbol, price, updated_at FROM price_quotes WHERE symbol = $1`,
		symbol).Scan(&q.Symbol, &q.Price, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, fmt.Errorf("%w: %s", ErrNotFound, symbol)
		}
		return Quote{}, fmt.Errorf("getting quote for %s: %w", symbol, err)
	}
	return q, nil
}

func (r *PgRepository) All(ctx context.Context) ([]Quote, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT symbol, price, updated_at FROM price_quotes ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("getting all quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(&q.Symbol, &q.Price, &q.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

// MemoryRepository implements Repository in memory, for tests and for
// running the engine without a database.
type MemoryRepository struct {
	mu     sync.RWMutex
	quotes map[string]Quote
	now    func() time.Time
}

// NewMemoryRepository creates an empty in-memory quote repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		quotes: make(map[string]Quote),
		now:    time.Now,
	}
}

func (r *MemoryRepository) Save(_ context.Context, symbol string, price decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotes[symbol] = Quote{Symbol: symbol, Price: price, UpdatedAt: r.now()}
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, symbol string) (Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.quotes[symbol]
	if !ok {
		return Quote{}, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	return q, nil
}

func (r *MemoryRepository) All(_ context.Context) ([]Quote, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	quotes := make([]Quote, 0, len(r.quotes))
	for _, q := range r.quotes {
		quotes = append(quotes, q)
	}
	return quotes, nil
}
