package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates that the requested snapshot was not found.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot represents a stored fund state snapshot.
type Snapshot struct {
	ID           int             `json:"id"`
	FundID       int             `json:"fundId"`
	SnapshotDate time.Time       `json:"snapshotDate"`
	Data         json.RawMessage `json:"data"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Repository defines persistent storage for snapshots.
type Repository interface {
	Save(ctx context.Context, fundID int, date time.Time, data json.RawMessage) error
	GetLatest(ctx context.Context, slug string) (*Snapshot, error)
	GetByDate(ctx context.Context, slug string, date time.Time) (*Snapshot, error)
	List(ctx context.Context, slug string, limit int) ([]Snapshot, error)
	EnsureFund(ctx context.Context, slug, name string) (int, error)
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL snapshot repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Save(ctx context.Context, fundID int, date time.Time, data json.RawMessage) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO fund_snapshots (fund_id, snapshot_date, data)
		 VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (fund_id, snapshot_date)
		 DO UPDATE SET data = $3::jsonb`,
		fundID, date, data)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (r *PgRepository) GetLatest(ctx context.Context, slug string) (*Snapshot, error) {
	var s Snapshot
	err := r.pool.QueryRow(ctx,
		`SELECT fs.id, fs.fund_id, fs.snapshot_date, fs.data, fs.created_at
		 FROM fund_snapshots fs
		 JOIN funds f ON f.id = fs.fund_id
		 WHERE f.slug = $1
		 ORDER BY fs.snapshot_date DESC
		 LIMIT 1`, slug).Scan(&s.ID, &s.FundID, &s.SnapshotDate, &s.Data, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting latest snapshot: %w", err)
	}
	return &s, nil
}

func (r *PgRepository) GetByDate(ctx context.Context, slug string, date time.Time) (*Snapshot, error) {
	var s Snapshot
	err := r.pool.QueryRow(ctx,
		`SELECT fs.id, fs.fund_id, fs.snapshot_date, fs.data, fs.created_at
		 FROM fund_snapshots fs
		 JOIN funds f ON f.id = fs.fund_id
		 WHERE f.slug = $1 AND fs.snapshot_date = $2`, slug, date).Scan(&s.ID, &s.FundID, &s.SnapshotDate, &s.Data, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting snapshot by date: %w", err)
	}
	return &s, nil
}

func (r *PgRepository) List(ctx context.Context, slug string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.pool.Query(ctx,
		`SELECT fs.id, fs.fund_id, fs.snapshot_date, fs.data, fs.created_at
		 FROM fund_snapshots fs
		 JOIN funds f ON f.id = fs.fund_id
		 WHERE f.slug = $1
		 ORDER BY fs.snapshot_date DESC
		 LIMIT $2`, slug, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.ID, &s.FundID, &s.SnapshotDate, &s.Data, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *PgRepository) EnsureFund(ctx context.Context, slug, name string) (int, error) {
	var id int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO funds (slug, name)
		 VALUES ($1, $2)
		 ON CONFLICT (slug) DO UPDATE SET name = $2
		 RETURNING id`,
		slug, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ensuring fund %s: %w", slug, err)
	}
	return id, nil
}

// MemoryRepository implements Repository in memory, for tests and for
// running the engine without a database.
type MemoryRepository struct {
	mu        sync.RWMutex
	nextID    int
	funds     map[string]int
	snapshots []Snapshot
	now       func() time.Time
}

// NewMemoryRepository creates an empty in-memory snapshot repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID: 1,
		funds:  make(map[string]int),
		now:    time.Now,
	}
}

func (r *MemoryRepository) Save(_ context.Context, fundID int, date time.Time, data json.RawMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.snapshots {
		if s.FundID == fundID && s.SnapshotDate.Equal(date) {
			r.snapshots[i].Data = data
			return nil
		}
	}
	r.snapshots = append(r.snapshots, Snapshot{
		ID:           r.nextID,
		FundID:       fundID,
		SnapshotDate: date,
		Data:         data,
		CreatedAt:    r.now(),
	})
	r.nextID++
	return nil
}

func (r *MemoryRepository) GetLatest(_ context.Context, slug string) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := r.forSlug(slug)
	if len(matched) == 0 {
		return nil, ErrNotFound
	}
	return &matched[0], nil
}

func (r *MemoryRepository) GetByDate(_ context.Context, slug string, date time.Time) (*Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.forSlug(slug) {
		if s.SnapshotDate.Equal(date) {
			return &s, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) List(_ context.Context, slug string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 30
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := r.forSlug(slug)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (r *MemoryRepository) EnsureFund(_ context.Context, slug, _ string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.funds[slug]; ok {
		return id, nil
	}
	id := r.nextID
	r.nextID++
	r.funds[slug] = id
	return id, nil
}

// forSlug returns the slug's snapshots sorted newest first. Caller holds the
// lock.
func (r *MemoryRepository) forSlug(slug string) []Snapshot {
	fundID, ok := r.funds[slug]
	if !ok {
		return nil
	}
	var matched []Snapshot
	for _, s := range r.snapshots {
		if s.FundID == fundID {
			matched = append(matched, s)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].SnapshotDate.After(matched[j].SnapshotDate)
	})
	return matched
}
