package journal

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/unitfund/fundd/internal/domain"
)

var t0 = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

func TestMemoryListNewestFirst(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	for i, party := range []string{"alice", "bob", "alice"} {
		ev := domain.NewSharesIssued(party, decimal.NewFromInt(int64(i+1)), decimal.NewFromInt(1), t0.Add(time.Duration(i)*time.Minute))
		if err := repo.Record(ctx, ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	events, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if !events[0].Shares.Equal(decimal.NewFromInt(3)) {
		t.Errorf("first event shares = %s, want the newest (3)", events[0].Shares)
	}
}

func TestMemoryListByParty(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	repo.Record(ctx, domain.NewSharesIssued("alice", decimal.NewFromInt(10), decimal.NewFromInt(1), t0))
	repo.Record(ctx, domain.NewSharesRedeemed("bob", decimal.NewFromInt(5), decimal.NewFromInt(2), t0))
	repo.Record(ctx, domain.NewRefunded("alice", decimal.NewFromInt(3), t0))

	events, err := repo.ListByParty(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("list by party: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Kind != domain.EventRefunded || events[1].Kind != domain.EventSharesIssued {
		t.Errorf("events = %+v, want Refunded then SharesIssued", events)
	}
}

func TestMemoryListEmpty(t *testing.T) {
	events, err := NewMemoryRepository().List(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("len = %d, want 0", len(events))
	}
}
