package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/unitfund/fundd/internal/snapshot"
)

type mockQuoteFetcher struct {
	callCount atomic.Int32
}

func (m *mockQuoteFetcher) FetchAndStore(_ context.Context) error {
	m.callCount.Add(1)
	return nil
}

func TestQuoteWorkerRunsAndShutdown(t *testing.T) {
	mock := &mockQuoteFetcher{}
	w := NewQuoteWorker(mock, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	// Should have run at least the initial fetch + some ticks
	if got := mock.callCount.Load(); got < 1 {
		t.Errorf("call count = %d, want >= 1", got)
	}
}

type mockSnapshotGenerator struct {
	callCount atomic.Int32
}

func (m *mockSnapshotGenerator) Generate(_ context.Context, _ time.Time) (snapshot.Record, error) {
	m.callCount.Add(1)
	return snapshot.Record{}, nil
}

type mockHook struct {
	callCount atomic.Int32
}

func (m *mockHook) Export(_ context.Context, _ snapshot.Record) error {
	m.callCount.Add(1)
	return nil
}

func TestSnapshotWorkerRunsAndShutdown(t *testing.T) {
	mock := &mockSnapshotGenerator{}
	w := NewSnapshotWorker(mock, 50*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := mock.callCount.Load(); got < 1 {
		t.Errorf("call count = %d, want >= 1", got)
	}
}

func TestSnapshotWorkerRunsHook(t *testing.T) {
	gen := &mockSnapshotGenerator{}
	hook := &mockHook{}
	w := NewSnapshotWorker(gen, 50*time.Millisecond, hook)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	if got := hook.callCount.Load(); got < 1 {
		t.Errorf("hook call count = %d, want >= 1", got)
	}
}
