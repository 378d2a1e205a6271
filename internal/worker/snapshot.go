package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/unitfund/fundd/internal/snapshot"
)

// SnapshotGenerator defines the interface for generating snapshots.
type SnapshotGenerator interface {
	Generate(ctx context.Context, date time.Time) (snapshot.Record, error)
}

// AfterSnapshotHook is called after each successful snapshot generation.
type AfterSnapshotHook interface {
	Export(ctx context.Context, rec snapshot.Record) error
}

// SnapshotWorker periodically marks the fund to market and persists the
// resulting state.
type SnapshotWorker struct {
	generator SnapshotGenerator
	interval  time.Duration
	hook      AfterSnapshotHook // optional
}

// NewSnapshotWorker creates a new SnapshotWorker with an optional
// post-generation hook.
func NewSnapshotWorker(generator SnapshotGenerator, interval time.Duration, hook AfterSnapshotHook) *SnapshotWorker {
	return &SnapshotWorker{
		generator: generator,
		interval:  interval,
		hook:      hook,
	}
}

// runHook calls the post-generation hook if one is configured.
func (w *SnapshotWorker) runHook(ctx context.Context, rec snapshot.Record) {
	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, rec); err != nil {
		slog.Error("SnapshotWorker: export hook failed", "error", err)
	} else {
		slog.Info("SnapshotWorker: export hook completed")
	}
}

// utcDate returns the current date normalized to midnight UTC.
func utcDate() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Run starts the snapshot worker loop. It blocks until the context is
// cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) {
	slog.Info("SnapshotWorker: starting")

	// Generate immediately on startup
	if rec, err := w.generator.Generate(ctx, utcDate()); err != nil {
		slog.Error("SnapshotWorker: initial generation failed", "error", err)
	} else {
		slog.Info("SnapshotWorker: initial generation completed")
		w.runHook(ctx, rec)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("SnapshotWorker: shutting down")
			return
		case <-ticker.C:
			if rec, err := w.generator.Generate(ctx, utcDate()); err != nil {
				slog.Error("SnapshotWorker: generation failed", "error", err)
			} else {
				slog.Info("SnapshotWorker: generation completed")
				w.runHook(ctx, rec)
			}
		}
	}
}
