// Package export renders the fund's snapshot history for reporting
// destinations: an XLSX workbook or a Google Sheets spreadsheet.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/unitfund/fundd/internal/snapshot"
)

// historyLimit caps how much snapshot history one export reads.
const historyLimit = 366

// Row is one dated line of the history report, newest first.
type Row struct {
	Date         time.Time
	GAV          decimal.Decimal
	NAV          decimal.Decimal
	SharePrice   decimal.Decimal
	TotalShares  decimal.Decimal
	SumInvested  decimal.Decimal
	SumWithdrawn decimal.Decimal
	// Relative NAV change against the nearest snapshot at least that far
	// back; nil when no such snapshot exists.
	WeekChange  *decimal.Decimal
	MonthChange *decimal.Decimal
}

// RowWriter writes history rows to a report destination.
type RowWriter interface {
	Write(ctx context.Context, rows []Row) error
}

// SnapshotSource serves the stored snapshot history.
type SnapshotSource interface {
	List(ctx context.Context, limit int) ([]snapshot.Snapshot, error)
}

// Service reads the snapshot history and delegates writing to a RowWriter.
type Service struct {
	snapshots SnapshotSource
	writer    RowWriter
}

// NewService creates a new export Service.
func NewService(snapshots SnapshotSource, writer RowWriter) *Service {
	return &Service{snapshots: snapshots, writer: writer}
}

// Export renders the whole stored history. Implements
// worker.AfterSnapshotHook; the record argument is already part of the
// stored history by the time the hook runs.
func (s *Service) Export(ctx context.Context, _ snapshot.Record) error {
	stored, err := s.snapshots.List(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("listing snapshot history: %w", err)
	}

	rows := BuildRows(stored)
	if len(rows) == 0 {
		slog.Warn("export: no snapshot history to export")
		return nil
	}
	return s.writer.Write(ctx, rows)
}

type datedRecord struct {
	date time.Time
	rec  snapshot.Record
}

// BuildRows converts stored snapshots (newest first) into report rows with
// week and month NAV changes. Snapshots whose payload cannot be decoded are
// skipped.
func BuildRows(stored []snapshot.Snapshot) []Row {
	records := lo.FilterMap(stored, func(s snapshot.Snapshot, _ int) (datedRecord, bool) {
		var rec snapshot.Record
		if err := json.Unmarshal(s.Data, &rec); err != nil {
			slog.Warn("export: skipping undecodable snapshot", "date", s.SnapshotDate, "error", err)
			return datedRecord{}, false
		}
		return datedRecord{date: s.SnapshotDate, rec: rec}, true
	})

	return lo.Map(records, func(dr datedRecord, _ int) Row {
		return Row{
			Date:         dr.date,
			GAV:          dr.rec.GAV,
			NAV:          dr.rec.NAV,
			SharePrice:   dr.rec.SharePrice,
			TotalShares:  dr.rec.TotalShares,
			SumInvested:  dr.rec.SumInvested,
			SumWithdrawn: dr.rec.SumWithdrawn,
			WeekChange:   navChange(dr, records, 7),
			MonthChange:  navChange(dr, records, 30),
		}
	})
}

// navChange returns the relative NAV change against the newest record at
// least days older than dr, or nil when history does not reach that far.
func navChange(dr datedRecord, records []datedRecord, days int) *decimal.Decimal {
	cutoff := dr.date.AddDate(0, 0, -days)
	past, ok := lo.Find(records, func(r datedRecord) bool {
		return !r.date.After(cutoff)
	})
	if !ok || past.rec.NAV.IsZero() {
		return nil
	}
	pct := dr.rec.NAV.Sub(past.rec.NAV).Div(past.rec.NAV)
	return &pct
}
