package export

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// SheetsWriter implements RowWriter using the Google Sheets API.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(
		ctx,
		[]byte(credentialsJSON),
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

// Write ensures the history sheet exists, then clears and rewrites it.
func (w *SheetsWriter) Write(ctx context.Context, rows []Row) error {
	if err := w.ensureSheet(ctx, historySheet); err != nil {
		return err
	}

	values := make([][]any, 0, len(rows)+1)
	values = append(values, headerCells())
	for _, row := range rows {
		values = append(values, rowCells(row))
	}

	_, err := w.svc.Spreadsheets.Values.BatchClear(
		w.spreadsheetID,
		&sheets.BatchClearValuesRequest{
			Ranges: []string{historySheet + "!A:I"},
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing sheet: %w", err)
	}

	_, err = w.svc.Spreadsheets.Values.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateValuesRequest{
			ValueInputOption: "USER_ENTERED",
			Data: []*sheets.ValueRange{
				{Range: historySheet + "!A1", Values: values},
			},
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing sheet: %w", err)
	}

	return nil
}

// ensureSheet creates the named sheet if it does not already exist.
func (w *SheetsWriter) ensureSheet(ctx context.Context, name string) error {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	for _, s := range spreadsheet.Sheets {
		if s.Properties.Title == name {
			return nil
		}
	}

	_, err = w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		}}},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("creating sheet %s: %w", name, err)
	}

	return nil
}

// headerCells returns the report's column headers.
// Columns: Date | GAV | NAV | Share Price | Shares | Invested | Withdrawn | Week | Month
func headerCells() []any {
	return []any{
		"Date", "GAV", "NAV", "Share Price", "Shares",
		"Invested", "Withdrawn", "Week", "Month",
	}
}

// rowCells renders one report row in header order.
func rowCells(row Row) []any {
	return []any{
		row.Date.UTC().Format("02.01.2006"),
		toFloat(row.GAV),
		toFloat(row.NAV),
		toFloat(row.SharePrice),
		toFloat(row.TotalShares),
		toFloat(row.SumInvested),
		toFloat(row.SumWithdrawn),
		ptrFloat(row.WeekChange),
		ptrFloat(row.MonthChange),
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func ptrFloat(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}
