package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const historySheet = "HISTORY"

// ExcelWriter implements RowWriter by writing an XLSX workbook to disk.
type ExcelWriter struct {
	path string
}

// NewExcelWriter creates an ExcelWriter targeting the given file path.
func NewExcelWriter(path string) *ExcelWriter {
	return &ExcelWriter{path: path}
}

// Write renders the rows into a single HISTORY sheet and saves the workbook,
// replacing any previous file at the path.
func (w *ExcelWriter) Write(_ context.Context, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	for col, h := range headerCells() {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("addressing header cell: %w", err)
		}
		if err := f.SetCellValue(historySheet, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, row := range rows {
		for col, v := range rowCells(row) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("addressing cell: %w", err)
			}
			if err := f.SetCellValue(historySheet, cell, v); err != nil {
				return fmt.Errorf("writing row %d: %w", i+1, err)
			}
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook to %s: %w", w.path, err)
	}
	return nil
}
