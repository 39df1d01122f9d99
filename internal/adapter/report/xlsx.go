package report

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/joern1811/wapay/internal/domain"
)

const sheetName = "Payments"

var columnWidths = []float64{24, 18, 17, 26, 12, 18, 20, 40, 11, 10, 40}

// XLSXWriter writes the report as an Excel workbook and, unless disabled,
// a CSV copy with the same base name.
type XLSXWriter struct {
	Path      string
	CSVBackup bool
}

func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{Path: path, CSVBackup: true}
}

// BackupPath is the CSV file written beside the workbook.
func (x *XLSXWriter) BackupPath() string {
	return strings.TrimSuffix(x.Path, filepath.Ext(x.Path)) + ".csv"
}

func (x *XLSXWriter) Write(ctx context.Context, rows []domain.ReportRow, month domain.Month) (int, error) {
	if err := x.writeWorkbook(rows); err != nil {
		return 0, err
	}
	if x.CSVBackup {
		if _, err := NewCSVWriter(x.BackupPath()).Write(ctx, rows, month); err != nil {
			return 0, fmt.Errorf("writing csv backup: %w", err)
		}
	}
	return len(rows), nil
}

func (x *XLSXWriter) writeWorkbook(rows []domain.ReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("creating stream writer: %w", err)
	}
	for i, w := range columnWidths {
		if err := sw.SetColWidth(i+1, i+1, w); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}

	if err := f.SaveAs(x.Path); err != nil {
		return fmt.Errorf("saving %s: %w", x.Path, err)
	}
	return nil
}
