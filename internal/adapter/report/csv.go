package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/joern1811/wapay/internal/domain"
)

type CSVWriter struct {
	Path string
}

func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{Path: path}
}

func (c *CSVWriter) Write(_ context.Context, rows []domain.ReportRow, _ domain.Month) (int, error) {
	f, err := os.Create(c.Path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", c.Path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return 0, fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(record(row)); err != nil {
			return 0, fmt.Errorf("writing csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("writing %s: %w", c.Path, err)
	}
	return len(rows), f.Close()
}
