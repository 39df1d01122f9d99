// Package report writes the monthly payment report.
package report

import (
	"context"
	"errors"

	"github.com/joern1811/wapay/internal/domain"
)

// Writer drops rows outside the report month and hands the rest to every
// configured sink. All sinks are attempted; their errors are joined.
type Writer struct {
	sinks []domain.ReportWriter
}

func NewWriter(sinks ...domain.ReportWriter) *Writer {
	return &Writer{sinks: sinks}
}

func (w *Writer) Write(ctx context.Context, rows []domain.ReportRow, month domain.Month) (int, error) {
	kept := domain.FilterRowsByMonth(rows, month)

	var errs []error
	for _, s := range w.sinks {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if _, err := s.Write(ctx, kept, month); err != nil {
			errs = append(errs, err)
		}
	}
	return len(kept), errors.Join(errs...)
}
