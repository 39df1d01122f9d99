package domain

import (
	"context"
	"io"
)

// ExportSource unpacks a WhatsApp export (.zip file or extracted directory).
type ExportSource interface {
	Open(path string) (*Export, error)
	Cleanup()
}

// ChatParser parses the transcript of a WhatsApp export.
type ChatParser interface {
	Parse(r io.Reader) ([]Message, error)
}

// OCR extracts the text of an image.
type OCR interface {
	ExtractText(ctx context.Context, imagePath string) (string, error)
}

// FieldExtractor turns receipt text into payment fields.
type FieldExtractor interface {
	Extract(ctx context.Context, text string) (PaymentFields, error)
}

// ReportWriter persists the rows of the given month and returns how many
// rows were written.
type ReportWriter interface {
	Write(ctx context.Context, rows []ReportRow, month Month) (int, error)
}

// MappingRenderer renders a correlation result for humans.
type MappingRenderer interface {
	Render(w io.Writer, result *CorrelationResult) error
}
