package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/joern1811/wapay/internal/correlation"
	"github.com/joern1811/wapay/internal/domain"
	"github.com/joern1811/wapay/internal/logging"
	"github.com/joern1811/wapay/internal/metrics"
)

const (
	DefaultConcurrency = 4
	MappingFileName    = "contact_mapping.json"

	filenameDateLayout = "02 Jan 2006"
)

var ErrNoExtraction = errors.New("payment extraction is not configured")

type Deps struct {
	Source    domain.ExportSource
	Parser    domain.ChatParser
	OCR       domain.OCR
	Extractor domain.FieldExtractor
	Writer    domain.ReportWriter
	Renderer  domain.MappingRenderer
	Metrics   metrics.Recorder
	Logger    zerolog.Logger
}

type Options struct {
	DayWindow   int
	Concurrency int
}

// Service orchestrates the payment report pipeline.
type Service struct {
	source    domain.ExportSource
	parser    domain.ChatParser
	ocr       domain.OCR
	extractor domain.FieldExtractor
	writer    domain.ReportWriter
	renderer  domain.MappingRenderer
	metrics   metrics.Recorder
	log       zerolog.Logger
	opts      Options
}

func NewService(d Deps, opts Options) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Noop()
	}
	return &Service{
		source:    d.Source,
		parser:    d.Parser,
		ocr:       d.OCR,
		extractor: d.Extractor,
		writer:    d.Writer,
		renderer:  d.Renderer,
		metrics:   d.Metrics,
		log:       d.Logger,
		opts:      opts,
	}
}

type Request struct {
	ExportPath string
	Month      domain.Month
	// MappingPath receives the contact mapping JSON; empty skips it.
	MappingPath string
	KeepTemp    bool
}

// Summary describes a finished run.
type Summary struct {
	RunID       string
	Messages    int
	Contacts    int
	Images      int
	InMonth     int
	Matched     int
	Failed      int
	RowsWritten int
	Unmatched   []domain.UnmatchedAssetWarning
	Missing     []domain.MissingMediaError
	TempDirs    []string
}

// Mapping is the outcome of correlating one export.
type Mapping struct {
	Messages  []domain.Message
	Directory *domain.ContactDirectory
	Result    *domain.CorrelationResult
}

// Correlate maps every image of the export to its sender without calling
// any external service.
func (s *Service) Correlate(ctx context.Context, exportPath string) (*Mapping, error) {
	defer s.source.Cleanup()
	_, m, err := s.correlate(ctx, s.log, exportPath)
	return m, err
}

// Process runs the full pipeline: open → parse → correlate → filter by
// month → OCR → extract → write report. The correlation is rendered to w.
func (s *Service) Process(ctx context.Context, req Request, w io.Writer) (*Summary, error) {
	if s.ocr == nil || s.extractor == nil || s.writer == nil {
		return nil, ErrNoExtraction
	}

	runID := uuid.NewString()
	log := logging.WithRun(s.log, runID)
	if !req.KeepTemp {
		defer s.source.Cleanup()
	}

	export, m, err := s.correlate(ctx, log, req.ExportPath)
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		RunID:     runID,
		Messages:  len(m.Messages),
		Contacts:  m.Directory.Len(),
		Images:    m.Result.Len(),
		Matched:   m.Result.MatchedCount(),
		Unmatched: m.Result.Unmatched,
		Missing:   m.Result.Missing,
	}
	if req.KeepTemp {
		if export.Dir != filepath.Clean(req.ExportPath) {
			sum.TempDirs = []string{export.Dir}
		}
	}

	if s.renderer != nil && w != nil {
		if err := s.renderer.Render(w, m.Result); err != nil {
			return nil, fmt.Errorf("rendering mapping: %w", err)
		}
	}
	if req.MappingPath != "" {
		if err := WriteMapping(req.MappingPath, m.Result); err != nil {
			return nil, err
		}
		log.Info().Str("path", req.MappingPath).Msg("contact mapping written")
	}

	selected := selectMonth(m.Result.Attributions, req.Month)
	sum.InMonth = len(selected)
	log.Info().
		Int("images", sum.Images).
		Int("in_month", sum.InMonth).
		Str("month", req.Month.String()).
		Msg("images selected for extraction")

	rows := s.extractAll(ctx, log, selected)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.ExtractionFailed {
			sum.Failed++
		}
	}

	n, err := s.writer.Write(ctx, rows, req.Month)
	if err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	sum.RowsWritten = n
	s.metrics.SetRowsWritten(n)

	if err := s.metrics.Push(ctx); err != nil {
		log.Warn().Err(err).Msg("metrics push failed")
	}
	return sum, nil
}

func (s *Service) correlate(ctx context.Context, log zerolog.Logger, exportPath string) (*domain.Export, *Mapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	export, err := s.source.Open(exportPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening export: %w", err)
	}

	f, err := os.Open(export.ChatFile)
	if err != nil {
		return nil, nil, fmt.Errorf("opening chat file: %w", err)
	}
	defer f.Close()

	messages, err := s.parser.Parse(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing chat: %w", err)
	}

	dir := domain.BuildDirectory(messages)
	engine := correlation.NewEngine(dir, correlation.Options{DayWindow: s.opts.DayWindow})
	result := engine.Correlate(messages, export.Media)

	for _, a := range result.Attributions {
		s.metrics.ObserveMatch(a.Strategy.String())
	}
	s.metrics.IncMissingMedia(len(result.Missing))

	for _, mm := range result.Missing {
		log.Warn().Str("file", mm.Filename).Str("sender", mm.Sender).Int("message", mm.MessageIndex).
			Msg("referenced media missing from export")
	}
	for _, amb := range result.Ambiguous {
		log.Debug().Str("file", amb.Filename).Ints("candidates", amb.Candidates).
			Msg("numeric id matched several messages")
	}
	for _, u := range result.Unmatched {
		log.Warn().Str("file", u.Filename).Str("reason", u.Reason).Msg("image not attributed")
	}
	log.Info().
		Int("messages", len(messages)).
		Int("contacts", dir.Len()).
		Int("images", result.Len()).
		Int("matched", result.MatchedCount()).
		Msg("export correlated")

	return export, &Mapping{Messages: messages, Directory: dir, Result: result}, nil
}

// extractAll runs OCR and field extraction per image on a bounded pool.
// A failing image yields a flagged row and never stops the others.
func (s *Service) extractAll(ctx context.Context, log zerolog.Logger, attrs []domain.Attribution) []domain.ReportRow {
	rows := make([]domain.ReportRow, len(attrs))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i := range attrs {
		g.Go(func() error {
			rows[i] = s.extractRow(ctx, log, attrs[i])
			return nil
		})
	}
	_ = g.Wait()
	return rows
}

func (s *Service) extractRow(ctx context.Context, log zerolog.Logger, a domain.Attribution) domain.ReportRow {
	row := domain.ReportRow{
		ContactName:  a.Contact.Name,
		ContactPhone: a.Contact.Phone,
		SentAt:       a.SentAt,
		ImageFile:    a.Asset.Filename,
		Strategy:     a.Strategy,
	}
	log = log.With().Str("file", a.Asset.Filename).Logger()

	start := time.Now()
	text, err := s.ocr.ExtractText(ctx, a.Asset.Path)
	s.metrics.ObserveExtraction("ocr", err == nil, time.Since(start))
	if err != nil {
		log.Warn().Err(err).Msg("ocr failed")
		row.ExtractionFailed = true
		row.ExtractionError = "ocr: " + err.Error()
		return row
	}

	start = time.Now()
	fields, err := s.extractor.Extract(ctx, text)
	s.metrics.ObserveExtraction("llm", err == nil, time.Since(start))
	if err != nil {
		log.Warn().Err(err).Msg("field extraction failed")
		row.ExtractionFailed = true
		row.ExtractionError = "extraction: " + err.Error()
		return row
	}

	if fields.Date == "" {
		if d, ok := correlation.FilenameDate(a.Asset.Filename); ok {
			fields.Date = d.Format(filenameDateLayout)
		}
	}
	row.Payment = fields
	log.Debug().Str("transaction_id", fields.TransactionID).Float64("amount", fields.Amount).Msg("payment extracted")
	return row
}

// selectMonth keeps attributions whose image belongs to month, judged by
// the filename date, else the message time, else the file time.
func selectMonth(attrs []domain.Attribution, month domain.Month) []domain.Attribution {
	out := make([]domain.Attribution, 0, len(attrs))
	for _, a := range attrs {
		if month.Contains(imageDate(a)) {
			out = append(out, a)
		}
	}
	return out
}

func imageDate(a domain.Attribution) time.Time {
	if d, ok := correlation.FilenameDate(a.Asset.Filename); ok {
		return d
	}
	if !a.SentAt.IsZero() {
		return a.SentAt
	}
	return a.Asset.ModTime
}
