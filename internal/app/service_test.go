package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joern1811/wapay/internal/adapter/parser"
	"github.com/joern1811/wapay/internal/adapter/renderer"
	"github.com/joern1811/wapay/internal/domain"
)

const chatLog = `15/04/2024, 09:00 - Messages and calls are end-to-end encrypted. No one outside of this chat, not even WhatsApp, can read or listen to them.
15/04/2024, 09:01 - Alice: IMG-20240415-WA0001.jpg (file attached)
April maintenance
16/04/2024, 10:30 - +91 98765 43210: IMG-20240416-WA0002.jpg (file attached)
02/05/2024, 08:00 - Bob: IMG-20240502-WA0003.jpg (file attached)
03/05/2024, 08:00 - Bob: thanks
`

type fakeSource struct {
	export  *domain.Export
	cleaned bool
}

func (f *fakeSource) Open(string) (*domain.Export, error) { return f.export, nil }
func (f *fakeSource) Cleanup()                            { f.cleaned = true }

type fakeOCR struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeOCR) ExtractText(_ context.Context, imagePath string) (string, error) {
	name := filepath.Base(imagePath)
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
	if f.fail[name] {
		return "", errors.New("rate limited")
	}
	return "receipt " + name, nil
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(_ context.Context, text string) (domain.PaymentFields, error) {
	switch {
	case strings.Contains(text, "WA0001"):
		return domain.PaymentFields{TransactionID: "T1", Date: "15 Apr 2024", Amount: 1500, PaymentMethod: "UPI"}, nil
	case strings.Contains(text, "WA0009"):
		return domain.PaymentFields{}, errors.New("no json")
	default:
		return domain.PaymentFields{TransactionID: "T2", Amount: 1500}, nil
	}
}

type captureWriter struct {
	rows  []domain.ReportRow
	month domain.Month
}

func (c *captureWriter) Write(_ context.Context, rows []domain.ReportRow, month domain.Month) (int, error) {
	c.rows, c.month = rows, month
	return len(rows), nil
}

func newExport(t *testing.T, images ...string) *domain.Export {
	t.Helper()
	dir := t.TempDir()
	chat := filepath.Join(dir, "WhatsApp Chat with Flat Owners.txt")
	require.NoError(t, os.WriteFile(chat, []byte(chatLog), 0o600))

	export := &domain.Export{Dir: dir, ChatFile: chat}
	for _, name := range images {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(name), 0o600))
		export.Media = append(export.Media, domain.NewMediaAsset(p, time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC)))
	}
	return export
}

func newService(src domain.ExportSource, ocr domain.OCR, w domain.ReportWriter) *Service {
	return NewService(Deps{
		Source:    src,
		Parser:    &parser.WhatsAppParser{},
		OCR:       ocr,
		Extractor: fakeExtractor{},
		Writer:    w,
		Renderer:  &renderer.TextRenderer{},
		Logger:    zerolog.Nop(),
	}, Options{Concurrency: 2})
}

func TestService_Process(t *testing.T) {
	export := newExport(t,
		"IMG-20240415-WA0001.jpg",
		"IMG-20240416-WA0002.jpg",
		"IMG-20240502-WA0003.jpg",
		"IMG-20240420-WA0009.jpg",
	)
	src := &fakeSource{export: export}
	ocr := &fakeOCR{fail: map[string]bool{"IMG-20240416-WA0002.jpg": true}}
	w := &captureWriter{}
	svc := newService(src, ocr, w)

	mapping := filepath.Join(t.TempDir(), MappingFileName)
	var out bytes.Buffer
	sum, err := svc.Process(context.Background(), Request{
		ExportPath:  "export.zip",
		Month:       domain.Month{Year: 2024, Month: time.April},
		MappingPath: mapping,
	}, &out)
	require.NoError(t, err)

	assert.True(t, src.cleaned)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 4, sum.Images)
	assert.Equal(t, 3, sum.Matched)
	assert.Equal(t, 3, sum.InMonth, "May image is not sent to OCR")
	assert.Equal(t, 2, sum.Failed)
	assert.Equal(t, 3, sum.RowsWritten)
	assert.NotContains(t, ocr.calls, "IMG-20240502-WA0003.jpg")

	require.Len(t, w.rows, 3)
	byFile := map[string]domain.ReportRow{}
	for _, r := range w.rows {
		byFile[r.ImageFile] = r
	}

	ok := byFile["IMG-20240415-WA0001.jpg"]
	assert.Equal(t, "Alice", ok.ContactName)
	assert.Equal(t, "T1", ok.Payment.TransactionID)
	assert.False(t, ok.ExtractionFailed)

	failed := byFile["IMG-20240416-WA0002.jpg"]
	assert.True(t, failed.ExtractionFailed)
	assert.Equal(t, "+91 98765 43210", failed.ContactPhone)
	assert.Contains(t, failed.ExtractionError, "rate limited")

	unmatched := byFile["IMG-20240420-WA0009.jpg"]
	assert.Equal(t, domain.Unmatched, unmatched.Strategy)
	assert.True(t, unmatched.ExtractionFailed)

	assert.Contains(t, out.String(), "Mapped 3 of 4 images")

	data, err := os.ReadFile(mapping)
	require.NoError(t, err)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal(data, &entries))
	require.Len(t, entries, 4)
	assert.Equal(t, "Alice", entries[0]["contact_name"])
	assert.Equal(t, "2024-04-15 09:01", entries[0]["sent_date"])
	assert.Nil(t, entries[3]["contact_name"])
	assert.Nil(t, entries[3]["sent_date"])
}

func TestService_FillsDateFromFilename(t *testing.T) {
	export := newExport(t, "IMG-20240416-WA0002.jpg")
	w := &captureWriter{}
	svc := newService(&fakeSource{export: export}, &fakeOCR{}, w)

	_, err := svc.Process(context.Background(), Request{
		ExportPath: "export.zip",
		Month:      domain.Month{Year: 2024, Month: time.April},
	}, nil)
	require.NoError(t, err)

	require.Len(t, w.rows, 1)
	assert.Equal(t, "16 Apr 2024", w.rows[0].Payment.Date)
	assert.Equal(t, "T2", w.rows[0].Payment.TransactionID)
}

func TestService_KeepTemp(t *testing.T) {
	export := newExport(t, "IMG-20240415-WA0001.jpg")
	src := &fakeSource{export: export}
	svc := newService(src, &fakeOCR{}, &captureWriter{})

	sum, err := svc.Process(context.Background(), Request{
		ExportPath: "export.zip",
		Month:      domain.Month{Year: 2024, Month: time.April},
		KeepTemp:   true,
	}, nil)
	require.NoError(t, err)
	assert.False(t, src.cleaned)
	assert.Equal(t, []string{export.Dir}, sum.TempDirs)
}

func TestService_Correlate(t *testing.T) {
	export := newExport(t, "IMG-20240415-WA0001.jpg", "IMG-20240101-WA9999.jpg")
	src := &fakeSource{export: export}
	svc := NewService(Deps{Source: src, Parser: &parser.WhatsAppParser{}, Logger: zerolog.Nop()}, Options{})

	m, err := svc.Correlate(context.Background(), "export.zip")
	require.NoError(t, err)
	assert.True(t, src.cleaned)

	assert.Equal(t, 3, m.Directory.Len())
	a, ok := m.Result.Get("IMG-20240415-WA0001.jpg")
	require.True(t, ok)
	assert.Equal(t, domain.ExactFilename, a.Strategy)

	u, ok := m.Result.Get("IMG-20240101-WA9999.jpg")
	require.True(t, ok)
	assert.False(t, u.Matched())
	assert.Len(t, m.Result.Missing, 2)
}

func TestService_ProcessWithoutExtraction(t *testing.T) {
	svc := NewService(Deps{Source: &fakeSource{}, Parser: &parser.WhatsAppParser{}}, Options{})
	_, err := svc.Process(context.Background(), Request{}, nil)
	assert.ErrorIs(t, err, ErrNoExtraction)
}

func TestService_ParseErrorIsFatal(t *testing.T) {
	dir := t.TempDir()
	chat := filepath.Join(dir, "chat.txt")
	require.NoError(t, os.WriteFile(chat, []byte("just some notes\nnothing else\n"), 0o600))
	svc := newService(&fakeSource{export: &domain.Export{Dir: dir, ChatFile: chat}}, &fakeOCR{}, &captureWriter{})

	_, err := svc.Process(context.Background(), Request{ExportPath: dir}, nil)
	var perr *domain.ParseError
	assert.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, domain.ErrNotChatExport)
}
