package cmd

import (
	"context"
	"fmt"

	"github.com/joern1811/wapay/internal/adapter/extractor"
	"github.com/joern1811/wapay/internal/adapter/ocr"
	"github.com/joern1811/wapay/internal/adapter/parser"
	"github.com/joern1811/wapay/internal/adapter/report"
	"github.com/joern1811/wapay/internal/config"
	"github.com/joern1811/wapay/internal/domain"
	"github.com/joern1811/wapay/internal/metrics"
)

func newParser(cfg *config.Config) (*parser.WhatsAppParser, error) {
	order, err := parser.ParseDateOrder(cfg.DateOrder)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrConfiguration, err)
	}
	return &parser.WhatsAppParser{DefaultOrder: order}, nil
}

func newOCR(ctx context.Context, cfg *config.Config, rec metrics.Recorder) (domain.OCR, error) {
	var base domain.OCR
	switch cfg.OCR.Provider {
	case config.ProviderGemini:
		c, err := ocr.NewGeminiClient(ctx, cfg.OCR.APIKey, cfg.OCR.Model)
		if err != nil {
			return nil, err
		}
		base = c
	default:
		base = ocr.NewOpenAIClient(ocr.OpenAIConfig{
			APIKey:     cfg.OCR.APIKey,
			BaseURL:    cfg.OCR.BaseURL,
			Model:      cfg.OCR.Model,
			Timeout:    cfg.OCR.Timeout,
			MaxRetries: cfg.OCR.MaxRetries,
		})
	}
	return ocr.NewCachedOCR(base, cfg.CacheSizeMB, rec), nil
}

func newExtractor(ctx context.Context, cfg *config.Config) (domain.FieldExtractor, error) {
	switch cfg.LLM.Provider {
	case config.ProviderGemini:
		e, err := extractor.NewGeminiExtractor(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return extractor.NewOpenAIExtractor(extractor.OpenAIConfig{
			APIKey:     cfg.LLM.APIKey,
			BaseURL:    cfg.LLM.BaseURL,
			Model:      cfg.LLM.Model,
			Timeout:    cfg.LLM.Timeout,
			MaxRetries: cfg.LLM.MaxRetries,
		}), nil
	}
}

// newReportWriter returns the report writer and a close function for the
// optional SQLite sink.
func newReportWriter(output, sqlitePath, appVersion string) (domain.ReportWriter, func() error, error) {
	sinks := []domain.ReportWriter{report.NewXLSXWriter(output)}
	closeFn := func() error { return nil }

	if sqlitePath != "" {
		db, err := report.OpenSQLite(sqlitePath, appVersion)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, db)
		closeFn = db.Close
	}
	return report.NewWriter(sinks...), closeFn, nil
}
