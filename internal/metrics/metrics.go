// Package metrics records run statistics and pushes them to a Prometheus
// Pushgateway when one is configured.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

type Recorder interface {
	ObserveMatch(strategy string)
	IncMissingMedia(n int)
	ObserveExtraction(stage string, ok bool, duration time.Duration)
	IncOCRCache(hit bool)
	SetRowsWritten(n int)
	Push(ctx context.Context) error
}

type Options struct {
	PushURL string
	Job     string
}

type PrometheusRecorder struct {
	registry *prometheus.Registry
	opts     Options

	matches       *prometheus.CounterVec
	missingMedia  prometheus.Counter
	extractions   *prometheus.CounterVec
	extractionDur *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	rowsWritten   prometheus.Gauge
}

// New returns a no-op recorder unless a push URL is configured.
func New(opts Options) Recorder {
	if opts.PushURL == "" {
		return Noop()
	}
	return NewPrometheus(prometheus.NewRegistry(), opts)
}

func NewPrometheus(reg *prometheus.Registry, opts Options) *PrometheusRecorder {
	if opts.Job == "" {
		opts.Job = "wapay"
	}
	f := promauto.With(reg)
	return &PrometheusRecorder{
		registry: reg,
		opts:     opts,

		matches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wapay_media_attributions_total",
			Help: "Media files processed by correlation, by winning strategy",
		}, []string{"strategy"}),

		missingMedia: f.NewCounter(prometheus.CounterOpts{
			Name: "wapay_missing_media_total",
			Help: "Attachment references with no file in the export",
		}),

		extractions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wapay_extractions_total",
			Help: "OCR and field extraction calls",
		}, []string{"stage", "result"}),

		extractionDur: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wapay_extraction_duration_seconds",
			Help:    "Duration of OCR and field extraction calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"stage"}),

		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wapay_ocr_cache_lookups_total",
			Help: "OCR cache lookups",
		}, []string{"result"}),

		rowsWritten: f.NewGauge(prometheus.GaugeOpts{
			Name: "wapay_report_rows",
			Help: "Rows written to the report in the last run",
		}),
	}
}

func (m *PrometheusRecorder) ObserveMatch(strategy string) {
	m.matches.WithLabelValues(strategy).Inc()
}

func (m *PrometheusRecorder) IncMissingMedia(n int) {
	m.missingMedia.Add(float64(n))
}

func (m *PrometheusRecorder) ObserveExtraction(stage string, ok bool, duration time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.extractions.WithLabelValues(stage, result).Inc()
	m.extractionDur.WithLabelValues(stage).Observe(duration.Seconds())
}

func (m *PrometheusRecorder) IncOCRCache(hit bool) {
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}

func (m *PrometheusRecorder) SetRowsWritten(n int) {
	m.rowsWritten.Set(float64(n))
}

func (m *PrometheusRecorder) Registry() *prometheus.Registry {
	return m.registry
}

// Push sends all collected metrics to the configured Pushgateway.
func (m *PrometheusRecorder) Push(ctx context.Context) error {
	if m.opts.PushURL == "" {
		return nil
	}
	if err := push.New(m.opts.PushURL, m.opts.Job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics: %w", err)
	}
	return nil
}

type noopRecorder struct{}

func Noop() Recorder { return noopRecorder{} }

func (noopRecorder) ObserveMatch(_ string)                               {}
func (noopRecorder) IncMissingMedia(_ int)                               {}
func (noopRecorder) ObserveExtraction(_ string, _ bool, _ time.Duration) {}
func (noopRecorder) IncOCRCache(_ bool)                                  {}
func (noopRecorder) SetRowsWritten(_ int)                                {}
func (noopRecorder) Push(_ context.Context) error                        { return nil }
