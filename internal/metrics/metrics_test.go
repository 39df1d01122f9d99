package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NoopWithoutPushURL(t *testing.T) {
	m := New(Options{})
	_, ok := m.(noopRecorder)
	assert.True(t, ok)

	m.ObserveMatch("exact")
	m.IncMissingMedia(2)
	m.ObserveExtraction("ocr", true, time.Second)
	m.IncOCRCache(true)
	m.SetRowsWritten(3)
	assert.NoError(t, m.Push(context.Background()))
}

func TestPrometheusRecorder_Counts(t *testing.T) {
	m := NewPrometheus(prometheus.NewRegistry(), Options{})

	m.ObserveMatch("exact")
	m.ObserveMatch("exact")
	m.ObserveMatch("timestamp")
	m.IncMissingMedia(3)
	m.ObserveExtraction("ocr", true, 10*time.Millisecond)
	m.ObserveExtraction("ocr", false, 10*time.Millisecond)
	m.IncOCRCache(true)
	m.IncOCRCache(false)
	m.IncOCRCache(false)
	m.SetRowsWritten(7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.matches.WithLabelValues("exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.matches.WithLabelValues("timestamp")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.missingMedia))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.extractions.WithLabelValues("ocr", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.rowsWritten))
}

func TestPrometheusRecorder_Push(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Contains(t, r.URL.Path, "/metrics/job/wapay-test")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewPrometheus(prometheus.NewRegistry(), Options{PushURL: srv.URL, Job: "wapay-test"})
	m.ObserveMatch("exact")

	require.NoError(t, m.Push(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}
