// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSearch("openalex", nil)
		m.ObserveGenerator("groq", time.Second, errors.New("x"))
		m.ObserveClassification("fallback")
		m.ObserveRetry()
		m.ObserveGapAnalysis(nil)
		m.ObserveValidation("open")
		m.ObserveSummary("generated")
		m.ObserveCache("gaps", true)
		m.ObserveHTTP("GET", "/healthz", "200", time.Millisecond)
	})
	assert.Nil(t, m.Registry())
	assert.NotNil(t, m.Handler())
}

func TestCounters(t *testing.T) {
	m := New(false)

	m.ObserveSearch("openalex", nil)
	m.ObserveSearch("openalex", errors.New("503"))
	m.ObserveSearch("openalex", nil)
	m.ObserveClassification("fallback")
	m.ObserveRetry()
	m.ObserveRetry()
	m.ObserveCache("classification", false)
	m.ObserveSummary("extractive")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SearchRequests.WithLabelValues("openalex", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchRequests.WithLabelValues("openalex", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Classifications.WithLabelValues("fallback")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ClassifyRetries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("classification", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Summaries.WithLabelValues("extractive")))
}

func TestHandler(t *testing.T) {
	m := New(false)
	m.ObserveGenerator("groq", 2*time.Second, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "research_intel_generator_requests_total")
	assert.Contains(t, rec.Body.String(), "research_intel_generator_duration_seconds_bucket")
}
