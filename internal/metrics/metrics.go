// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the Prometheus instruments for research-intel.
// All methods are safe on a nil *Metrics so components can run
// uninstrumented.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "research_intel"

// generatorBuckets covers AI completions, which run from sub-second to minutes.
var generatorBuckets = []float64{.25, .5, 1, 2, 5, 10, 30, 60, 120}

// Metrics owns a private registry and the instruments registered on it.
type Metrics struct {
	registry *prometheus.Registry

	SearchRequests     *prometheus.CounterVec
	GeneratorRequests  *prometheus.CounterVec
	GeneratorDuration  *prometheus.HistogramVec
	Classifications    *prometheus.CounterVec
	ClassifyRetries    prometheus.Counter
	GapAnalyses        *prometheus.CounterVec
	Summaries          *prometheus.CounterVec
	GapValidations     *prometheus.CounterVec
	CacheLookups       *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPRequestLatency *prometheus.HistogramVec
}

// New creates the instruments on a fresh registry. withRuntime adds the Go
// and process collectors.
func New(withRuntime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	m := &Metrics{
		registry: reg,
		SearchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "search_requests_total",
			Help: "Bibliographic search requests by backend and outcome.",
		}, []string{"backend", "outcome"}),
		GeneratorRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "generator_requests_total",
			Help: "AI generator calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		GeneratorDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "generator_duration_seconds",
			Help:    "AI generator call latency.",
			Buckets: generatorBuckets,
		}, []string{"provider"}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "classifications_total",
			Help: "Paper classifications by method (ai, fallback, cache).",
		}, []string{"method"}),
		ClassifyRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "classification_retries_total",
			Help: "Classification attempts beyond the first.",
		}),
		GapAnalyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "gap_analyses_total",
			Help: "Research gap analyses by outcome.",
		}, []string{"outcome"}),
		Summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "summaries_total",
			Help: "Paper summaries by method (generated, extractive, cache).",
		}, []string{"method"}),
		GapValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "gap_validations_total",
			Help: "Gap validation results (covered, open, unchecked).",
		}, []string{"status"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_lookups_total",
			Help: "Result cache lookups by kind and result.",
		}, []string{"kind", "result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "API requests by method, route, and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "API request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.SearchRequests, m.GeneratorRequests, m.GeneratorDuration,
		m.Classifications, m.ClassifyRetries, m.GapAnalyses, m.GapValidations, m.Summaries,
		m.CacheLookups, m.HTTPRequests, m.HTTPRequestLatency,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveSearch counts one backend request.
func (m *Metrics) ObserveSearch(backend string, err error) {
	if m == nil {
		return
	}
	m.SearchRequests.WithLabelValues(backend, outcome(err)).Inc()
}

// ObserveGenerator counts one generator call and records its latency.
func (m *Metrics) ObserveGenerator(provider string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.GeneratorRequests.WithLabelValues(provider, outcome(err)).Inc()
	m.GeneratorDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveClassification counts one classification by method.
func (m *Metrics) ObserveClassification(method string) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(method).Inc()
}

// ObserveRetry counts one classification retry.
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.ClassifyRetries.Inc()
}

// ObserveGapAnalysis counts one finished analysis.
func (m *Metrics) ObserveGapAnalysis(err error) {
	if m == nil {
		return
	}
	m.GapAnalyses.WithLabelValues(outcome(err)).Inc()
}

// ObserveSummary counts one summary by method.
func (m *Metrics) ObserveSummary(method string) {
	if m == nil {
		return
	}
	m.Summaries.WithLabelValues(method).Inc()
}

// ObserveValidation counts one gap validation by status.
func (m *Metrics) ObserveValidation(status string) {
	if m == nil {
		return
	}
	m.GapValidations.WithLabelValues(status).Inc()
}

// ObserveCache counts one cache lookup.
func (m *Metrics) ObserveCache(kind string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(kind, result).Inc()
}

// ObserveHTTP counts one API request.
func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
