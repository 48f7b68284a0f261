// Package telemetry exposes Prometheus metrics for predictions, fact lookups and HTTP traffic.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wildlens"

// Fact lookup outcomes
const (
	OutcomeFound       = "found"
	OutcomeNoFacts     = "no_facts"
	OutcomeFetchFailed = "fetch_failed"
	OutcomeError       = "error"
	OutcomeSuccess     = "success"
)

// Metrics holds the wildlens collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	PredictionsTotal   *prometheus.CounterVec
	ClassifyDuration   *prometheus.HistogramVec
	FactLookupsTotal   *prometheus.CounterVec
	FactLookupDuration prometheus.Histogram
	FactsByCategory    *prometheus.CounterVec

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics registers all collectors on a fresh registry, plus Go and process collectors
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Image predictions by classifier backend and outcome",
		}, []string{"classifier", "outcome"}),
		ClassifyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Time spent in the classifier backend",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"classifier"}),
		FactLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fact_lookups_total",
			Help:      "Fact lookups by outcome (found, no_facts, fetch_failed)",
		}, []string{"outcome"}),
		FactLookupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fact_lookup_duration_seconds",
			Help:      "Time to search, fetch and extract facts for a label",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}),
		FactsByCategory: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "facts_extracted_total",
			Help:      "Extracted facts by category",
		}, []string{"category"}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler returns the Prometheus exposition handler for this registry
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry (tests, additional collectors)
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObservePrediction records one classifier call
func (m *Metrics) ObservePrediction(classifier, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.PredictionsTotal.WithLabelValues(classifier, outcome).Inc()
	m.ClassifyDuration.WithLabelValues(classifier).Observe(d.Seconds())
}

// ObserveFactLookup records one fact lookup
func (m *Metrics) ObserveFactLookup(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.FactLookupsTotal.WithLabelValues(outcome).Inc()
	m.FactLookupDuration.Observe(d.Seconds())
}

// CountFact increments the per-category fact counter
func (m *Metrics) CountFact(category string) {
	if m == nil {
		return
	}
	m.FactsByCategory.WithLabelValues(category).Inc()
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
