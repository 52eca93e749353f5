// Package metrics exposes Prometheus collectors for the conversion pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "statement_converter"

// Metrics holds the pipeline collectors. It satisfies the recorder the
// extraction service reports to.
type Metrics struct {
	registry *prometheus.Registry

	documents    *prometheus.CounterVec
	pages        prometheus.Histogram
	transactions prometheus.Histogram
	duration     *prometheus.HistogramVec
	candidates   *prometheus.CounterVec
	unparseable  *prometheus.CounterVec
	fallbacks    prometheus.Counter
	requests     *prometheus.CounterVec
}

// New registers the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_processed_total",
			Help:      "Documents converted, by extraction method.",
		}, []string{"method"}),
		pages: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_pages",
			Help:      "Pages per converted document.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		transactions: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_transactions",
			Help:      "Transactions per converted document.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Time spent converting one document.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_parsed_total",
			Help:      "Candidate rows produced, by parser.",
		}, []string{"parser"}),
		unparseable: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_unparseable_total",
			Help:      "Fields cleared because they could not be normalized.",
		}, []string{"field"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "structured_fallbacks_total",
			Help:      "Structured extractions that failed and fell back to the heuristic parsers.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Conversion requests, by output format and status code.",
		}, []string{"format", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.documents,
		m.pages,
		m.transactions,
		m.duration,
		m.candidates,
		m.unparseable,
		m.fallbacks,
		m.requests,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) DocumentProcessed(method string, pages, transactions int, elapsed time.Duration) {
	m.documents.WithLabelValues(method).Inc()
	m.pages.Observe(float64(pages))
	m.transactions.Observe(float64(transactions))
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}

func (m *Metrics) CandidatesParsed(parser string, n int) {
	m.candidates.WithLabelValues(parser).Add(float64(n))
}

func (m *Metrics) FieldUnparseable(field string) {
	m.unparseable.WithLabelValues(field).Inc()
}

func (m *Metrics) StructuredFallback() {
	m.fallbacks.Inc()
}

// RequestServed counts one answered conversion request.
func (m *Metrics) RequestServed(format, code string) {
	m.requests.WithLabelValues(format, code).Inc()
}
