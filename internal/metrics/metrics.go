package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the insights service. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	// Analysis metrics
	Analyses         *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	RecordsIngested  *prometheus.CounterVec
	RowsRejected     *prometheus.CounterVec

	// Finding metrics
	Alerts      *prometheus.CounterVec
	Trends      *prometheus.CounterVec
	NewEntities *prometheus.CounterVec

	// Cache metrics
	CacheOps *prometheus.CounterVec

	// HTTP metrics
	HTTPRequests  *prometheus.CounterVec
	HTTPLatency   *prometheus.HistogramVec
	RateLimitHits *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg. A nil reg
// uses the default Prometheus registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		Analyses: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Total number of analyses run, by outcome",
			},
			[]string{"status"},
		),
		AnalysisDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Time to load, slice and analyze one dataset",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
		),
		RecordsIngested: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "records_ingested_total",
				Help:      "Total number of records accepted, by source kind",
			},
			[]string{"source"},
		),
		RowsRejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_rejected_total",
				Help:      "Total number of input rows dropped or repaired, by reason",
			},
			[]string{"reason"},
		),
		Alerts: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alerts_emitted_total",
				Help:      "Total number of short-horizon alerts, by kind",
			},
			[]string{"kind"},
		),
		Trends: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trends_emitted_total",
				Help:      "Total number of week-over-week trend findings, by kind",
			},
			[]string{"kind"},
		),
		NewEntities: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "new_entities_total",
				Help:      "Total number of entities classified as new, by classifier",
			},
			[]string{"classifier"},
		),
		CacheOps: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_operations_total",
				Help:      "Result cache operations, by operation and result",
			},
			[]string{"op", "result"},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests, by route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
	}
}

// Handler returns the Prometheus metrics HTTP handler for gatherer. A nil
// gatherer serves the default registry.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordAnalysis records the outcome and latency of one analysis.
func (m *Metrics) RecordAnalysis(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.Analyses.WithLabelValues(status).Inc()
	m.AnalysisDuration.Observe(d.Seconds())
}

// RecordIngest records accepted records and rejected rows of one load.
func (m *Metrics) RecordIngest(source string, accepted, badDate, badNumber, clamped int) {
	if m == nil {
		return
	}
	m.RecordsIngested.WithLabelValues(source).Add(float64(accepted))
	m.RowsRejected.WithLabelValues("bad_date").Add(float64(badDate))
	m.RowsRejected.WithLabelValues("bad_number").Add(float64(badNumber))
	m.RowsRejected.WithLabelValues("clamped").Add(float64(clamped))
}

// RecordAlert counts one alert of kind.
func (m *Metrics) RecordAlert(kind string) {
	if m == nil {
		return
	}
	m.Alerts.WithLabelValues(kind).Inc()
}

// RecordTrend counts one trend finding of kind.
func (m *Metrics) RecordTrend(kind string) {
	if m == nil {
		return
	}
	m.Trends.WithLabelValues(kind).Inc()
}

// RecordNewEntities counts entities flagged new by classifier.
func (m *Metrics) RecordNewEntities(classifier string, n int) {
	if m == nil {
		return
	}
	m.NewEntities.WithLabelValues(classifier).Add(float64(n))
}

// RecordCache records a cache operation. err == nil is a hit or success.
func (m *Metrics) RecordCache(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.CacheOps.WithLabelValues(op, result).Inc()
}

// RecordCacheMiss records a lookup for an unknown id.
func (m *Metrics) RecordCacheMiss(op string) {
	if m == nil {
		return
	}
	m.CacheOps.WithLabelValues(op, "miss").Inc()
}

// RecordHTTPRequest records a completed request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(route).Observe(d.Seconds())
}

// RecordRateLimitHit records a rate limit hit.
func (m *Metrics) RecordRateLimitHit(route string) {
	if m == nil {
		return
	}
	m.RateLimitHits.WithLabelValues(route).Inc()
}
