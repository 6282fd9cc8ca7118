// Package metrics exposes Prometheus collectors for the pipeline.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	collectorPagesTotal        *prometheus.CounterVec
	collectorBytesTotal        *prometheus.CounterVec
	collectorPageDuration      *prometheus.HistogramVec
	collectorItemsTotal        *prometheus.CounterVec
	normalizerRowsTotal        *prometheus.CounterVec
	pipelineRunsTotal          *prometheus.CounterVec
	pipelineRunDurationSeconds *prometheus.HistogramVec
	apiRequestsTotal           *prometheus.CounterVec
	apiRequestDuration         *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		collectorPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_pages_total",
				Help: "Total number of listing pages fetched, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		collectorBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		collectorPageDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "collector_page_duration_seconds",
				Help:    "Histogram of listing page fetch latencies, labeled by site.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"site"},
		)

		collectorItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collector_items_total",
				Help: "Total number of listing items seen, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		normalizerRowsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "normalizer_rows_total",
				Help: "Rows handled by the normalizer, labeled by disposition.",
			},
			[]string{"disposition"},
		)

		pipelineRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_runs_total",
				Help: "Total number of component invocations, labeled by kind and status code.",
			},
			[]string{"kind", "status"},
		)

		pipelineRunDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_run_duration_seconds",
				Help:    "Histogram of component invocation latencies, labeled by kind.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
			},
			[]string{"kind"},
		)

		apiRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_requests_total",
				Help: "Total number of HTTP requests, labeled by method, route and status code.",
			},
			[]string{"method", "route", "status"},
		)

		apiRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "api_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	Init()
	return promhttp.Handler()
}

// ObservePage records one listing page fetch.
func ObservePage(pageURL, status string, bytesFetched int, duration time.Duration) {
	Init()
	site := SanitizeSite(pageURL)
	collectorPagesTotal.WithLabelValues(site, status).Inc()
	if bytesFetched > 0 {
		collectorBytesTotal.WithLabelValues(site).Add(float64(bytesFetched))
	}
	collectorPageDuration.WithLabelValues(site).Observe(duration.Seconds())
}

// ObserveItem counts one listing item by extraction outcome.
func ObserveItem(outcome string) {
	Init()
	collectorItemsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRows adds n rows under the given disposition (read, incomplete, out_of_range, truncated, written).
func ObserveRows(disposition string, n int) {
	if n <= 0 {
		return
	}
	Init()
	normalizerRowsTotal.WithLabelValues(disposition).Add(float64(n))
}

// ObserveRun records a finished component invocation.
func ObserveRun(kind, status string, duration time.Duration) {
	Init()
	pipelineRunsTotal.WithLabelValues(kind, status).Inc()
	pipelineRunDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveHTTPRequest records one served HTTP request. route should be the
// router pattern, not the raw path, to keep cardinality bounded.
func ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	Init()
	if route == "" {
		route = "unknown"
	}
	apiRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	apiRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
