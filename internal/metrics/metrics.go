// Package metrics exposes Prometheus collectors for the import service.
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
	importsTotal               *prometheus.CounterVec
	fetchBytesTotal            *prometheus.CounterVec
	fetchDurationSeconds       *prometheus.HistogramVec
	scrapeStrategyTotal        *prometheus.CounterVec
	smartListJobsTotal         *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec
	activeImportWorkers        prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		importsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simmer_imports_total",
				Help: "Total number of import runs, labeled by final status.",
			},
			[]string{"status"},
		)

		fetchBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simmer_fetch_bytes_total",
				Help: "Total number of bytes fetched, labeled by site.",
			},
			[]string{"site"},
		)

		fetchDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "simmer_fetch_duration_seconds",
				Help:    "Histogram of page fetch latencies, labeled by site.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
			},
			[]string{"site"},
		)

		scrapeStrategyTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simmer_scrape_strategy_total",
				Help: "Total number of scrapes, labeled by winning strategy and confidence.",
			},
			[]string{"strategy", "confidence"},
		)

		smartListJobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simmer_smart_list_jobs_total",
				Help: "Total number of smart list job runs, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		activeImportWorkers = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "simmer_active_import_workers",
				Help: "Number of workers currently running an import.",
			},
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
	return promhttp.Handler()
}

// ObserveImport increments the import counter for the given final status.
func ObserveImport(status string) {
	importsTotal.WithLabelValues(status).Inc()
}

// ObserveFetch records the size and latency of one page fetch.
func ObserveFetch(site string, bytesFetched int, duration time.Duration) {
	sanitized := SanitizeSite(site)
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(sanitized).Add(float64(bytesFetched))
	}
	fetchDurationSeconds.WithLabelValues(sanitized).Observe(duration.Seconds())
}

// ObserveScrape increments the strategy counter for one completed scrape.
func ObserveScrape(strategy, confidence string) {
	scrapeStrategyTotal.WithLabelValues(strategy, confidence).Inc()
}

// ObserveSmartListJob increments the job counter for the given outcome.
func ObserveSmartListJob(outcome string) {
	smartListJobsTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// IncActiveWorkers increments the active workers gauge.
func IncActiveWorkers() {
	activeImportWorkers.Inc()
}

// DecActiveWorkers decrements the active workers gauge.
func DecActiveWorkers() {
	activeImportWorkers.Dec()
}
