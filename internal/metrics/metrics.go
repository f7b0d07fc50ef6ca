// Package metrics exposes Prometheus collectors for the scraper service.
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
	scraperPagesTotal          *prometheus.CounterVec
	scraperJobsTotal           *prometheus.CounterVec
	scraperActiveBatches       prometheus.Gauge
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scraperPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_pages_total",
				Help: "Total number of pages scraped, labeled by site and status.",
			},
			[]string{"site", "status"},
		)

		scraperJobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_jobs_total",
				Help: "Total number of jobs processed, labeled by status.",
			},
			[]string{"status"},
		)

		scraperActiveBatches = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "scraper_active_batches",
				Help: "Number of batches currently being scraped.",
			},
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

// ObserveScrape increments the per-page scrape counter.
func ObserveScrape(site string, status string) {
	if scraperPagesTotal == nil {
		return
	}
	scraperPagesTotal.WithLabelValues(SanitizeSite(site), status).Inc()
}

// ObserveJob increments the job counter for the given status.
func ObserveJob(status string) {
	if scraperJobsTotal == nil {
		return
	}
	scraperJobsTotal.WithLabelValues(status).Inc()
}

// IncActiveBatches increments the active batches gauge.
func IncActiveBatches() {
	if scraperActiveBatches != nil {
		scraperActiveBatches.Inc()
	}
}

// DecActiveBatches decrements the active batches gauge.
func DecActiveBatches() {
	if scraperActiveBatches != nil {
		scraperActiveBatches.Dec()
	}
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
