// Package metrics exposes Prometheus collectors for the extraction service.
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
	httpRequestsTotal           *prometheus.CounterVec
	httpRequestDurationSeconds  *prometheus.HistogramVec
	documentExtractionsTotal    *prometheus.CounterVec
	jobTextExtractionsTotal     *prometheus.CounterVec
	crawlRunsTotal              *prometheus.CounterVec
	crawlPollAttempts           prometheus.Histogram
	crawlServiceThrottleSeconds *prometheus.HistogramVec
	jobTextDegradedStaticTotal  *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
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
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30, 60, 120},
			},
			[]string{"method", "route"},
		)

		documentExtractionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "document_extractions_total",
				Help: "Total number of document extractions, labeled by detected format and outcome.",
			},
			[]string{"format", "outcome"},
		)

		jobTextExtractionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobtext_extractions_total",
				Help: "Total number of job-posting extractions, labeled by source and outcome.",
			},
			[]string{"source", "outcome"},
		)

		crawlRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawl_runs_total",
				Help: "Total number of crawl-service runs, labeled by terminal status.",
			},
			[]string{"status"},
		)

		crawlPollAttempts = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crawl_poll_attempts",
				Help:    "Number of status polls needed per crawl run.",
				Buckets: []float64{1, 2, 5, 10, 20, 40, 60},
			},
		)

		crawlServiceThrottleSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawl_service_throttle_seconds",
				Help:    "Histogram of rate limit wait durations before crawl-service calls.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"host"},
		)

		jobTextDegradedStaticTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobtext_degraded_static_total",
				Help: "Static scrapes of pages that look script-rendered, labeled by site.",
			},
			[]string{"site"},
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

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveDocument counts a document extraction attempt.
func ObserveDocument(format, outcome string) {
	Init()
	documentExtractionsTotal.WithLabelValues(format, outcome).Inc()
}

// ObserveJobText counts a job-posting extraction attempt.
func ObserveJobText(source, outcome string) {
	Init()
	jobTextExtractionsTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveCrawlRun records the terminal status of a crawl run and how many polls it took.
func ObserveCrawlRun(status string, polls int) {
	Init()
	crawlRunsTotal.WithLabelValues(status).Inc()
	if polls > 0 {
		crawlPollAttempts.Observe(float64(polls))
	}
}

// ObserveThrottleDelay records the duration of a rate limit wait.
func ObserveThrottleDelay(host string, duration time.Duration) {
	Init()
	crawlServiceThrottleSeconds.WithLabelValues(host).Observe(duration.Seconds())
}

// IncDegradedStatic counts a static scrape of a page that looks script-rendered.
func IncDegradedStatic(rawURL string) {
	Init()
	jobTextDegradedStaticTotal.WithLabelValues(SanitizeSite(rawURL)).Inc()
}
