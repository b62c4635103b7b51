// internal/monitoring/monitoring.go

// Package monitoring exposes prometheus metrics for scrape outcomes,
// fallback behavior, rate limiting, and cache effectiveness.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "socialscrapexter",
		Name:      "scrapes_total",
		Help:      "Scrape attempts by backend, operation, and outcome.",
	}, []string{"backend", "operation", "outcome"})

	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "socialscrapexter",
		Name:      "fallbacks_total",
		Help:      "Fallback transitions between backends.",
	}, []string{"from", "to"})

	rateLimitWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "socialscrapexter",
		Name:      "rate_limit_wait_seconds",
		Help:      "Time spent waiting on the shared rate limiter.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	})

	cacheEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "socialscrapexter",
		Name:      "cache_events_total",
		Help:      "Result cache hits and misses.",
	}, []string{"event"})

	scrapeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "socialscrapexter",
		Name:      "scrape_duration_seconds",
		Help:      "End-to-end scrape duration by operation.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"operation"})
)

// RecordScrape counts one backend attempt. Outcome is "success" or
// "failure".
func RecordScrape(backend, operation string, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	scrapesTotal.WithLabelValues(backend, operation, outcome).Inc()
}

// RecordFallback counts a transition from one backend to the next.
func RecordFallback(from, to string) {
	fallbacksTotal.WithLabelValues(from, to).Inc()
}

// RecordRateLimitWait observes time spent blocked on the limiter.
func RecordRateLimitWait(d time.Duration) {
	rateLimitWait.Observe(d.Seconds())
}

// RecordCacheHit and RecordCacheMiss count result-cache lookups.
func RecordCacheHit()  { cacheEvents.WithLabelValues("hit").Inc() }
func RecordCacheMiss() { cacheEvents.WithLabelValues("miss").Inc() }

// RecordDuration observes one whole operation, attempts included.
func RecordDuration(operation string, d time.Duration) {
	scrapeDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// Handler returns the metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
