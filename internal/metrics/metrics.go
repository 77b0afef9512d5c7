// Package metrics exposes Prometheus collectors for the enrichment pipeline.
package metrics

import (
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	organizationsTotal       *prometheus.CounterVec
	fetchAttemptsTotal       *prometheus.CounterVec
	followerResolutionsTotal *prometheus.CounterVec
	rateLimitDelaySeconds    *prometheus.HistogramVec
	enrichmentSeconds        prometheus.Histogram
	activeEnrichments        prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		organizationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enricher_organizations_total",
				Help: "Organizations processed, labeled by availability status.",
			},
			[]string{"availability"},
		)

		fetchAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enricher_fetch_attempts_total",
				Help: "HTTP fetch attempts, labeled by site and outcome class.",
			},
			[]string{"site", "class"},
		)

		followerResolutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "enricher_follower_resolutions_total",
				Help: "Follower-count resolutions, labeled by platform and outcome.",
			},
			[]string{"platform", "outcome"},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "enricher_rate_limit_delay_seconds",
				Help:    "Histogram of per-platform rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"platform"},
		)

		enrichmentSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "enricher_enrichment_seconds",
				Help:    "Histogram of end-to-end per-organization enrichment time.",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		)

		activeEnrichments = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "enricher_active_enrichments",
				Help: "Organizations currently being enriched.",
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

// Handler returns an http.Handler exposing the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveOrganization counts one completed record by availability status.
func ObserveOrganization(availability string) {
	Init()
	organizationsTotal.WithLabelValues(availability).Inc()
}

// ObserveFetch counts one fetch attempt by site and outcome class.
func ObserveFetch(site, class string) {
	Init()
	fetchAttemptsTotal.WithLabelValues(SanitizeSite(site), class).Inc()
}

// ObserveResolution counts one follower resolution by platform and outcome.
func ObserveResolution(platform, outcome string) {
	Init()
	followerResolutionsTotal.WithLabelValues(platform, outcome).Inc()
}

// ObserveRateLimitDelay records how long a resolver waited on its limiter.
func ObserveRateLimitDelay(platform string, d time.Duration) {
	Init()
	rateLimitDelaySeconds.WithLabelValues(platform).Observe(d.Seconds())
}

// ObserveEnrichment records the total enrichment time for one organization.
func ObserveEnrichment(d time.Duration) {
	Init()
	enrichmentSeconds.Observe(d.Seconds())
}

// IncActiveEnrichments increments the in-flight gauge.
func IncActiveEnrichments() {
	Init()
	activeEnrichments.Inc()
}

// DecActiveEnrichments decrements the in-flight gauge.
func DecActiveEnrichments() {
	Init()
	activeEnrichments.Dec()
}
