package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the dashboard backend.
type Metrics struct {
	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec

	// Rollup metrics
	RollupLatency *prometheus.HistogramVec

	// Click ingest metrics
	ClicksIngested *prometheus.CounterVec
	UniqueClicks   prometheus.Counter
	GeoLookups     *prometheus.HistogramVec

	// System metrics
	DBConnections *prometheus.GaugeVec
	RateLimitHits *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by route and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"route"},
		),
		RollupLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rollup_duration_seconds",
				Help:      "Rollup computation latency by operation",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"operation"},
		),
		ClicksIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "clicks_ingested_total",
				Help:      "Total click events recorded",
			},
			[]string{"device_type"},
		),
		UniqueClicks: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unique_clicks_total",
				Help:      "Click events that were the first from their IP on a link that day",
			},
		),
		GeoLookups: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "geo_lookup_latency_seconds",
				Help:      "GeoIP lookup latency",
				Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01},
			},
			[]string{"found"},
		),
		DBConnections: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections",
				Help:      "Database connection pool stats",
			},
			[]string{"state"}, // idle, in_use, total
		),
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Rate limit rejections by route",
			},
			[]string{"route"},
		),
	}
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(route, method string, status int, latency time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(route).Observe(latency.Seconds())
}

// ObserveRollup records one rollup computation.
func (m *Metrics) ObserveRollup(operation string, latency time.Duration) {
	m.RollupLatency.WithLabelValues(operation).Observe(latency.Seconds())
}

// RecordClick records an ingested click event.
func (m *Metrics) RecordClick(deviceType string, unique bool) {
	if deviceType == "" {
		deviceType = "unknown"
	}
	m.ClicksIngested.WithLabelValues(deviceType).Inc()
	if unique {
		m.UniqueClicks.Inc()
	}
}

// RecordGeoLookup records a geo lookup.
func (m *Metrics) RecordGeoLookup(found bool, latency time.Duration) {
	m.GeoLookups.WithLabelValues(strconv.FormatBool(found)).Observe(latency.Seconds())
}

// RecordRateLimitHit records a rate limit rejection.
func (m *Metrics) RecordRateLimitHit(route string) {
	m.RateLimitHits.WithLabelValues(route).Inc()
}

// UpdateDBStats updates database connection metrics.
func (m *Metrics) UpdateDBStats(idle, inUse, total int) {
	m.DBConnections.WithLabelValues("idle").Set(float64(idle))
	m.DBConnections.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnections.WithLabelValues("total").Set(float64(total))
}
