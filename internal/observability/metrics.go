package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dashboard refresh pipeline.
type Metrics struct {
	RefreshCycles  *prometheus.CounterVec // labels: kind={full,weather,almanac}, outcome={ok,error}
	RefreshDropped *prometheus.CounterVec // labels: kind
	DayRollovers   prometheus.Counter
	RefreshRunning prometheus.Gauge

	// Location resolution metrics.
	GeocodeLookups    *prometheus.CounterVec // labels: tier={cache,gazetteer,remote}, result={hit,miss}
	GeocodeCandidates prometheus.Histogram   // remote candidates tried per resolution

	// Upstream API metrics.
	UpstreamDuration *prometheus.HistogramVec // labels: api={geocoding,forecast,almanac}
	UpstreamErrors   *prometheus.CounterVec   // labels: api

	UnknownYiJiTerms prometheus.Gauge
}

// NewMetrics creates and registers all dashboard metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.RefreshCycles,
		m.RefreshDropped,
		m.DayRollovers,
		m.RefreshRunning,
		m.GeocodeLookups,
		m.GeocodeCandidates,
		m.UpstreamDuration,
		m.UpstreamErrors,
		m.UnknownYiJiTerms,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, so parallel
// tests never hit "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RefreshCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walldash",
			Name:      "refresh_cycles_total",
			Help:      "Refresh cycles by kind and outcome.",
		}, []string{"kind", "outcome"}),
		RefreshDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walldash",
			Name:      "refresh_dropped_total",
			Help:      "Refresh requests dropped because a cycle was already in flight.",
		}, []string{"kind"}),
		DayRollovers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "walldash",
			Name:      "day_rollovers_total",
			Help:      "Detected Taipei calendar-day rollovers.",
		}),
		RefreshRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "walldash",
			Name:      "refresh_running",
			Help:      "1 while a refresh cycle is in flight.",
		}),
		GeocodeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walldash",
			Name:      "geocode_lookups_total",
			Help:      "Location lookups by tier and result.",
		}, []string{"tier", "result"}),
		GeocodeCandidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "walldash",
			Name:      "geocode_candidates_tried",
			Help:      "Remote query candidates tried per resolution.",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12},
		}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "walldash",
			Name:      "upstream_request_duration_seconds",
			Help:      "Upstream API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"api"}),
		UpstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "walldash",
			Name:      "upstream_errors_total",
			Help:      "Upstream API failures by endpoint.",
		}, []string{"api"}),
		UnknownYiJiTerms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "walldash",
			Name:      "unknown_yiji_terms",
			Help:      "Distinct almanac terms with no dictionary entry this process lifetime.",
		}),
	}
}
