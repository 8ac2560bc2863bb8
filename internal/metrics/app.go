package metrics

import "github.com/prometheus/client_golang/prometheus"

// Application-level Prometheus metrics: search, catalog and authentication.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinesearch",
			Name:      "search_requests_total",
			Help:      "Total number of similarity searches",
		},
		[]string{"status"}, // "success" / "rejected" / "error"
	)

	SearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "cinesearch",
			Name:      "search_duration_seconds",
			Help:      "Similarity search duration in seconds, embedding included",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	CatalogMovies = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cinesearch",
			Name:      "catalog_movies",
			Help:      "Number of movies loaded into the catalog",
		},
	)

	CatalogEmbeddedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "cinesearch",
			Name:      "catalog_embedded_total",
			Help:      "Catalog records embedded during augmentation",
		},
	)

	AuthEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cinesearch",
			Name:      "auth_events_total",
			Help:      "Authentication events by type and outcome",
		},
		[]string{"event", "result"},
	)
)

var appMetricsRegistered bool

// RegisterAppMetrics registers search, catalog and auth metrics. Must be called once from main.
func RegisterAppMetrics() {
	if appMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(CatalogMovies)
	prometheus.MustRegister(CatalogEmbeddedTotal)
	prometheus.MustRegister(AuthEventsTotal)
	appMetricsRegistered = true
}
