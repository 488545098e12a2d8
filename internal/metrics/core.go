package metrics

import "github.com/prometheus/client_golang/prometheus"

// Core Prometheus metrics.
var (
	FilterEvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civica",
			Name:      "filter_evaluations_total",
			Help:      "Total number of filter evaluations",
		},
		[]string{"catalog"},
	)

	FilterResultSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "civica",
			Name:      "filter_result_size",
			Help:      "Number of records returned by a filter evaluation",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
		},
		[]string{"catalog"},
	)

	ScreensActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "civica",
			Name:      "screens_active",
			Help:      "Number of mounted screens",
		},
	)

	ScreenEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civica",
			Name:      "screen_events_total",
			Help:      "Total screen input events",
		},
		[]string{"event"}, // mount, unmount, evict, text, category, tap, passphrase
	)

	GateAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civica",
			Name:      "gate_attempts_total",
			Help:      "Total passphrase unlock attempts",
		},
		[]string{"result"}, // unlocked, rejected, throttled
	)

	VaultOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civica",
			Name:      "vault_operations_total",
			Help:      "Total vault evidence operations",
		},
		[]string{"op", "status"},
	)

	CatalogReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "civica",
			Name:      "catalog_reloads_total",
			Help:      "Total catalog registry reloads",
		},
		[]string{"status"},
	)
)

var coreMetricsRegistered bool

// RegisterCoreMetrics registers the domain metrics. Must be called once from main.
func RegisterCoreMetrics() {
	if coreMetricsRegistered {
		return
	}
	prometheus.MustRegister(FilterEvaluationsTotal)
	prometheus.MustRegister(FilterResultSize)
	prometheus.MustRegister(ScreensActive)
	prometheus.MustRegister(ScreenEventsTotal)
	prometheus.MustRegister(GateAttemptsTotal)
	prometheus.MustRegister(VaultOperationsTotal)
	prometheus.MustRegister(CatalogReloadsTotal)
	coreMetricsRegistered = true
}
