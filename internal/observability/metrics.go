package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "heatmap_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	RendersTotal   *prometheus.CounterVec // labels: bracket
	RenderErrors   prometheus.Counter
	RenderDuration prometheus.Histogram

	// Last render's join outcome.
	MissingCoordinates prometheus.Gauge

	// Dataset metrics, set on every successful load.
	DatasetLoads             *prometheus.CounterVec // labels: outcome={success,error}
	DatasetMeasurementRows   prometheus.Gauge
	DatasetCoordinateRows    prometheus.Gauge
	DatasetMissingAges       prometheus.Gauge
	DatasetSkippedRows       prometheus.Gauge
	DatasetInvalidQuantities prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge

	ExportedRows prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		RendersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Dashboard renders by age bracket filter.",
		}, []string{"bracket"}),
		RenderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_errors_total",
			Help:      "Renders that failed before producing output.",
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Duration of a full aggregate-join-build pass.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		MissingCoordinates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "missing_coordinates",
			Help:      "Cities without coordinates in the most recent render.",
		}),
		DatasetLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dataset_loads_total",
			Help:      "Source loads by outcome.",
		}, []string{"outcome"}),
		DatasetMeasurementRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_measurement_rows",
			Help:      "Measurement rows in the loaded dataset.",
		}),
		DatasetCoordinateRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_coordinate_rows",
			Help:      "Coordinate rows in the loaded dataset.",
		}),
		DatasetMissingAges: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_missing_ages",
			Help:      "Measurement rows whose age did not parse.",
		}),
		DatasetSkippedRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_skipped_rows",
			Help:      "Source rows skipped for lacking a city.",
		}),
		DatasetInvalidQuantities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_invalid_quantities",
			Help:      "Measurement rows whose quantity did not parse.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when geocoding suggestions are enabled, 0 otherwise.",
		}),
		ExportedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "export_rows_total",
			Help:      "Joined rows published to the export topic.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RendersTotal,
		m.RenderErrors,
		m.RenderDuration,
		m.MissingCoordinates,
		m.DatasetLoads,
		m.DatasetMeasurementRows,
		m.DatasetCoordinateRows,
		m.DatasetMissingAges,
		m.DatasetSkippedRows,
		m.DatasetInvalidQuantities,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
		m.ExportedRows,
	}
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
