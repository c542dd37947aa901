package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// measurement extraction pipeline.
type Metrics struct {
	RowsLoaded        prometheus.Counter
	RowsNoMatch       prometheus.Counter
	MalformedCaptures prometheus.Counter
	ProcessorRunning  prometheus.Gauge

	// Labelled by measurement kind (Rainfall, Temperature, ...).
	MeasurementsExtracted *prometheus.CounterVec

	LoadDuration    prometheus.Histogram
	ProcessDuration prometheus.Histogram

	// Extraction memo cache lookups, labels: result={hit,miss}.
	ExtractCache *prometheus.CounterVec

	// Kafka publishing metrics.
	RowsPublished prometheus.Counter
	PublishErrors prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "rows_loaded_total",
			Help:      "Total station rows loaded from the source table.",
		}),
		RowsNoMatch: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "rows_no_match_total",
			Help:      "Total rows whose message matched no configured pattern.",
		}),
		MalformedCaptures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "malformed_captures_total",
			Help:      "Total pattern matches whose capture did not parse as a number.",
		}),
		ProcessorRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weather_etl",
			Name:      "processor_running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		MeasurementsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "measurements_extracted_total",
			Help:      "Extracted measurements by kind.",
		}, []string{"kind"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_etl",
			Name:      "load_duration_seconds",
			Help:      "Duration of fetching and decoding the source table.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		ProcessDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_etl",
			Name:      "process_duration_seconds",
			Help:      "Duration of a complete load-extract-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ExtractCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "extract_cache_total",
			Help:      "Extraction cache lookups by result.",
		}, []string{"result"}),
		RowsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "rows_published_total",
			Help:      "Total extracted rows published to the sink topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_etl",
			Name:      "publish_errors_total",
			Help:      "Total failed publish attempts.",
		}),
	}

	prometheus.MustRegister(
		m.RowsLoaded,
		m.RowsNoMatch,
		m.MalformedCaptures,
		m.ProcessorRunning,
		m.MeasurementsExtracted,
		m.LoadDuration,
		m.ProcessDuration,
		m.ExtractCache,
		m.RowsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with unregistered collectors to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsLoaded:            prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_etl", Name: "rows_loaded_total"}),
		RowsNoMatch:           prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_etl", Name: "rows_no_match_total"}),
		MalformedCaptures:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_etl", Name: "malformed_captures_total"}),
		ProcessorRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "weather_etl", Name: "processor_running"}),
		MeasurementsExtracted: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_etl", Name: "measurements_extracted_total"}, []string{"kind"}),
		LoadDuration:          prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weather_etl", Name: "load_duration_seconds"}),
		ProcessDuration:       prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "weather_etl", Name: "process_duration_seconds"}),
		ExtractCache:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "weather_etl", Name: "extract_cache_total"}, []string{"result"}),
		RowsPublished:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_etl", Name: "rows_published_total"}),
		PublishErrors:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "weather_etl", Name: "publish_errors_total"}),
	}
}
