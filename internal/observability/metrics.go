// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Pipeline metrics
	RowsResolved  prometheus.Counter
	RowsDerived   prometheus.Counter
	RowsDropped   prometheus.Counter
	RowErrors     *prometheus.CounterVec
	Projections   prometheus.Counter
	PipelineRuns  *prometheus.CounterVec
	PipelineTime  *prometheus.HistogramVec
	DeriveLatency prometheus.Histogram

	// Ingestion metrics
	RecordsIngested *prometheus.CounterVec

	// Backtest metrics
	BacktestMAE  prometheus.Gauge
	BacktestRMSE prometheus.Gauge

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered on the default registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith creates a new Metrics instance registered on reg.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	if namespace == "" {
		namespace = "nba_seer"
	}
	f := promauto.With(reg)

	return &Metrics{
		RowsResolved: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows_resolved_total",
			Help:      "Total number of player/game query rows resolved",
		}),
		RowsDerived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows_derived_total",
			Help:      "Total number of rows with features derived",
		}),
		RowsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows_dropped_total",
			Help:      "Total number of rows dropped for degenerate score variation",
		}),
		RowErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "row_errors_total",
			Help:      "Total number of rows that failed feature derivation",
		}, []string{"kind"}),
		Projections: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "projections_total",
			Help:      "Total number of projections emitted",
		}),
		PipelineRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs",
		}, []string{"mode", "status"}),
		PipelineTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"mode"}),
		DeriveLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "derive_latency_seconds",
			Help:      "Per-row feature derivation latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		RecordsIngested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "records_ingested_total",
			Help:      "Total number of input rows stored, by table",
		}, []string{"table"}),
		BacktestMAE: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "mae",
			Help:      "Mean absolute error of the last backtest run",
		}),
		BacktestRMSE: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "rmse",
			Help:      "Root mean squared error of the last backtest run",
		}),
		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
		LastSuccessfulRun: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns an HTTP handler exposing the metrics of a specific registry.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordResolved adds resolved query rows.
func (m *Metrics) RecordResolved(n int) {
	if m == nil {
		return
	}
	m.RowsResolved.Add(float64(n))
}

// RecordDerived records one successfully derived row.
func (m *Metrics) RecordDerived(d time.Duration) {
	if m == nil {
		return
	}
	m.RowsDerived.Inc()
	m.DeriveLatency.Observe(d.Seconds())
}

// RecordRowError records one failed row.
func (m *Metrics) RecordRowError(kind string) {
	if m == nil {
		return
	}
	m.RowErrors.WithLabelValues(kind).Inc()
}

// RecordAggregated records the outcome of the aggregation stage.
func (m *Metrics) RecordAggregated(kept, dropped int) {
	if m == nil {
		return
	}
	m.Projections.Add(float64(kept))
	m.RowsDropped.Add(float64(dropped))
}

// RecordPipelineRun records a pipeline run.
func (m *Metrics) RecordPipelineRun(mode, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineRuns.WithLabelValues(mode, status).Inc()
	m.PipelineTime.WithLabelValues(mode).Observe(d.Seconds())
	if status == StatusOK {
		m.LastSuccessfulRun.SetToCurrentTime()
	}
}

// RecordIngested adds stored input rows for a table.
func (m *Metrics) RecordIngested(table string, n int) {
	if m == nil {
		return
	}
	m.RecordsIngested.WithLabelValues(table).Add(float64(n))
}

// RecordBacktest sets the accuracy gauges of the last backtest.
func (m *Metrics) RecordBacktest(mae, rmse float64) {
	if m == nil {
		return
	}
	m.BacktestMAE.Set(mae)
	m.BacktestRMSE.Set(rmse)
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(d.Seconds())
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// Run statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)
