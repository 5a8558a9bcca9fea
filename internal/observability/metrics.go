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
// All Record methods are safe on a nil *Metrics and do nothing.
type Metrics struct {
	// Ingestion metrics
	RawRowsRead       *prometheus.CounterVec
	InputsSkipped     *prometheus.CounterVec
	EventsUpserted    *prometheus.CounterVec
	FieldIssues       *prometheus.CounterVec
	IngestionFailures *prometheus.CounterVec

	// Scoring metrics
	EventsScored    prometheus.Counter
	TitleGroups     *prometheus.GaugeVec
	PairSignals     *prometheus.CounterVec
	FilterStageRows *prometheus.GaugeVec

	// Pipeline metrics
	PipelineRunsTotal *prometheus.CounterVec
	PipelineDuration  *prometheus.HistogramVec

	// Feed metrics
	FeedSubscribers prometheus.Gauge
	FeedBroadcasts  prometheus.Counter

	// Health metrics
	LastSuccessfulIngestion prometheus.Gauge
	LastSuccessfulPipeline  prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered with reg.
// A nil reg registers with the default Prometheus registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "fx_calendar_lab"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Ingestion metrics
		RawRowsRead: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "raw_rows_read_total",
			Help:      "Total number of raw calendar rows read by source",
		}, []string{"source"}),
		InputsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "inputs_skipped_total",
			Help:      "Total number of unchanged inputs skipped by checkpoint",
		}, []string{"source"}),
		EventsUpserted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_upserted_total",
			Help:      "Total number of events upserted by outcome",
		}, []string{"outcome"}),
		FieldIssues: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "field_issues_total",
			Help:      "Total number of fields that degraded to null during normalization",
		}, []string{"field"}),
		IngestionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "failures_total",
			Help:      "Total number of inputs that failed to load or parse",
		}, []string{"source"}),

		// Scoring metrics
		EventsScored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "events_scored_total",
			Help:      "Total number of events scored",
		}),
		TitleGroups: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "title_groups",
			Help:      "Number of title groups in the last fitted table by state",
		}, []string{"state"}),
		PairSignals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "pair_signals_total",
			Help:      "Total number of pair signals by stage",
		}, []string{"stage"}),
		FilterStageRows: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "stage_rows",
			Help:      "Rows remaining after each filter stage in the last run",
		}, []string{"stage"}),

		// Pipeline metrics
		PipelineRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by status",
		}, []string{"status"}),
		PipelineDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "phase_duration_seconds",
			Help:      "Duration of pipeline phases in seconds",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
		}, []string{"phase"}),

		// Feed metrics
		FeedSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "subscribers",
			Help:      "Current number of WebSocket subscribers",
		}),
		FeedBroadcasts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "broadcasts_total",
			Help:      "Total number of signal batches published to subscribers",
		}),

		// Health metrics
		LastSuccessfulIngestion: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_ingestion_timestamp",
			Help:      "Unix timestamp of last successful ingestion",
		}),
		LastSuccessfulPipeline: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_pipeline_timestamp",
			Help:      "Unix timestamp of last successful pipeline run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint of the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns an HTTP handler serving the metrics of one gatherer.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordRowsRead adds raw rows read from a source.
func (m *Metrics) RecordRowsRead(source string, n int) {
	if m == nil {
		return
	}
	m.RawRowsRead.WithLabelValues(source).Add(float64(n))
}

// RecordInputSkipped counts an input skipped because its content was unchanged.
func (m *Metrics) RecordInputSkipped(source string) {
	if m == nil {
		return
	}
	m.InputsSkipped.WithLabelValues(source).Inc()
}

// RecordIngestionFailure counts an input that failed to load or parse.
func (m *Metrics) RecordIngestionFailure(source string) {
	if m == nil {
		return
	}
	m.IngestionFailures.WithLabelValues(source).Inc()
}

// RecordUpsert records the outcome counts of one event upsert.
func (m *Metrics) RecordUpsert(inserted, updated, unchanged int) {
	if m == nil {
		return
	}
	m.EventsUpserted.WithLabelValues("inserted").Add(float64(inserted))
	m.EventsUpserted.WithLabelValues("updated").Add(float64(updated))
	m.EventsUpserted.WithLabelValues("unchanged").Add(float64(unchanged))
	m.LastSuccessfulIngestion.SetToCurrentTime()
}

// RecordFieldIssue counts a field that degraded to null.
func (m *Metrics) RecordFieldIssue(field string) {
	if m == nil {
		return
	}
	m.FieldIssues.WithLabelValues(field).Inc()
}

// RecordScoring records the scored corpus size and title-group gate counts.
func (m *Metrics) RecordScoring(events, groups, rawOK, directionalOK int) {
	if m == nil {
		return
	}
	m.EventsScored.Add(float64(events))
	m.TitleGroups.WithLabelValues("total").Set(float64(groups))
	m.TitleGroups.WithLabelValues("raw_ok").Set(float64(rawOK))
	m.TitleGroups.WithLabelValues("directional_ok").Set(float64(directionalOK))
}

// RecordPairSignals adds pair signals produced at a stage.
func (m *Metrics) RecordPairSignals(stage string, n int) {
	if m == nil {
		return
	}
	m.PairSignals.WithLabelValues(stage).Add(float64(n))
}

// RecordFilterStage sets the rows remaining after a filter stage.
func (m *Metrics) RecordFilterStage(stage string, n int) {
	if m == nil {
		return
	}
	m.FilterStageRows.WithLabelValues(stage).Set(float64(n))
}

// RecordPhase observes the duration of one pipeline phase.
func (m *Metrics) RecordPhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.PipelineDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordPipelineRun counts a finished run by status ("ok" or "error").
func (m *Metrics) RecordPipelineRun(status string) {
	if m == nil {
		return
	}
	m.PipelineRunsTotal.WithLabelValues(status).Inc()
	if status == "ok" {
		m.LastSuccessfulPipeline.SetToCurrentTime()
	}
}

// SetSubscribers sets the current feed subscriber count.
func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.FeedSubscribers.Set(float64(n))
}

// RecordBroadcast counts a batch published to the feed.
func (m *Metrics) RecordBroadcast() {
	if m == nil {
		return
	}
	m.FeedBroadcasts.Inc()
}
