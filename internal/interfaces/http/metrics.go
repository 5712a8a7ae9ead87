package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/rs/zerolog/log"
)

// MetricsRegistry holds all Prometheus metrics for the analytics service
type MetricsRegistry struct {
	// Stage duration metrics
	StageDuration *prometheus.HistogramVec

	// Pipeline performance metrics
	PipelineStages *prometheus.CounterVec
	PipelineErrors *prometheus.CounterVec

	// Ingest volume metrics
	RowsIngested prometheus.Counter

	// Anomaly metrics
	AnomaliesDetected *prometheus.CounterVec

	// System metrics
	ActivePipelines prometheus.Gauge
	TotalPipelines  prometheus.Counter

	// API cache performance metrics
	CacheHitRatio prometheus.Gauge
	CacheHits     *prometheus.CounterVec
	CacheMisses   *prometheus.CounterVec

	// HTTP surface metrics
	HTTPRequests *prometheus.CounterVec
}

// cacheTypes enumerates the API response caches for the hit-ratio rollup.
var cacheTypes = []string{
	"anomalies", "trends", "variations", "insights",
	"surges", "repeats", "resolution", "series", "summary",
}

// NewMetricsRegistry creates a new metrics registry with all service metrics
func NewMetricsRegistry() *MetricsRegistry {
	registry := &MetricsRegistry{
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "srpulse_stage_duration_seconds",
				Help:    "Duration of each pipeline stage in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"stage", "result"},
		),

		PipelineStages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "srpulse_pipeline_stages_total",
				Help: "Total number of pipeline stages executed by outcome",
			},
			[]string{"stage", "status"},
		),

		PipelineErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "srpulse_pipeline_errors_total",
				Help: "Total number of pipeline errors by stage",
			},
			[]string{"stage", "error_type"},
		),

		RowsIngested: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "srpulse_rows_ingested_total",
				Help: "Total number of complaint rows upserted by ingest",
			},
		),

		AnomaliesDetected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "srpulse_anomalies_total",
				Help: "Total number of anomalies detected by severity",
			},
			[]string{"severity"},
		),

		ActivePipelines: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "srpulse_active_pipelines",
				Help: "Number of currently running pipeline executions",
			},
		),

		TotalPipelines: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "srpulse_pipelines_total",
				Help: "Total number of pipeline executions started",
			},
		),

		CacheHitRatio: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "srpulse_cache_hit_ratio",
				Help: "Current API response cache hit ratio (0.0 to 1.0)",
			},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "srpulse_cache_hits_total",
				Help: "Total number of API cache hits by cache type",
			},
			[]string{"cache_type"},
		),

		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "srpulse_cache_misses_total",
				Help: "Total number of API cache misses by cache type",
			},
			[]string{"cache_type"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "srpulse_http_requests_total",
				Help: "Total number of HTTP requests by route and status",
			},
			[]string{"route", "status"},
		),
	}

	// Register all metrics with Prometheus
	prometheus.MustRegister(
		registry.StageDuration,
		registry.PipelineStages,
		registry.PipelineErrors,
		registry.RowsIngested,
		registry.AnomaliesDetected,
		registry.ActivePipelines,
		registry.TotalPipelines,
		registry.CacheHitRatio,
		registry.CacheHits,
		registry.CacheMisses,
		registry.HTTPRequests,
	)

	return registry
}

// StageTimer tracks execution time for pipeline stages
type StageTimer struct {
	metrics *MetricsRegistry
	stage   string
	start   time.Time
}

// StartStageTimer begins timing a pipeline stage
func (m *MetricsRegistry) StartStageTimer(stage string) *StageTimer {
	return &StageTimer{
		metrics: m,
		stage:   stage,
		start:   time.Now(),
	}
}

// Stop completes the stage timing and records the metric
func (st *StageTimer) Stop(result string) {
	duration := time.Since(st.start)
	st.metrics.StageDuration.WithLabelValues(st.stage, result).Observe(duration.Seconds())
	st.metrics.PipelineStages.WithLabelValues(st.stage, result).Inc()

	log.Debug().
		Str("stage", st.stage).
		Str("result", result).
		Dur("duration", duration).
		Msg("Pipeline stage timed")
}

// RecordPipelineError records a pipeline error
func (m *MetricsRegistry) RecordPipelineError(stage, errorType string) {
	m.PipelineErrors.WithLabelValues(stage, errorType).Inc()
	log.Warn().
		Str("stage", stage).
		Str("error_type", errorType).
		Msg("Pipeline error recorded")
}

// RecordRowsIngested adds to the ingest volume counter
func (m *MetricsRegistry) RecordRowsIngested(rows int) {
	if rows > 0 {
		m.RowsIngested.Add(float64(rows))
	}
}

// RecordAnomalies adds to the per-severity anomaly counter
func (m *MetricsRegistry) RecordAnomalies(severity string, count int) {
	if count > 0 {
		m.AnomaliesDetected.WithLabelValues(severity).Add(float64(count))
	}
}

// IncrementActivePipelines marks a pipeline execution as started
func (m *MetricsRegistry) IncrementActivePipelines() {
	m.ActivePipelines.Inc()
	m.TotalPipelines.Inc()
}

// DecrementActivePipelines marks a pipeline execution as finished
func (m *MetricsRegistry) DecrementActivePipelines() {
	m.ActivePipelines.Dec()
}

// RecordCacheHit records a cache hit for the specified cache type
func (m *MetricsRegistry) RecordCacheHit(cacheType string) {
	m.CacheHits.WithLabelValues(cacheType).Inc()
	m.updateCacheHitRatio()
}

// RecordCacheMiss records a cache miss for the specified cache type
func (m *MetricsRegistry) RecordCacheMiss(cacheType string) {
	m.CacheMisses.WithLabelValues(cacheType).Inc()
	m.updateCacheHitRatio()
}

// RecordHTTPRequest counts one served request
func (m *MetricsRegistry) RecordHTTPRequest(route string, status int) {
	m.HTTPRequests.WithLabelValues(route, httpStatusClass(status)).Inc()
}

func httpStatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	}
	return "2xx"
}

// updateCacheHitRatio recalculates the aggregate hit ratio from the raw
// counters
func (m *MetricsRegistry) updateCacheHitRatio() {
	totalHits := 0.0
	totalMisses := 0.0

	for _, cacheType := range cacheTypes {
		totalHits += counterValue(m.CacheHits, cacheType)
		totalMisses += counterValue(m.CacheMisses, cacheType)
	}

	total := totalHits + totalMisses
	if total > 0 {
		m.CacheHitRatio.Set(totalHits / total)
	}
}

// counterValue reads one labelled counter back through the client data model
func counterValue(vec *prometheus.CounterVec, labels ...string) float64 {
	counter, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0
	}
	var metric io_prometheus_client.Metric
	if err := counter.Write(&metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}

// plainCounterValue reads an unlabelled counter back
func plainCounterValue(c prometheus.Counter) float64 {
	var metric io_prometheus_client.Metric
	if err := c.Write(&metric); err != nil {
		return 0
	}
	return metric.GetCounter().GetValue()
}

// MetricsSnapshot is the stats surface the API exposes without scraping.
type MetricsSnapshot struct {
	RowsIngested   float64            `json:"rows_ingested"`
	Pipelines      float64            `json:"pipelines_total"`
	Anomalies      map[string]float64 `json:"anomalies_by_severity"`
	CacheHitRatio  float64            `json:"cache_hit_ratio"`
	CollectedAtUTC time.Time          `json:"collected_at"`
}

// Snapshot reads the headline counters back for the stats endpoint
func (m *MetricsRegistry) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		RowsIngested:   plainCounterValue(m.RowsIngested),
		Pipelines:      plainCounterValue(m.TotalPipelines),
		Anomalies:      make(map[string]float64),
		CollectedAtUTC: time.Now().UTC(),
	}
	for _, sev := range []string{"INFO", "WARNING", "CRITICAL"} {
		if v := counterValue(m.AnomaliesDetected, sev); v > 0 {
			snap.Anomalies[sev] = v
		}
	}

	totalHits, totalMisses := 0.0, 0.0
	for _, cacheType := range cacheTypes {
		totalHits += counterValue(m.CacheHits, cacheType)
		totalMisses += counterValue(m.CacheMisses, cacheType)
	}
	if total := totalHits + totalMisses; total > 0 {
		snap.CacheHitRatio = totalHits / total
	}
	return snap
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func (m *MetricsRegistry) MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// Global metrics registry instance
var DefaultMetrics *MetricsRegistry

// InitializeMetrics initializes the global metrics registry once
func InitializeMetrics() {
	if DefaultMetrics != nil {
		return
	}
	DefaultMetrics = NewMetricsRegistry()
	log.Info().Msg("Prometheus metrics registry initialized")
}
