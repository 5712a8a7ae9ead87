// Package pipeline sequences the daily analytics stages for one target date
// and aggregates their structured results. Ingest failures stop the run
// immediately; any later stage error halts everything downstream of it, while
// warnings let the run continue. The enrichment stages (correlation, RCA,
// severity, narrator) only run when the day produced at least one anomaly;
// resolution runs last regardless of the anomaly gate.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/netopsio/srpulse/internal/domain"
	httpmetrics "github.com/netopsio/srpulse/internal/interfaces/http"
)

// Stage names, in execution order.
const (
	StageIngest      = "ingest"
	StageValidate    = "validate"
	StageBaseline    = "baseline"
	StageAnomaly     = "anomaly"
	StageTrend       = "trend"
	StageVariation   = "variation"
	StageCorrelation = "correlation"
	StageRCA         = "rca"
	StageSeverity    = "severity"
	StageNarrator    = "narrator"
	StageResolution  = "resolution"
)

// StageRunner is the contract every date-driven stage satisfies.
type StageRunner interface {
	Run(ctx context.Context, day time.Time) (domain.StageResult, error)
}

// FileIngestor loads one source file into complaints_raw.
type FileIngestor interface {
	IngestFile(ctx context.Context, path string) (domain.StageResult, error)
}

// AnomalyCounter gates the enrichment stages on the day's anomaly count.
type AnomalyCounter interface {
	CountByDate(ctx context.Context, day time.Time) (int64, error)
}

// Stages collects the pipeline's stage implementations. Resolve sits outside
// the anomaly gate: MTTR and aging read models exist for every day.
type Stages struct {
	Ingest    FileIngestor
	Validate  StageRunner
	Baseline  StageRunner
	Anomaly   StageRunner
	Trend     StageRunner
	Variation StageRunner
	Correlate StageRunner
	RCA       StageRunner
	Severity  StageRunner
	Narrate   StageRunner
	Resolve   StageRunner
}

// Options selects what one execution covers.
type Options struct {
	// FilePath is the source export to ingest. Required when RunIngestion
	// is set, ignored otherwise.
	FilePath string
	// TargetDate is the analysis day. Zero means yesterday.
	TargetDate time.Time
	// RunIngestion loads FilePath before the analytics stages.
	RunIngestion bool
	// RunBaseline rebuilds the baseline artifacts before anomaly detection.
	RunBaseline bool
}

// Result aggregates one execution's stage outcomes.
type Result struct {
	Status     domain.Status                 `json:"status"`
	TargetDate string                        `json:"target_date"`
	Stages     map[string]domain.StageResult `json:"stages"`
	Duration   time.Duration                 `json:"duration"`
}

// Pipeline wires the stages to their sequencing policy.
type Pipeline struct {
	stages    Stages
	anomalies AnomalyCounter
	metrics   *httpmetrics.MetricsRegistry
}

// New builds a pipeline. metrics may be nil when no registry is running.
func New(stages Stages, anomalies AnomalyCounter, metrics *httpmetrics.MetricsRegistry) *Pipeline {
	return &Pipeline{stages: stages, anomalies: anomalies, metrics: metrics}
}

type stageFunc func(ctx context.Context) (domain.StageResult, error)

type step struct {
	name string
	run  stageFunc
}

// Execute runs the configured stages for opts and returns the aggregated
// result. The result is populated with whatever ran even when err is non-nil.
func (p *Pipeline) Execute(ctx context.Context, opts Options) (*Result, error) {
	if opts.RunIngestion && opts.FilePath == "" {
		return nil, errors.New("ingestion requested without a file path")
	}

	day := opts.TargetDate
	if day.IsZero() {
		day = domain.Yesterday(time.Now())
	} else {
		day = domain.Midnight(day)
	}

	start := time.Now()
	result := &Result{
		Status:     domain.StatusSuccess,
		TargetDate: day.Format(domain.DateLayout),
		Stages:     make(map[string]domain.StageResult),
	}
	defer func() { result.Duration = time.Since(start) }()

	if p.metrics != nil {
		p.metrics.IncrementActivePipelines()
		defer p.metrics.DecrementActivePipelines()
	}

	log.Info().
		Str("target_date", result.TargetDate).
		Bool("run_ingestion", opts.RunIngestion).
		Bool("run_baseline", opts.RunBaseline).
		Msg("Pipeline started")

	if opts.RunIngestion {
		res, err := p.runStage(ctx, result, StageIngest, func(ctx context.Context) (domain.StageResult, error) {
			return p.stages.Ingest.IngestFile(ctx, opts.FilePath)
		})
		if err != nil {
			result.Status = domain.StatusError
			return result, fmt.Errorf("pipeline failed at stage %s: %w", StageIngest, err)
		}
		if p.metrics != nil {
			p.metrics.RecordRowsIngested(res.Counts["rows_upserted"])
		}
	}

	steps := []step{
		{StageValidate, p.dateStage(p.stages.Validate, day)},
	}
	if opts.RunBaseline {
		steps = append(steps, step{StageBaseline, p.dateStage(p.stages.Baseline, day)})
	}
	steps = append(steps,
		step{StageAnomaly, p.dateStage(p.stages.Anomaly, day)},
		step{StageTrend, p.dateStage(p.stages.Trend, day)},
		step{StageVariation, p.dateStage(p.stages.Variation, day)},
	)

	for _, s := range steps {
		if _, err := p.runStage(ctx, result, s.name, s.run); err != nil {
			result.Status = domain.StatusError
			return result, fmt.Errorf("pipeline failed at stage %s: %w", s.name, err)
		}
	}

	if p.metrics != nil {
		a := result.Stages[StageAnomaly]
		p.metrics.RecordAnomalies(domain.SeverityCritical, a.Counts["critical"])
		p.metrics.RecordAnomalies(domain.SeverityWarning, a.Counts["warning"])
	}

	count, err := p.anomalies.CountByDate(ctx, day)
	if err != nil {
		serr := &domain.StoreError{Op: "anomaly count", Err: err}
		log.Error().Err(serr).Str("target_date", result.TargetDate).Msg("Pipeline halted before enrichment stages")
		result.Status = domain.StatusError
		return result, serr
	}

	if count == 0 {
		log.Info().Str("target_date", result.TargetDate).Msg("No anomalies, skipping enrichment stages")
		if p.metrics != nil {
			for _, name := range []string{StageCorrelation, StageRCA, StageSeverity, StageNarrator} {
				p.metrics.PipelineStages.WithLabelValues(name, "skipped").Inc()
			}
		}
	} else {
		enrichment := []step{
			{StageCorrelation, p.dateStage(p.stages.Correlate, day)},
			{StageRCA, p.dateStage(p.stages.RCA, day)},
			{StageSeverity, p.dateStage(p.stages.Severity, day)},
			{StageNarrator, p.dateStage(p.stages.Narrate, day)},
		}
		for _, s := range enrichment {
			if _, err := p.runStage(ctx, result, s.name, s.run); err != nil {
				result.Status = domain.StatusError
				return result, fmt.Errorf("pipeline failed at stage %s: %w", s.name, err)
			}
		}
	}

	if _, err := p.runStage(ctx, result, StageResolution, p.dateStage(p.stages.Resolve, day)); err != nil {
		result.Status = domain.StatusError
		return result, fmt.Errorf("pipeline failed at stage %s: %w", StageResolution, err)
	}

	log.Info().
		Str("target_date", result.TargetDate).
		Str("status", string(result.Status)).
		Int("stages", len(result.Stages)).
		Dur("total_duration", time.Since(start)).
		Msg("Pipeline execution completed")

	return result, nil
}

func (p *Pipeline) dateStage(r StageRunner, day time.Time) stageFunc {
	return func(ctx context.Context) (domain.StageResult, error) {
		return r.Run(ctx, day)
	}
}

// runStage executes one stage with timing, metrics, and logging, and folds
// its result into the aggregate.
func (p *Pipeline) runStage(ctx context.Context, result *Result, name string, fn stageFunc) (domain.StageResult, error) {
	var timer *httpmetrics.StageTimer
	if p.metrics != nil {
		timer = p.metrics.StartStageTimer(name)
	}

	stageStart := time.Now()
	res, err := fn(ctx)
	result.Stages[name] = res

	if timer != nil {
		timer.Stop(string(res.Status))
	}

	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordPipelineError(name, errorType(err))
		}
		log.Error().
			Str("stage", name).
			Err(err).
			Dur("stage_duration", time.Since(stageStart)).
			Msg("Pipeline stage failed")
		return res, err
	}

	if res.Status == domain.StatusWarning {
		if result.Status == domain.StatusSuccess {
			result.Status = domain.StatusWarning
		}
		log.Warn().
			Str("stage", name).
			Str("message", res.Message).
			Dur("stage_duration", time.Since(stageStart)).
			Msg("Pipeline stage completed with warning")
		return res, nil
	}

	log.Info().
		Str("stage", name).
		Dur("stage_duration", time.Since(stageStart)).
		Msg("Pipeline stage completed")
	return res, nil
}

// errorType maps the error taxonomy onto metric labels.
func errorType(err error) string {
	var (
		storeErr  *domain.StoreError
		schemaErr *domain.SchemaError
		encErr    *domain.EncodingError
		dateErr   *domain.DateParseError
	)
	switch {
	case errors.As(err, &storeErr):
		return "store_error"
	case errors.As(err, &schemaErr):
		return "schema_error"
	case errors.As(err, &encErr):
		return "encoding_error"
	case errors.As(err, &dateErr):
		return "date_parse_error"
	}
	return "execution_error"
}
