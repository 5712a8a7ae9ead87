package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/netopsio/srpulse/internal/anomaly"
	"github.com/netopsio/srpulse/internal/application"
	"github.com/netopsio/srpulse/internal/application/pipeline"
	"github.com/netopsio/srpulse/internal/baseline"
	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/infrastructure/db"
	"github.com/netopsio/srpulse/internal/ingest"
	httpmetrics "github.com/netopsio/srpulse/internal/interfaces/http"
	"github.com/netopsio/srpulse/internal/persistence"
	"github.com/netopsio/srpulse/internal/resolution"
	"github.com/netopsio/srpulse/internal/trend"
	"github.com/netopsio/srpulse/internal/validate"
	"github.com/netopsio/srpulse/internal/variation"
)

const defaultConfigPath = "config/pipeline.yaml"

// loadConfig resolves the --config flag. The default path is allowed to be
// absent (baked-in defaults apply); an explicitly given path must load.
func loadConfig(cmd *cobra.Command) (*application.PipelineConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == defaultConfigPath {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return application.DefaultPipelineConfig(), nil
		}
	}
	return application.LoadPipelineConfig(path)
}

// openManager connects the pool sized per config, with the DSN resolved from
// the environment.
func openManager(cfg *application.PipelineConfig) (*db.Manager, error) {
	manager, err := db.NewManager(db.Config{
		DSN:             application.ResolveDSN(),
		MaxOpenConns:    cfg.Database.PoolSize,
		MaxIdleConns:    cfg.Database.PoolSize,
		ConnMaxLifetime: cfg.Database.ConnRecycle(),
		QueryTimeout:    cfg.Database.QueryTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return manager, nil
}

// buildPipeline assembles the full stage set over one repository set.
func buildPipeline(cfg *application.PipelineConfig, repos *persistence.Repository) *pipeline.Pipeline {
	dims := cfg.DimensionSet()
	store := baseline.NewStore(cfg.Baseline.ArtifactDir)

	stages := pipeline.Stages{
		Ingest:    ingest.New(repos.Complaints),
		Validate:  validate.NewValidator(repos.Complaints),
		Baseline:  baseline.NewBuilder(repos.Complaints, store, dims, cfg.Baseline.Windows),
		Anomaly:   anomaly.NewDetector(repos.Complaints, repos.Anomalies, store, dims, cfg.Thresholds.ZScoreWarning, cfg.Thresholds.ZScoreCritical),
		Trend:     trend.NewAnalyzer(repos.Complaints, repos.Trends, dims, cfg.Baseline.Windows, cfg.Thresholds.TrendSignificance),
		Variation: variation.NewCalculator(repos.Complaints, repos.Variations, dims, cfg.Thresholds.VariationThresholdPercent),
		Correlate: anomaly.NewCorrelator(repos.Complaints, repos.Anomalies, dims),
		RCA:       anomaly.NewRCAAnnotator(repos.Complaints, repos.Anomalies),
		Severity:  anomaly.NewEscalator(repos.Anomalies, cfg.Thresholds.WidespreadRegionCount),
		Narrate:   anomaly.NewNarrator(repos.Anomalies, repos.Insights),
		Resolve:   resolution.NewTracker(repos.Complaints, repos.Resolution),
	}

	return pipeline.New(stages, repos.Anomalies, httpmetrics.DefaultMetrics)
}

// parseTargetDate resolves the optional --date flag; empty means yesterday.
func parseTargetDate(cmd *cobra.Command) (time.Time, error) {
	raw, _ := cmd.Flags().GetString("date")
	if raw == "" {
		return domain.Yesterday(time.Now()), nil
	}
	day, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q, want YYYY-MM-DD: %w", raw, err)
	}
	return day, nil
}

// printJSON renders a payload for operators and scripts alike.
func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
