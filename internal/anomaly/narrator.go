package anomaly

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

// Narrator renders the day's anomalies into executive insights. Insight
// timestamps carry the target date at midnight rather than wall-clock time,
// so re-running a day regenerates byte-identical rows.
type Narrator struct {
	anomalies persistence.AnomaliesRepo
	insights  persistence.InsightsRepo
}

func NewNarrator(anomalies persistence.AnomaliesRepo, insights persistence.InsightsRepo) *Narrator {
	return &Narrator{anomalies: anomalies, insights: insights}
}

// Run rewrites the day's exec_insights from its anomalies, strongest
// deviation first. INFO-level noise is left out.
func (n *Narrator) Run(ctx context.Context, day time.Time) (domain.StageResult, error) {
	day = domain.Midnight(day)
	start := time.Now()

	anomalies, err := n.anomalies.ListByDate(ctx, day)
	if err != nil {
		serr := &domain.StoreError{Op: "anomalies list", Err: err}
		return domain.Errorf("narration failed: %v", serr), serr
	}

	var rows []persistence.Insight
	for _, a := range anomalies {
		if a.Severity == domain.SeverityInfo {
			continue
		}
		summary := fmt.Sprintf("On %s, detected %d complaints (Baseline: %.1f). Deviation: %.1fσ. Severity: %s. ",
			day.Format(domain.DateLayout), int(a.MetricValue), a.BaselineAvg, a.ZScore, a.Severity)
		if a.RCAContext != "" {
			summary += "\nContext: " + a.RCAContext
		}
		rows = append(rows, persistence.Insight{
			CreatedAt: day,
			Title:     fmt.Sprintf("Spike in %s (%s)", a.DimensionKey, a.Dimension),
			Summary:   summary,
			Severity:  a.Severity,
		})
	}

	if err := n.insights.ReplaceForDate(ctx, day, rows); err != nil {
		serr := &domain.StoreError{Op: "insights replace", Err: err}
		return domain.Errorf("narration failed: %v", serr), serr
	}

	log.Info().
		Str("target_date", day.Format(domain.DateLayout)).
		Int("insights", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("Narration complete")

	return domain.Success(fmt.Sprintf("published %d insights", len(rows))).
		WithCount("insights", len(rows)), nil
}
