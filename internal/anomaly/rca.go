package anomaly

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

// rcaTopN caps how many root causes a single annotation names.
const rcaTopN = 3

// BreakdownReader is the slice of the complaints repository the RCA
// annotator needs.
type BreakdownReader interface {
	RCABreakdown(ctx context.Context, day time.Time, scope domain.Dimension, key string) (persistence.RCABreakdown, error)
}

// RCAAnnotator attaches the most frequent recorded root causes inside each
// anomaly's scope to its rca_context.
type RCAAnnotator struct {
	complaints BreakdownReader
	anomalies  persistence.AnomaliesRepo
}

func NewRCAAnnotator(complaints BreakdownReader, anomalies persistence.AnomaliesRepo) *RCAAnnotator {
	return &RCAAnnotator{complaints: complaints, anomalies: anomalies}
}

// Run annotates the day's anomalies with their probable root causes.
// Anomalies on the RCA axis itself are skipped; their key already is one.
func (r *RCAAnnotator) Run(ctx context.Context, day time.Time) (domain.StageResult, error) {
	day = domain.Midnight(day)
	start := time.Now()

	anomalies, err := r.anomalies.ListByDate(ctx, day)
	if err != nil {
		serr := &domain.StoreError{Op: "anomalies list", Err: err}
		return domain.Errorf("rca annotation failed: %v", serr), serr
	}
	if len(anomalies) == 0 {
		return domain.Success("no anomalies to annotate").WithCount("annotated", 0), nil
	}

	var updates []persistence.ContextUpdate
	for _, a := range anomalies {
		scope, ok := domain.DimensionByName(a.Dimension)
		if !ok || scope.Name == domain.DimRCA.Name || scope.IsTotal() {
			continue
		}

		breakdown, err := r.complaints.RCABreakdown(ctx, day, scope, a.DimensionKey)
		if err != nil {
			serr := &domain.StoreError{Op: "rca breakdown " + a.Dimension, Err: err}
			return domain.Errorf("rca annotation failed: %v", serr), serr
		}
		if breakdown.ScopeTotal == 0 || len(breakdown.Items) == 0 {
			continue
		}

		top := breakdown.Items
		if len(top) > rcaTopN {
			top = top[:rcaTopN]
		}
		parts := make([]string, len(top))
		for i, item := range top {
			pct := float64(item.Count) / float64(breakdown.ScopeTotal) * 100
			parts[i] = fmt.Sprintf("%s (%.1f%%)", item.Key, pct)
		}
		fragment := "Probable RCA: " + strings.Join(parts, ", ")
		updates = append(updates, persistence.ContextUpdate{
			ID:         a.ID,
			RCAContext: appendContext(a.RCAContext, fragment),
		})
	}

	if err := r.anomalies.UpdateRCAContexts(ctx, updates); err != nil {
		serr := &domain.StoreError{Op: "rca context update", Err: err}
		return domain.Errorf("rca annotation failed: %v", serr), serr
	}

	log.Info().
		Str("target_date", day.Format(domain.DateLayout)).
		Int("anomalies", len(anomalies)).
		Int("annotated", len(updates)).
		Dur("elapsed", time.Since(start)).
		Msg("RCA annotation complete")

	return domain.Success(fmt.Sprintf("annotated %d of %d anomalies", len(updates), len(anomalies))).
		WithCount("anomalies", len(anomalies)).
		WithCount("annotated", len(updates)), nil
}
