package anomaly

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

// Escalator upgrades WARNING anomalies to CRITICAL when the same key also
// spiked the day before, or when a Type spike coincides with spikes across
// many regions. Severity never moves down.
type Escalator struct {
	anomalies       persistence.AnomaliesRepo
	widespreadCount int
}

func NewEscalator(anomalies persistence.AnomaliesRepo, widespreadCount int) *Escalator {
	return &Escalator{anomalies: anomalies, widespreadCount: widespreadCount}
}

// Run applies the upgrade rules to the day's anomalies.
func (e *Escalator) Run(ctx context.Context, day time.Time) (domain.StageResult, error) {
	day = domain.Midnight(day)
	start := time.Now()

	anomalies, err := e.anomalies.ListByDate(ctx, day)
	if err != nil {
		serr := &domain.StoreError{Op: "anomalies list", Err: err}
		return domain.Errorf("severity escalation failed: %v", serr), serr
	}
	if len(anomalies) == 0 {
		return domain.Success("no anomalies to escalate").WithCount("upgraded", 0), nil
	}

	previous, err := e.anomalies.ListByDate(ctx, day.AddDate(0, 0, -1))
	if err != nil {
		serr := &domain.StoreError{Op: "previous-day anomalies list", Err: err}
		return domain.Errorf("severity escalation failed: %v", serr), serr
	}
	repeatOffenders := make(map[string]bool, len(previous))
	for _, p := range previous {
		repeatOffenders[p.Dimension+"\x00"+p.DimensionKey] = true
	}

	regionSpikes := 0
	for _, a := range anomalies {
		if a.Dimension == domain.DimRegion.Name {
			regionSpikes++
		}
	}
	widespread := regionSpikes > e.widespreadCount

	var updates []persistence.SeverityUpdate
	for _, a := range anomalies {
		if a.Severity != domain.SeverityWarning {
			continue
		}
		persisted := repeatOffenders[a.Dimension+"\x00"+a.DimensionKey]
		typeWide := a.Dimension == domain.DimType.Name && widespread
		if !persisted && !typeWide {
			continue
		}
		updates = append(updates, persistence.SeverityUpdate{ID: a.ID, Severity: domain.SeverityCritical})
		log.Debug().
			Str("dimension", a.Dimension).
			Str("key", a.DimensionKey).
			Bool("repeat_offender", persisted).
			Bool("widespread_type", typeWide).
			Msg("Anomaly upgraded to CRITICAL")
	}

	if err := e.anomalies.UpdateSeverities(ctx, updates); err != nil {
		serr := &domain.StoreError{Op: "severity update", Err: err}
		return domain.Errorf("severity escalation failed: %v", serr), serr
	}

	log.Info().
		Str("target_date", day.Format(domain.DateLayout)).
		Int("anomalies", len(anomalies)).
		Int("upgraded", len(updates)).
		Int("region_spikes", regionSpikes).
		Dur("elapsed", time.Since(start)).
		Msg("Severity escalation complete")

	return domain.Success(fmt.Sprintf("upgraded %d of %d anomalies", len(updates), len(anomalies))).
		WithCount("anomalies", len(anomalies)).
		WithCount("upgraded", len(updates)), nil
}
