// Package anomaly finds Z-score spikes in daily complaint counts and
// enriches them with correlations, probable root causes, severity upgrades,
// and executive narratives.
package anomaly

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/netopsio/srpulse/internal/baseline"
	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

// stdFloor keeps the Z denominator finite for flat baselines.
const stdFloor = 0.001

// CurrentReader is the slice of the complaints repository the detector needs.
type CurrentReader interface {
	KeyCountsOn(ctx context.Context, dim domain.Dimension, day time.Time) ([]persistence.KeyCount, error)
}

// Detector compares the target day's per-key counts against the 30-day
// baseline artifacts and records spikes. Drops are deliberately ignored;
// falling complaint volume is not an incident.
type Detector struct {
	complaints CurrentReader
	anomalies  persistence.AnomaliesRepo
	store      *baseline.Store
	dims       []domain.Dimension
	warnZ      float64
	criticalZ  float64
}

func NewDetector(complaints CurrentReader, anomalies persistence.AnomaliesRepo, store *baseline.Store, dims []domain.Dimension, warnZ, criticalZ float64) *Detector {
	return &Detector{
		complaints: complaints,
		anomalies:  anomalies,
		store:      store,
		dims:       dims,
		warnZ:      warnZ,
		criticalZ:  criticalZ,
	}
}

// Run detects the day's spikes and replaces the day's anomaly rows. The
// replace happens even when no spikes are found, so re-runs converge.
func (d *Detector) Run(ctx context.Context, day time.Time) (domain.StageResult, error) {
	day = domain.Midnight(day)
	start := time.Now()

	var (
		rows    []persistence.Anomaly
		skipped []string
	)
	for _, dim := range d.dims {
		snap, err := d.store.Read(dim.Name)
		if err != nil {
			var missing *domain.MissingBaselineError
			if errors.As(err, &missing) {
				log.Warn().Str("dimension", dim.Name).Str("path", missing.Path).Msg("Baseline artifact missing, skipping dimension")
				skipped = append(skipped, dim.Name)
				continue
			}
			return domain.Errorf("anomaly detection failed: %v", err), err
		}

		current, err := d.complaints.KeyCountsOn(ctx, dim, day)
		if err != nil {
			serr := &domain.StoreError{Op: "current counts " + dim.Name, Err: err}
			return domain.Errorf("anomaly detection failed: %v", serr), serr
		}

		idx := snap.Index()
		for _, kc := range current {
			avg, std, _ := idx[kc.Key].Window(30)
			z := (float64(kc.Count) - avg) / (std + stdFloor)
			if z <= d.warnZ {
				continue
			}
			severity := domain.SeverityWarning
			if z > d.criticalZ {
				severity = domain.SeverityCritical
			}
			rows = append(rows, persistence.Anomaly{
				AnomalyDate:  day,
				Dimension:    dim.Name,
				DimensionKey: kc.Key,
				MetricValue:  float64(kc.Count),
				BaselineAvg:  avg,
				BaselineStd:  std,
				ZScore:       z,
				Severity:     severity,
			})
		}
	}

	if err := d.anomalies.ReplaceForDate(ctx, day, rows); err != nil {
		serr := &domain.StoreError{Op: "anomalies replace", Err: err}
		return domain.Errorf("anomaly detection failed: %v", serr), serr
	}

	log.Info().
		Str("target_date", day.Format(domain.DateLayout)).
		Int("anomalies", len(rows)).
		Strs("skipped_dimensions", skipped).
		Dur("elapsed", time.Since(start)).
		Msg("Anomaly detection complete")

	if len(skipped) == len(d.dims) {
		res := domain.Warning("no baseline artifacts available, run the baseline stage first")
		return res.WithDiagnostic("skipped_dimensions", skipped), nil
	}

	criticals := 0
	for _, r := range rows {
		if r.Severity == domain.SeverityCritical {
			criticals++
		}
	}
	res := domain.Success(fmt.Sprintf("detected %d anomalies", len(rows))).
		WithCount("anomalies", len(rows)).
		WithCount("critical", criticals).
		WithCount("warning", len(rows)-criticals)
	if len(skipped) > 0 {
		res = res.WithDiagnostic("skipped_dimensions", skipped)
	}
	return res, nil
}
