package anomaly

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/domain/stats"
	"github.com/netopsio/srpulse/internal/persistence"
)

const (
	// corrWindowDays is how much history feeds each correlation series.
	corrWindowDays = 30
	// corrMinRho is the qualification bar for a candidate series.
	corrMinRho = 0.7
	// corrTopKeys caps the candidate keys pulled from each dimension.
	corrTopKeys = 5
	// corrMinOverlap is the minimum number of shared days two series need.
	corrMinOverlap = 3
)

// SeriesReader is the slice of the complaints repository the correlator needs.
type SeriesReader interface {
	KeyCountsRange(ctx context.Context, dim domain.Dimension, from, to time.Time) ([]persistence.KeyDayCount, error)
	TopKeys(ctx context.Context, dim domain.Dimension, from, to time.Time, limit int) ([]string, error)
}

// Correlator looks for co-moving series behind each anomaly: the heaviest
// keys of the other dimensions whose 30-day daily counts track the anomalous
// key's counts. Findings are appended to the anomaly's rca_context.
type Correlator struct {
	complaints SeriesReader
	anomalies  persistence.AnomaliesRepo
	dims       []domain.Dimension
}

func NewCorrelator(complaints SeriesReader, anomalies persistence.AnomaliesRepo, dims []domain.Dimension) *Correlator {
	// RCA values explain anomalies rather than co-move with them, so the
	// RCA axis joins neither side of a correlation pair.
	kept := make([]domain.Dimension, 0, len(dims))
	for _, d := range dims {
		if d.Name != domain.DimRCA.Name && !d.IsTotal() {
			kept = append(kept, d)
		}
	}
	return &Correlator{complaints: complaints, anomalies: anomalies, dims: kept}
}

type corrHit struct {
	key string
	rho float64
}

// Run annotates the day's anomalies with correlated keys.
func (c *Correlator) Run(ctx context.Context, day time.Time) (domain.StageResult, error) {
	day = domain.Midnight(day)
	from := day.AddDate(0, 0, -corrWindowDays)
	start := time.Now()

	anomalies, err := c.anomalies.ListByDate(ctx, day)
	if err != nil {
		serr := &domain.StoreError{Op: "anomalies list", Err: err}
		return domain.Errorf("correlation failed: %v", serr), serr
	}
	if len(anomalies) == 0 {
		return domain.Success("no anomalies to correlate").WithCount("correlated", 0), nil
	}

	// One range scan and one top-keys query per dimension, shared across
	// all of the day's anomalies.
	series := make(map[string]map[string]map[string]float64, len(c.dims))
	tops := make(map[string][]string, len(c.dims))
	for _, dim := range c.dims {
		rows, err := c.complaints.KeyCountsRange(ctx, dim, from, day)
		if err != nil {
			serr := &domain.StoreError{Op: "correlation series " + dim.Name, Err: err}
			return domain.Errorf("correlation failed: %v", serr), serr
		}
		byKey := make(map[string]map[string]float64)
		for _, r := range rows {
			dk := domain.Midnight(r.Day).Format(domain.DateLayout)
			if byKey[r.Key] == nil {
				byKey[r.Key] = make(map[string]float64)
			}
			byKey[r.Key][dk] = float64(r.Count)
		}
		series[dim.Name] = byKey

		keys, err := c.complaints.TopKeys(ctx, dim, from, day, corrTopKeys)
		if err != nil {
			serr := &domain.StoreError{Op: "correlation top keys " + dim.Name, Err: err}
			return domain.Errorf("correlation failed: %v", serr), serr
		}
		tops[dim.Name] = keys
	}

	var updates []persistence.ContextUpdate
	for _, a := range anomalies {
		if _, ok := series[a.Dimension]; !ok {
			continue
		}
		s1 := series[a.Dimension][a.DimensionKey]
		if len(s1) == 0 {
			continue
		}

		var hits []corrHit
		for _, dim := range c.dims {
			if dim.Name == a.Dimension {
				continue
			}
			for _, key := range tops[dim.Name] {
				rho := pearsonOnSharedDays(s1, series[dim.Name][key])
				if !math.IsNaN(rho) && rho > corrMinRho {
					hits = append(hits, corrHit{key: key, rho: rho})
				}
			}
		}
		if len(hits) == 0 {
			continue
		}

		sort.Slice(hits, func(i, j int) bool {
			if hits[i].rho != hits[j].rho {
				return hits[i].rho > hits[j].rho
			}
			return hits[i].key < hits[j].key
		})
		parts := make([]string, len(hits))
		for i, h := range hits {
			parts[i] = fmt.Sprintf("%s (%.2f)", h.key, h.rho)
		}
		fragment := "Correlated with: " + strings.Join(parts, ", ")
		updates = append(updates, persistence.ContextUpdate{
			ID:         a.ID,
			RCAContext: appendContext(a.RCAContext, fragment),
		})
	}

	if err := c.anomalies.UpdateRCAContexts(ctx, updates); err != nil {
		serr := &domain.StoreError{Op: "rca context update", Err: err}
		return domain.Errorf("correlation failed: %v", serr), serr
	}

	log.Info().
		Str("target_date", day.Format(domain.DateLayout)).
		Int("anomalies", len(anomalies)).
		Int("correlated", len(updates)).
		Dur("elapsed", time.Since(start)).
		Msg("Correlation complete")

	return domain.Success(fmt.Sprintf("correlated %d of %d anomalies", len(updates), len(anomalies))).
		WithCount("anomalies", len(anomalies)).
		WithCount("correlated", len(updates)), nil
}

// pearsonOnSharedDays inner-joins two day-keyed series and correlates the
// overlap. Too little overlap yields NaN.
func pearsonOnSharedDays(s1, s2 map[string]float64) float64 {
	if len(s2) == 0 {
		return math.NaN()
	}
	days := make([]string, 0, len(s1))
	for d := range s1 {
		if _, ok := s2[d]; ok {
			days = append(days, d)
		}
	}
	if len(days) < corrMinOverlap {
		return math.NaN()
	}
	sort.Strings(days)

	x := make([]float64, len(days))
	y := make([]float64, len(days))
	for i, d := range days {
		x[i] = s1[d]
		y[i] = s2[d]
	}
	return stats.Pearson(x, y)
}

// appendContext joins annotation fragments onto an anomaly's rca_context.
func appendContext(existing, fragment string) string {
	if existing == "" {
		return fragment
	}
	return existing + " | " + fragment
}
