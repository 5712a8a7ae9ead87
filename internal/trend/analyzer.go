// Package trend fits least-squares lines to per-key daily complaint counts
// and classifies each window as rising, falling, or stable.
package trend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/domain/stats"
	"github.com/netopsio/srpulse/internal/persistence"
)

// minObservations is the smallest series worth fitting.
const minObservations = 3

// CountsReader is the slice of the complaints repository the analyzer needs.
type CountsReader interface {
	KeyCountsRange(ctx context.Context, dim domain.Dimension, from, to time.Time) ([]persistence.KeyDayCount, error)
}

// Analyzer regresses each (dimension, key, window) series ending on the
// target day. Days without complaints are absent from the series rather
// than zero-filled, mirroring how the baselines treat missing days.
type Analyzer struct {
	complaints CountsReader
	trends     persistence.TrendsRepo
	dims       []domain.Dimension
	windows    []int
	alpha      float64
}

func NewAnalyzer(complaints CountsReader, trends persistence.TrendsRepo, dims []domain.Dimension, windows []int, alpha float64) *Analyzer {
	return &Analyzer{complaints: complaints, trends: trends, dims: dims, windows: windows, alpha: alpha}
}

type obs struct {
	day   time.Time
	count float64
}

// Run recomputes and replaces the day's trend rows.
func (a *Analyzer) Run(ctx context.Context, day time.Time) (domain.StageResult, error) {
	day = domain.Midnight(day)
	start := time.Now()

	maxW := 0
	for _, w := range a.windows {
		if w > maxW {
			maxW = w
		}
	}
	from := day.AddDate(0, 0, -maxW)

	perDim := make([][]persistence.KeyDayCount, len(a.dims))
	g, gctx := errgroup.WithContext(ctx)
	for i, dim := range a.dims {
		g.Go(func() error {
			rows, err := a.complaints.KeyCountsRange(gctx, dim, from, day)
			if err != nil {
				return &domain.StoreError{Op: "trend counts " + dim.Name, Err: err}
			}
			perDim[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Errorf("trend analysis failed: %v", err), err
	}

	var out []persistence.Trend
	counts := map[string]int{domain.TrendUp: 0, domain.TrendDown: 0, domain.TrendStable: 0}
	for i, dim := range a.dims {
		series := groupByKey(perDim[i])
		keys := make([]string, 0, len(series))
		for k := range series {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			for _, w := range a.windows {
				row, ok := a.fit(dim, key, day, w, series[key])
				if !ok {
					continue
				}
				out = append(out, row)
				counts[row.Direction]++
			}
		}
	}

	if err := a.trends.ReplaceForDate(ctx, day, out); err != nil {
		serr := &domain.StoreError{Op: "trends replace", Err: err}
		return domain.Errorf("trend analysis failed: %v", serr), serr
	}

	log.Info().
		Str("target_date", day.Format(domain.DateLayout)).
		Int("trends", len(out)).
		Int("up", counts[domain.TrendUp]).
		Int("down", counts[domain.TrendDown]).
		Int("stable", counts[domain.TrendStable]).
		Dur("elapsed", time.Since(start)).
		Msg("Trend analysis complete")

	return domain.Success(fmt.Sprintf("computed %d trends", len(out))).
		WithCount("trends", len(out)).
		WithCount("up", counts[domain.TrendUp]).
		WithCount("down", counts[domain.TrendDown]).
		WithCount("stable", counts[domain.TrendStable]), nil
}

// fit regresses one key's series restricted to [day-w, day]. Series with
// fewer than three observed days are skipped.
func (a *Analyzer) fit(dim domain.Dimension, key string, day time.Time, w int, series []obs) (persistence.Trend, bool) {
	lower := day.AddDate(0, 0, -w)
	pts := make([]obs, 0, len(series))
	for _, o := range series {
		if !o.day.Before(lower) && !o.day.After(day) {
			pts = append(pts, o)
		}
	}
	if len(pts) < minObservations {
		return persistence.Trend{}, false
	}

	x := make([]float64, len(pts))
	y := make([]float64, len(pts))
	for i, o := range pts {
		x[i] = float64(i)
		y[i] = o.count
	}
	reg := stats.OLS(x, y)

	first, last := y[0], y[len(y)-1]
	strength := 0.0
	if first != 0 {
		strength = (last - first) / first * 100
	}

	direction := domain.TrendStable
	var significance *float64
	if !math.IsNaN(reg.PValue) {
		p := reg.PValue
		significance = &p
		if p < a.alpha {
			if reg.Slope > 0 {
				direction = domain.TrendUp
			} else if reg.Slope < 0 {
				direction = domain.TrendDown
			}
		}
	}

	return persistence.Trend{
		TrendDate:    day,
		Dimension:    dim.Name,
		DimensionKey: key,
		MetricValue:  last,
		Direction:    direction,
		Strength:     strength,
		WindowDays:   w,
		Significance: significance,
	}, true
}

// groupByKey folds range rows into per-key series sorted by day.
func groupByKey(rows []persistence.KeyDayCount) map[string][]obs {
	series := make(map[string][]obs)
	for _, r := range rows {
		series[r.Key] = append(series[r.Key], obs{day: domain.Midnight(r.Day), count: float64(r.Count)})
	}
	for k := range series {
		sort.Slice(series[k], func(i, j int) bool { return series[k][i].day.Before(series[k][j].day) })
	}
	return series
}
