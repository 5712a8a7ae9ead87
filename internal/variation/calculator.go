// Package variation compares the target day's complaint volumes against the
// previous week and month: day-over-day against the same weekday last week,
// week-over-week on Monday-anchored running means, and month-over-month on
// matching month spans.
package variation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

// CountsReader is the slice of the complaints repository the calculator needs.
type CountsReader interface {
	KeyCountsRange(ctx context.Context, dim domain.Dimension, from, to time.Time) ([]persistence.KeyDayCount, error)
	TotalsByDay(ctx context.Context, from, to time.Time) ([]persistence.DayCount, error)
}

// Calculator computes DOD/WOW/MOM comparisons for every key active on the
// target day, plus the synthetic Total axis.
type Calculator struct {
	complaints CountsReader
	variations persistence.VariationsRepo
	dims       []domain.Dimension
	threshold  float64
}

func NewCalculator(complaints CountsReader, variations persistence.VariationsRepo, dims []domain.Dimension, threshold float64) *Calculator {
	kept := make([]domain.Dimension, 0, len(dims)+1)
	hasTotal := false
	for _, d := range dims {
		if d.IsTotal() {
			hasTotal = true
		}
		kept = append(kept, d)
	}
	if !hasTotal {
		kept = append(kept, domain.DimTotal)
	}
	return &Calculator{complaints: complaints, variations: variations, dims: kept, threshold: threshold}
}

// Run recomputes and replaces the day's variation rows.
func (c *Calculator) Run(ctx context.Context, day time.Time) (domain.StageResult, error) {
	day = domain.Midnight(day)
	start := time.Now()

	// The widest span any comparison reaches back to is the start of the
	// previous month.
	prevMonthStart, _ := domain.PrevMonthSpan(day)
	from := prevMonthStart

	perDim := make([]map[string]map[time.Time]float64, len(c.dims))
	g, gctx := errgroup.WithContext(ctx)
	for i, dim := range c.dims {
		g.Go(func() error {
			byKey := make(map[string]map[time.Time]float64)
			if dim.IsTotal() {
				rows, err := c.complaints.TotalsByDay(gctx, from, day)
				if err != nil {
					return &domain.StoreError{Op: "variation totals", Err: err}
				}
				counts := make(map[time.Time]float64, len(rows))
				for _, r := range rows {
					counts[domain.Midnight(r.Day)] = float64(r.Count)
				}
				byKey[domain.DimTotal.Name] = counts
			} else {
				rows, err := c.complaints.KeyCountsRange(gctx, dim, from, day)
				if err != nil {
					return &domain.StoreError{Op: "variation counts " + dim.Name, Err: err}
				}
				for _, r := range rows {
					d := domain.Midnight(r.Day)
					if byKey[r.Key] == nil {
						byKey[r.Key] = make(map[time.Time]float64)
					}
					byKey[r.Key][d] = float64(r.Count)
				}
			}
			perDim[i] = byKey
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Errorf("variation analysis failed: %v", err), err
	}

	weekStart := domain.WeekStart(day)
	prevWeekStart := weekStart.AddDate(0, 0, -7)
	prevDay := day.AddDate(0, 0, -7)
	monthStart := domain.MonthStart(day)
	prevSpanStart, prevSpanEnd := domain.PrevMonthSpan(day)

	var out []persistence.Variation
	significant := 0
	for i, dim := range c.dims {
		byKey := perDim[i]
		keys := make([]string, 0, len(byKey))
		for k, counts := range byKey {
			// Only keys active on the target day are compared; Total
			// is always reported.
			if _, active := counts[day]; active || dim.IsTotal() {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)

		for _, key := range keys {
			counts := byKey[key]
			comparisons := []struct {
				kind string
				cur  float64
				prev float64
			}{
				{domain.VariationDOD, counts[day], counts[prevDay]},
				{domain.VariationWOW, meanOver(counts, weekStart, day), meanOver(counts, prevWeekStart, prevDay)},
				{domain.VariationMOM, meanOver(counts, monthStart, day), meanOver(counts, prevSpanStart, prevSpanEnd)},
			}
			for _, cmp := range comparisons {
				pct := percentChange(cmp.cur, cmp.prev)
				sig := 0
				if math.Abs(pct) >= c.threshold {
					sig = 1
					significant++
				}
				out = append(out, persistence.Variation{
					VariationDate:    day,
					Dimension:        dim.Name,
					DimensionKey:     key,
					CurrentValue:     cmp.cur,
					PreviousValue:    cmp.prev,
					VariationType:    cmp.kind,
					VariationPercent: pct,
					IsSignificant:    sig,
				})
			}
		}
	}

	if err := c.variations.ReplaceForDate(ctx, day, out); err != nil {
		serr := &domain.StoreError{Op: "variations replace", Err: err}
		return domain.Errorf("variation analysis failed: %v", serr), serr
	}

	log.Info().
		Str("target_date", day.Format(domain.DateLayout)).
		Int("variations", len(out)).
		Int("significant", significant).
		Dur("elapsed", time.Since(start)).
		Msg("Variation analysis complete")

	return domain.Success(fmt.Sprintf("computed %d variations", len(out))).
		WithCount("variations", len(out)).
		WithCount("significant", significant), nil
}

// percentChange handles the zero-previous convention: growth from nothing
// reads as 100%, stasis at nothing as 0%.
func percentChange(cur, prev float64) float64 {
	if prev == 0 {
		if cur > 0 {
			return 100.0
		}
		return 0.0
	}
	return (cur - prev) / prev * 100
}

// meanOver averages the counts of the days in [from, to] that have data.
// Days without complaints do not drag the mean down; none at all means 0.
func meanOver(counts map[time.Time]float64, from, to time.Time) float64 {
	sum, n := 0.0, 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if v, ok := counts[d]; ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
