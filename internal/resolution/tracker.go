// Package resolution computes mean-time-to-resolve aggregates for complaints
// closed on the target day and age-slab counts for the backlog still open at
// its end, per region, city, and exchange plus an overall row.
package resolution

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

// minResolutionSeconds filters instant auto-closures out of MTTR. Anything
// resolved in under five minutes is bookkeeping, not field work.
const minResolutionSeconds = 300

// totalKey labels the overall aggregate row.
const totalKey = "All"

// ComplaintsReader is the slice of the complaints repository the tracker needs.
type ComplaintsReader interface {
	ResolvedOn(ctx context.Context, day time.Time, minSeconds int) ([]persistence.ResolvedRow, error)
	OpenAsOf(ctx context.Context, day time.Time, eod time.Time) ([]persistence.OpenRow, error)
}

// Tracker builds the daily_mttr and daily_aging tables for one day.
type Tracker struct {
	complaints ComplaintsReader
	resolution persistence.ResolutionRepo
}

func NewTracker(complaints ComplaintsReader, resolution persistence.ResolutionRepo) *Tracker {
	return &Tracker{complaints: complaints, resolution: resolution}
}

// Run replaces both tables' rows for the day in one transaction.
func (t *Tracker) Run(ctx context.Context, day time.Time) (domain.StageResult, error) {
	day = domain.Midnight(day)
	start := time.Now()

	resolved, err := t.complaints.ResolvedOn(ctx, day, minResolutionSeconds)
	if err != nil {
		wrapped := &domain.StoreError{Op: "resolved complaints", Err: err}
		log.Error().Err(wrapped).Time("target_date", day).Msg("Resolution stage failed")
		return domain.Errorf("resolution failed: %v", wrapped), wrapped
	}
	eod := domain.EndOfDay(day)
	open, err := t.complaints.OpenAsOf(ctx, day, eod)
	if err != nil {
		wrapped := &domain.StoreError{Op: "open backlog", Err: err}
		log.Error().Err(wrapped).Time("target_date", day).Msg("Resolution stage failed")
		return domain.Errorf("resolution failed: %v", wrapped), wrapped
	}

	mttr := buildMTTR(day, resolved)
	aging := buildAging(day, eod, open)

	if err := t.resolution.ReplaceForDate(ctx, day, mttr, aging); err != nil {
		wrapped := &domain.StoreError{Op: "replace resolution metrics", Err: err}
		log.Error().Err(wrapped).Time("target_date", day).Msg("Resolution stage failed")
		return domain.Errorf("resolution failed: %v", wrapped), wrapped
	}

	log.Info().
		Time("target_date", day).
		Int("resolved", len(resolved)).
		Int("open_backlog", len(open)).
		Int("mttr_rows", len(mttr)).
		Int("aging_rows", len(aging)).
		Dur("elapsed", time.Since(start)).
		Msg("Resolution metrics complete")

	res := domain.Success("resolution metrics stored").
		WithCount("resolved", len(resolved)).
		WithCount("open_backlog", len(open)).
		WithCount("mttr_rows", len(mttr)).
		WithCount("aging_rows", len(aging))
	return res, nil
}

// buildMTTR averages resolution hours per scope. Rows with a blank scope key
// are left out of that scope but still count toward the overall row.
func buildMTTR(day time.Time, rows []persistence.ResolvedRow) []persistence.MTTREntry {
	if len(rows) == 0 {
		return nil
	}

	type agg struct {
		sum float64
		n   int
	}
	scopes := []struct {
		dim string
		key func(persistence.ResolvedRow) string
	}{
		{domain.DimRegion.Name, func(r persistence.ResolvedRow) string { return r.Region }},
		{domain.DimCity.Name, func(r persistence.ResolvedRow) string { return r.City }},
		{domain.DimExchange.Name, func(r persistence.ResolvedRow) string { return r.ExcID }},
	}

	var total agg
	perScope := make([]map[string]*agg, len(scopes))
	for i := range perScope {
		perScope[i] = make(map[string]*agg)
	}
	for _, r := range rows {
		total.sum += r.Hours
		total.n++
		for i, s := range scopes {
			k := s.key(r)
			if k == "" {
				continue
			}
			a := perScope[i][k]
			if a == nil {
				a = &agg{}
				perScope[i][k] = a
			}
			a.sum += r.Hours
			a.n++
		}
	}

	entries := []persistence.MTTREntry{{
		MTTRDate:           day,
		Dimension:          domain.DimTotal.Name,
		DimensionKey:       totalKey,
		AvgMTTRHours:       round2(total.sum / float64(total.n)),
		TotalResolvedCount: total.n,
	}}
	for i, s := range scopes {
		keys := make([]string, 0, len(perScope[i]))
		for k := range perScope[i] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			a := perScope[i][k]
			entries = append(entries, persistence.MTTREntry{
				MTTRDate:           day,
				Dimension:          s.dim,
				DimensionKey:       k,
				AvgMTTRHours:       round2(a.sum / float64(a.n)),
				TotalResolvedCount: a.n,
			})
		}
	}
	return entries
}

// buildAging slabs the open backlog by age at end of day. Complaints younger
// than 24 hours are not reported.
func buildAging(day, eod time.Time, rows []persistence.OpenRow) []persistence.AgingEntry {
	scopes := []struct {
		dim string
		key func(persistence.OpenRow) string
	}{
		{domain.DimTotal.Name, func(persistence.OpenRow) string { return totalKey }},
		{domain.DimRegion.Name, func(r persistence.OpenRow) string { return r.Region }},
		{domain.DimCity.Name, func(r persistence.OpenRow) string { return r.City }},
		{domain.DimExchange.Name, func(r persistence.OpenRow) string { return r.ExcID }},
	}

	counts := make([]map[string]map[string]int, len(scopes))
	for i := range counts {
		counts[i] = make(map[string]map[string]int)
	}
	for _, r := range rows {
		slab := domain.AgingSlabFor(eod.Sub(r.OpenTS).Hours())
		if slab == "" {
			continue
		}
		for i, s := range scopes {
			k := s.key(r)
			if k == "" {
				continue
			}
			if counts[i][k] == nil {
				counts[i][k] = make(map[string]int)
			}
			counts[i][k][slab]++
		}
	}

	slabRank := make(map[string]int, len(domain.AgingSlabs))
	for i, s := range domain.AgingSlabs {
		slabRank[s] = i
	}

	var entries []persistence.AgingEntry
	for i, s := range scopes {
		keys := make([]string, 0, len(counts[i]))
		for k := range counts[i] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			slabs := make([]string, 0, len(counts[i][k]))
			for slab := range counts[i][k] {
				slabs = append(slabs, slab)
			}
			sort.Slice(slabs, func(a, b int) bool { return slabRank[slabs[a]] < slabRank[slabs[b]] })
			for _, slab := range slabs {
				entries = append(entries, persistence.AgingEntry{
					AgingDate:    day,
					Dimension:    s.dim,
					DimensionKey: k,
					Slab:         slab,
					SRCount:      counts[i][k][slab],
				})
			}
		}
	}
	return entries
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
