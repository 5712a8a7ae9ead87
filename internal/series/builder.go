// Package series assembles chart feeds straight from the complaints fact
// table: daily totals plus per-facet daily counts over a trailing window.
// Nothing here persists; the HTTP API serves the result as-is.
package series

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

const defaultDaysBack = 30

// Facet names served in Chart.Facets. Region and region>exchange come from
// the standard dimension queries; the rest read whitelisted raw columns.
const (
	FacetRegion         = "region"
	FacetRegionExchange = "region_exchange"
	FacetCabinet        = "cabinet_id"
	FacetSubType        = "sr_sub_type"
	FacetRCA            = "rca"
)

// ComplaintsReader is the slice of the complaints store the builder reads.
type ComplaintsReader interface {
	TotalsByDay(ctx context.Context, from, to time.Time) ([]persistence.DayCount, error)
	KeyCountsRange(ctx context.Context, dim domain.Dimension, from, to time.Time) ([]persistence.KeyDayCount, error)
	GeoDayCounts(ctx context.Context, from, to time.Time) ([]persistence.GeoDayCount, error)
	SeriesByColumn(ctx context.Context, column string, from, to time.Time) ([]persistence.KeyDayCount, error)
}

// Chart is the full chart feed for one target date and trailing window.
type Chart struct {
	TargetDate string                               `json:"target_date"`
	From       string                               `json:"from"`
	DaysBack   int                                  `json:"days_back"`
	Totals     []persistence.DayCount               `json:"totals"`
	Facets     map[string][]persistence.KeyDayCount `json:"facets"`
}

// Builder runs the chart queries for one window.
type Builder struct {
	complaints ComplaintsReader
}

func NewBuilder(complaints ComplaintsReader) *Builder {
	return &Builder{complaints: complaints}
}

// Build loads totals and every facet over [day-daysBack, day] inclusive.
// A daysBack of zero or less falls back to the 30-day default.
func (b *Builder) Build(ctx context.Context, day time.Time, daysBack int) (*Chart, error) {
	if daysBack <= 0 {
		daysBack = defaultDaysBack
	}
	day = domain.Midnight(day)
	from := day.AddDate(0, 0, -daysBack)
	started := time.Now()

	totals, err := b.complaints.TotalsByDay(ctx, from, day)
	if err != nil {
		return nil, &domain.StoreError{Op: "daily totals", Err: err}
	}

	facets := make(map[string][]persistence.KeyDayCount, 5)

	regions, err := b.complaints.KeyCountsRange(ctx, domain.DimRegion, from, day)
	if err != nil {
		return nil, &domain.StoreError{Op: "region series", Err: err}
	}
	facets[FacetRegion] = regions

	geo, err := b.complaints.GeoDayCounts(ctx, from, day)
	if err != nil {
		return nil, &domain.StoreError{Op: "geo series", Err: err}
	}
	facets[FacetRegionExchange] = foldRegionExchange(geo)

	for _, column := range []string{FacetCabinet, FacetSubType, FacetRCA} {
		rows, err := b.complaints.SeriesByColumn(ctx, column, from, day)
		if err != nil {
			return nil, &domain.StoreError{Op: fmt.Sprintf("%s series", column), Err: err}
		}
		facets[column] = rows
	}

	log.Debug().
		Time("target_date", day).
		Int("days_back", daysBack).
		Int("totals", len(totals)).
		Dur("elapsed", time.Since(started)).
		Msg("Chart series built")

	return &Chart{
		TargetDate: day.Format(domain.DateLayout),
		From:       from.Format(domain.DateLayout),
		DaysBack:   daysBack,
		Totals:     totals,
		Facets:     facets,
	}, nil
}

// foldRegionExchange sums city-level geography rows up to (region, exchange)
// pairs labelled "Region > EXC". Rows missing either part are dropped.
func foldRegionExchange(rows []persistence.GeoDayCount) []persistence.KeyDayCount {
	type bucket struct {
		key string
		day time.Time
	}
	sums := make(map[bucket]int64, len(rows))
	for _, row := range rows {
		if row.Region == "" || row.ExcID == "" {
			continue
		}
		b := bucket{key: row.Region + " > " + row.ExcID, day: row.Day.UTC()}
		sums[b] += row.Count
	}

	out := make([]persistence.KeyDayCount, 0, len(sums))
	for b, n := range sums {
		out = append(out, persistence.KeyDayCount{Key: b.key, Day: b.day, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].Day.Before(out[j].Day)
	})
	return out
}
