// Package surge flags sudden complaint jumps at network rollup levels:
// the whole network, each region, each exchange inside its region, and each
// city inside its exchange. It is a read model and persists nothing.
package surge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

// Rollup levels, outermost first.
const (
	LevelTotal    = "Total"
	LevelRegion   = "Region"
	LevelExchange = "Exchange"
	LevelCity     = "City"
)

// zeroBaselinePct is the sentinel for growth against an empty comparator.
const zeroBaselinePct = 999.9

// Minimum current-day counts per level. Small absolute jumps at narrow
// scopes are routine churn, not surges; Total has no floor.
var levelFloors = map[string]int64{
	LevelRegion:   15,
	LevelExchange: 10,
	LevelCity:     5,
}

// GeoReader is the slice of the complaints repository the detector needs.
type GeoReader interface {
	GeoDayCounts(ctx context.Context, from, to time.Time) ([]persistence.GeoDayCount, error)
}

// Record is one qualifying surge.
type Record struct {
	Level    string  `json:"level"`
	Key      string  `json:"key"`
	Parent   string  `json:"parent,omitempty"`
	Current  int64   `json:"current"`
	MTDAvg   float64 `json:"mtd_avg"`
	WeekAgo  int64   `json:"week_ago"`
	PctMTD   float64 `json:"pct_vs_mtd"`
	PctWOW   float64 `json:"pct_vs_week_ago"`
	MaxPct   float64 `json:"max_pct"`
	Severity string  `json:"severity"`
}

// Report is the surge payload for one day.
type Report struct {
	TargetDate string   `json:"target_date"`
	Surges     []Record `json:"surges"`
}

// Detector compares the day's counts against the month-to-date average and
// the same weekday last week at every rollup level.
type Detector struct {
	complaints GeoReader
	alarming   float64
	critical   float64
}

func NewDetector(complaints GeoReader, alarming, critical float64) *Detector {
	return &Detector{complaints: complaints, alarming: alarming, critical: critical}
}

// Detect returns the day's qualifying surges.
func (d *Detector) Detect(ctx context.Context, day time.Time) (*Report, error) {
	day = domain.Midnight(day)
	start := time.Now()

	monthStart := domain.MonthStart(day)
	weekAgo := day.AddDate(0, 0, -7)
	from := monthStart
	if weekAgo.Before(from) {
		from = weekAgo
	}

	rows, err := d.complaints.GeoDayCounts(ctx, from, day)
	if err != nil {
		return nil, &domain.StoreError{Op: "surge geo counts", Err: err}
	}

	levels := map[string]map[string]map[time.Time]int64{
		LevelTotal:    make(map[string]map[time.Time]int64),
		LevelRegion:   make(map[string]map[time.Time]int64),
		LevelExchange: make(map[string]map[time.Time]int64),
		LevelCity:     make(map[string]map[time.Time]int64),
	}
	add := func(level, key string, when time.Time, n int64) {
		byDay, ok := levels[level][key]
		if !ok {
			byDay = make(map[time.Time]int64)
			levels[level][key] = byDay
		}
		byDay[when] += n
	}
	for _, r := range rows {
		when := domain.Midnight(r.Day)
		add(LevelTotal, LevelTotal, when, r.Count)
		if r.Region != "" {
			add(LevelRegion, r.Region, when, r.Count)
			if r.ExcID != "" {
				add(LevelExchange, r.Region+"\x00"+r.ExcID, when, r.Count)
				if r.City != "" {
					add(LevelCity, r.Region+"\x00"+r.ExcID+"\x00"+r.City, when, r.Count)
				}
			}
		}
	}

	report := &Report{TargetDate: day.Format(domain.DateLayout)}
	for _, level := range []string{LevelTotal, LevelRegion, LevelExchange, LevelCity} {
		keys := lo.Keys(levels[level])
		sort.Strings(keys)
		var records []Record
		for _, key := range keys {
			rec, ok := d.evaluate(level, key, levels[level][key], day, monthStart, weekAgo)
			if ok {
				records = append(records, rec)
			}
		}
		sort.Slice(records, func(i, j int) bool {
			if records[i].MaxPct != records[j].MaxPct {
				return records[i].MaxPct > records[j].MaxPct
			}
			return records[i].Key < records[j].Key
		})
		report.Surges = append(report.Surges, records...)
	}

	log.Info().
		Str("target_date", report.TargetDate).
		Int("surges", len(report.Surges)).
		Dur("elapsed", time.Since(start)).
		Msg("Surge detection complete")
	return report, nil
}

// evaluate applies the floor, both comparisons, and the severity bands to
// one rollup key.
func (d *Detector) evaluate(level, key string, byDay map[time.Time]int64, day, monthStart, weekAgo time.Time) (Record, bool) {
	cur := byDay[day]
	if floor, ok := levelFloors[level]; ok && cur < floor {
		return Record{}, false
	}

	mtdSum, mtdDays := 0.0, 0
	for dd := monthStart; dd.Before(day); dd = dd.AddDate(0, 0, 1) {
		if v, ok := byDay[dd]; ok {
			mtdSum += float64(v)
			mtdDays++
		}
	}
	mtdAvg := 0.0
	if mtdDays > 0 {
		mtdAvg = mtdSum / float64(mtdDays)
	}
	weekAgoCount := byDay[weekAgo]

	pctMTD := surgePct(float64(cur), mtdAvg)
	pctWOW := surgePct(float64(cur), float64(weekAgoCount))
	maxPct := math.Max(pctMTD, pctWOW)
	if maxPct < d.alarming {
		return Record{}, false
	}

	severity := domain.SurgeAlarming
	if maxPct >= d.critical {
		severity = domain.SurgeCritical
	}

	rec := Record{
		Level:    level,
		Current:  cur,
		MTDAvg:   mtdAvg,
		WeekAgo:  weekAgoCount,
		PctMTD:   pctMTD,
		PctWOW:   pctWOW,
		MaxPct:   maxPct,
		Severity: severity,
	}
	switch level {
	case LevelTotal:
		rec.Key = LevelTotal
	case LevelRegion:
		rec.Key = key
	case LevelExchange:
		parts := strings.SplitN(key, "\x00", 2)
		rec.Parent, rec.Key = parts[0], parts[1]
	case LevelCity:
		parts := strings.SplitN(key, "\x00", 3)
		rec.Parent = parts[0] + " > " + parts[1]
		rec.Key = parts[2]
	}
	return rec, true
}

// surgePct is the rounded percentage jump against a comparator, with the
// zero-comparator sentinel.
func surgePct(cur, cmp float64) float64 {
	if cmp == 0 {
		if cur > 0 {
			return zeroBaselinePct
		}
		return 0
	}
	return math.Round((cur-cmp)/cmp*1000) / 10
}

// Summary renders one-line descriptions, strongest first, for logs and CLI
// output.
func (r *Report) Summary() []string {
	out := make([]string, 0, len(r.Surges))
	for _, s := range r.Surges {
		scope := s.Key
		if s.Parent != "" {
			scope = fmt.Sprintf("%s (%s)", s.Key, s.Parent)
		}
		out = append(out, fmt.Sprintf("[%s] %s %s: %d complaints, +%.1f%% (MTD avg %.1f, week-ago %d)",
			s.Severity, s.Level, scope, s.Current, s.MaxPct, s.MTDAvg, s.WeekAgo))
	}
	return out
}
