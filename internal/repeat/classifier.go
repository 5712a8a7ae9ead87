// Package repeat profiles subscribers who filed multiple complaints inside
// a rolling 30-day window, bucketed by geography, complaint sub-type, and
// how alarming their frequency is. It is a read model and persists nothing.
package repeat

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

const (
	// windowDays is the lookback for counting repeat complaints.
	windowDays = 30
	// defaultTopN caps the heaviest-repeaters list when the caller does
	// not say otherwise.
	defaultTopN = 100
)

// RepeatReader is the slice of the complaints repository the classifier needs.
type RepeatReader interface {
	RepeatRows(ctx context.Context, from, to time.Time) ([]persistence.RepeatRow, error)
}

// Caller is one repeat complainer.
type Caller struct {
	MDN      string `json:"mdn"`
	Count    int    `json:"count"`
	Region   string `json:"region"`
	Exchange string `json:"exchange"`
	City     string `json:"city"`
	SubType  string `json:"sub_type"`
	Severity string `json:"severity"`
}

// Bucket is a keyed tally.
type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Pair is a (scope, sub-type) tally.
type Pair struct {
	Scope   string `json:"scope"`
	SubType string `json:"sub_type"`
	Count   int    `json:"count"`
}

// Report is the repeat-caller payload for one day.
type Report struct {
	TargetDate        string   `json:"target_date"`
	WindowDays        int      `json:"window_days"`
	TotalRepeaters    int      `json:"total_repeaters"`
	ByRegion          []Bucket `json:"by_region"`
	ByExchange        []Bucket `json:"by_exchange"`
	ByCity            []Bucket `json:"by_city"`
	BySeverity        []Bucket `json:"by_severity"`
	BySubType         []Bucket `json:"by_sub_type"`
	ByRegionSubType   []Pair   `json:"by_region_sub_type"`
	ByExchangeSubType []Pair   `json:"by_exchange_sub_type"`
	ByCitySubType     []Pair   `json:"by_city_sub_type"`
	TopCallers        []Caller `json:"top_callers"`
}

// Classifier folds the window's complaints into per-subscriber profiles.
type Classifier struct {
	complaints RepeatReader
}

func NewClassifier(complaints RepeatReader) *Classifier {
	return &Classifier{complaints: complaints}
}

// SeverityFor bands a 30-day complaint count.
func SeverityFor(count int) string {
	switch {
	case count > 10:
		return domain.RepeatVeryAlarming
	case count > 6:
		return domain.RepeatCritical
	case count > 3:
		return domain.RepeatAlarming
	}
	return domain.RepeatNormal
}

// Classify builds the repeat-caller report for the 30 days ending on day.
// topN caps the heaviest-repeaters list; zero or negative means the default.
func (c *Classifier) Classify(ctx context.Context, day time.Time, topN int) (*Report, error) {
	day = domain.Midnight(day)
	from := day.AddDate(0, 0, -windowDays)
	start := time.Now()
	if topN <= 0 {
		topN = defaultTopN
	}

	rows, err := c.complaints.RepeatRows(ctx, from, day)
	if err != nil {
		return nil, &domain.StoreError{Op: "repeat rows", Err: err}
	}

	type acc struct {
		caller   Caller
		subTypes map[string]int
	}
	byMDN := make(map[string]*acc)
	order := make([]string, 0)
	for _, r := range rows {
		a, ok := byMDN[r.MDN]
		if !ok {
			// Rows arrive in open-timestamp order, so the first row
			// pins the subscriber's geography.
			a = &acc{
				caller: Caller{
					MDN:      r.MDN,
					Region:   r.Region,
					Exchange: r.ExcID,
					City:     r.City,
				},
				subTypes: make(map[string]int),
			}
			byMDN[r.MDN] = a
			order = append(order, r.MDN)
		}
		a.caller.Count++
		if r.SRSubType != "" {
			a.subTypes[r.SRSubType]++
		}
	}

	report := &Report{
		TargetDate: day.Format(domain.DateLayout),
		WindowDays: windowDays,
	}
	region := map[string]int{}
	exchange := map[string]int{}
	city := map[string]int{}
	severity := map[string]int{}
	subType := map[string]int{}
	regionSub := map[[2]string]int{}
	exchangeSub := map[[2]string]int{}
	citySub := map[[2]string]int{}

	var callers []Caller
	for _, mdn := range order {
		a := byMDN[mdn]
		if a.caller.Count <= 1 {
			continue
		}
		a.caller.SubType = modalKey(a.subTypes)
		a.caller.Severity = SeverityFor(a.caller.Count)
		callers = append(callers, a.caller)

		report.TotalRepeaters++
		severity[a.caller.Severity]++
		if a.caller.Region != "" {
			region[a.caller.Region]++
		}
		if a.caller.Exchange != "" {
			exchange[a.caller.Exchange]++
		}
		if a.caller.City != "" {
			city[a.caller.City]++
		}
		if a.caller.SubType != "" {
			subType[a.caller.SubType]++
			if a.caller.Region != "" {
				regionSub[[2]string{a.caller.Region, a.caller.SubType}]++
			}
			if a.caller.Exchange != "" {
				exchangeSub[[2]string{a.caller.Exchange, a.caller.SubType}]++
			}
			if a.caller.City != "" {
				citySub[[2]string{a.caller.City, a.caller.SubType}]++
			}
		}
	}

	report.ByRegion = sortedBuckets(region)
	report.ByExchange = sortedBuckets(exchange)
	report.ByCity = sortedBuckets(city)
	report.BySeverity = sortedBuckets(severity)
	report.BySubType = sortedBuckets(subType)
	report.ByRegionSubType = sortedPairs(regionSub)
	report.ByExchangeSubType = sortedPairs(exchangeSub)
	report.ByCitySubType = sortedPairs(citySub)

	sort.Slice(callers, func(i, j int) bool {
		if callers[i].Count != callers[j].Count {
			return callers[i].Count > callers[j].Count
		}
		return callers[i].MDN < callers[j].MDN
	})
	if len(callers) > topN {
		callers = callers[:topN]
	}
	report.TopCallers = callers

	log.Info().
		Str("target_date", report.TargetDate).
		Int("subscribers", len(byMDN)).
		Int("repeaters", report.TotalRepeaters).
		Dur("elapsed", time.Since(start)).
		Msg("Repeat-caller classification complete")
	return report, nil
}

// modalKey returns the most frequent key, ties broken lexicographically.
func modalKey(counts map[string]int) string {
	best, bestN := "", 0
	for k, n := range counts {
		if n > bestN || (n == bestN && (best == "" || k < best)) {
			best, bestN = k, n
		}
	}
	return best
}

func sortedBuckets(counts map[string]int) []Bucket {
	out := lo.MapToSlice(counts, func(k string, n int) Bucket {
		return Bucket{Key: k, Count: n}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func sortedPairs(counts map[[2]string]int) []Pair {
	out := lo.MapToSlice(counts, func(k [2]string, n int) Pair {
		return Pair{Scope: k[0], SubType: k[1], Count: n}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Scope != out[j].Scope {
			return out[i].Scope < out[j].Scope
		}
		return out[i].SubType < out[j].SubType
	})
	return out
}
