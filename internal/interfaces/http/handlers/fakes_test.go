package handlers

import (
	"context"
	"time"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

// fakeComplaints serves canned projections keyed by date where it matters.
type fakeComplaints struct {
	countsOn map[string]int64
	geo      []persistence.GeoDayCount
	repeats  []persistence.RepeatRow
	err      error
}

func (f *fakeComplaints) UpsertBatch(_ context.Context, rows []persistence.Complaint) (int64, error) {
	return int64(len(rows)), f.err
}

func (f *fakeComplaints) CountOn(_ context.Context, day time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.countsOn[day.Format(domain.DateLayout)], nil
}

func (f *fakeComplaints) KeyCountsOn(_ context.Context, _ domain.Dimension, _ time.Time) ([]persistence.KeyCount, error) {
	return nil, f.err
}

func (f *fakeComplaints) KeyCountsRange(_ context.Context, _ domain.Dimension, _, _ time.Time) ([]persistence.KeyDayCount, error) {
	return nil, f.err
}

func (f *fakeComplaints) TotalsByDay(_ context.Context, _, _ time.Time) ([]persistence.DayCount, error) {
	return nil, f.err
}

func (f *fakeComplaints) TopKeys(_ context.Context, _ domain.Dimension, _, _ time.Time, _ int) ([]string, error) {
	return nil, f.err
}

func (f *fakeComplaints) RCABreakdown(_ context.Context, _ time.Time, _ domain.Dimension, _ string) (persistence.RCABreakdown, error) {
	return persistence.RCABreakdown{}, f.err
}

func (f *fakeComplaints) GeoDayCounts(_ context.Context, _, _ time.Time) ([]persistence.GeoDayCount, error) {
	return f.geo, f.err
}

func (f *fakeComplaints) RepeatRows(_ context.Context, _, _ time.Time) ([]persistence.RepeatRow, error) {
	return f.repeats, f.err
}

func (f *fakeComplaints) ResolvedOn(_ context.Context, _ time.Time, _ int) ([]persistence.ResolvedRow, error) {
	return nil, f.err
}

func (f *fakeComplaints) OpenAsOf(_ context.Context, _, _ time.Time) ([]persistence.OpenRow, error) {
	return nil, f.err
}

func (f *fakeComplaints) QualityRows(_ context.Context, _ time.Time) ([]persistence.QualityRow, error) {
	return nil, f.err
}

func (f *fakeComplaints) SeriesByColumn(_ context.Context, _ string, _, _ time.Time) ([]persistence.KeyDayCount, error) {
	return nil, f.err
}

type fakeAnomalies struct {
	byDate map[string][]persistence.Anomaly
	err    error
}

func (f *fakeAnomalies) ReplaceForDate(_ context.Context, _ time.Time, _ []persistence.Anomaly) error {
	return f.err
}

func (f *fakeAnomalies) ListByDate(_ context.Context, day time.Time) ([]persistence.Anomaly, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byDate[day.Format(domain.DateLayout)], nil
}

func (f *fakeAnomalies) UpdateRCAContexts(_ context.Context, _ []persistence.ContextUpdate) error {
	return f.err
}

func (f *fakeAnomalies) UpdateSeverities(_ context.Context, _ []persistence.SeverityUpdate) error {
	return f.err
}

func (f *fakeAnomalies) CountByDate(_ context.Context, day time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.byDate[day.Format(domain.DateLayout)])), nil
}

type fakeTrends struct {
	byDate     map[string][]persistence.Trend
	lastWindow int
	err        error
}

func (f *fakeTrends) ReplaceForDate(_ context.Context, _ time.Time, _ []persistence.Trend) error {
	return f.err
}

func (f *fakeTrends) ListByDate(_ context.Context, day time.Time, windowDays int) ([]persistence.Trend, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastWindow = windowDays
	rows := f.byDate[day.Format(domain.DateLayout)]
	if windowDays == 0 {
		return rows, nil
	}
	var filtered []persistence.Trend
	for _, t := range rows {
		if t.WindowDays == windowDays {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func (f *fakeTrends) CountByDate(_ context.Context, day time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.byDate[day.Format(domain.DateLayout)])), nil
}

type fakeVariations struct {
	byDate   map[string][]persistence.Variation
	lastType string
	err      error
}

func (f *fakeVariations) ReplaceForDate(_ context.Context, _ time.Time, _ []persistence.Variation) error {
	return f.err
}

func (f *fakeVariations) ListByDate(_ context.Context, day time.Time, variationType string) ([]persistence.Variation, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastType = variationType
	rows := f.byDate[day.Format(domain.DateLayout)]
	if variationType == "" {
		return rows, nil
	}
	var filtered []persistence.Variation
	for _, v := range rows {
		if v.VariationType == variationType {
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}

func (f *fakeVariations) CountByDate(_ context.Context, day time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.byDate[day.Format(domain.DateLayout)])), nil
}

type fakeResolution struct {
	mttr  map[string][]persistence.MTTREntry
	aging map[string][]persistence.AgingEntry
	err   error
}

func (f *fakeResolution) ReplaceForDate(_ context.Context, _ time.Time, _ []persistence.MTTREntry, _ []persistence.AgingEntry) error {
	return f.err
}

func (f *fakeResolution) ListMTTRByDate(_ context.Context, day time.Time) ([]persistence.MTTREntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.mttr[day.Format(domain.DateLayout)], nil
}

func (f *fakeResolution) ListAgingByDate(_ context.Context, day time.Time) ([]persistence.AgingEntry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.aging[day.Format(domain.DateLayout)], nil
}

type fakeInsights struct {
	byDate map[string][]persistence.Insight
	err    error
}

func (f *fakeInsights) ReplaceForDate(_ context.Context, _ time.Time, _ []persistence.Insight) error {
	return f.err
}

func (f *fakeInsights) ListByDate(_ context.Context, day time.Time, limit int) ([]persistence.Insight, error) {
	if f.err != nil {
		return nil, f.err
	}
	rows := f.byDate[day.Format(domain.DateLayout)]
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeInsights) CountByDate(_ context.Context, day time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.byDate[day.Format(domain.DateLayout)])), nil
}

// fakeHealth reports a fixed database health state.
type fakeHealth struct {
	healthy bool
}

func (f *fakeHealth) Health(_ context.Context) persistence.HealthCheck {
	hc := persistence.HealthCheck{
		Healthy:        f.healthy,
		ConnectionPool: map[string]int{"open": 1},
		LastCheck:      time.Now(),
		ResponseTimeMS: 1,
	}
	if !f.healthy {
		hc.Errors = []string{"ping failed: connection refused"}
	}
	return hc
}

func (f *fakeHealth) Ping(_ context.Context) error {
	return nil
}

func (f *fakeHealth) Stats(_ context.Context) map[string]interface{} {
	return map[string]interface{}{"open_connections": 1}
}
