package anomaly

import (
	"context"
	"time"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

// fakeAnomalies records writes and serves canned lists keyed by date.
type fakeAnomalies struct {
	byDate       map[string][]persistence.Anomaly
	replaced     []persistence.Anomaly
	replacedDay  time.Time
	replaceCalls int
	ctxUpdates   []persistence.ContextUpdate
	sevUpdates   []persistence.SeverityUpdate
	err          error
}

func (f *fakeAnomalies) ReplaceForDate(_ context.Context, day time.Time, rows []persistence.Anomaly) error {
	if f.err != nil {
		return f.err
	}
	f.replaceCalls++
	f.replacedDay = day
	f.replaced = rows
	return nil
}

func (f *fakeAnomalies) ListByDate(_ context.Context, day time.Time) ([]persistence.Anomaly, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byDate[day.Format(domain.DateLayout)], nil
}

func (f *fakeAnomalies) UpdateRCAContexts(_ context.Context, updates []persistence.ContextUpdate) error {
	if f.err != nil {
		return f.err
	}
	f.ctxUpdates = updates
	return nil
}

func (f *fakeAnomalies) UpdateSeverities(_ context.Context, updates []persistence.SeverityUpdate) error {
	if f.err != nil {
		return f.err
	}
	f.sevUpdates = updates
	return nil
}

func (f *fakeAnomalies) CountByDate(_ context.Context, day time.Time) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.byDate[day.Format(domain.DateLayout)])), nil
}

type fakeCurrent struct {
	counts map[string][]persistence.KeyCount
	err    error
}

func (f *fakeCurrent) KeyCountsOn(_ context.Context, dim domain.Dimension, _ time.Time) ([]persistence.KeyCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.counts[dim.Name], nil
}

type fakeSeries struct {
	ranges map[string][]persistence.KeyDayCount
	tops   map[string][]string
}

func (f *fakeSeries) KeyCountsRange(_ context.Context, dim domain.Dimension, _, _ time.Time) ([]persistence.KeyDayCount, error) {
	return f.ranges[dim.Name], nil
}

func (f *fakeSeries) TopKeys(_ context.Context, dim domain.Dimension, _, _ time.Time, _ int) ([]string, error) {
	return f.tops[dim.Name], nil
}

type fakeBreakdown struct {
	byScope map[string]persistence.RCABreakdown
}

func (f *fakeBreakdown) RCABreakdown(_ context.Context, _ time.Time, scope domain.Dimension, key string) (persistence.RCABreakdown, error) {
	return f.byScope[scope.Name+"|"+key], nil
}

type fakeInsights struct {
	rows  []persistence.Insight
	day   time.Time
	calls int
}

func (f *fakeInsights) ReplaceForDate(_ context.Context, day time.Time, rows []persistence.Insight) error {
	f.calls++
	f.day = day
	f.rows = rows
	return nil
}

func (f *fakeInsights) ListByDate(_ context.Context, _ time.Time, _ int) ([]persistence.Insight, error) {
	return f.rows, nil
}

func (f *fakeInsights) CountByDate(_ context.Context, _ time.Time) (int64, error) {
	return int64(len(f.rows)), nil
}

func day(s string) time.Time {
	t, err := time.Parse(domain.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}
