package resolution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

type fakeComplaints struct {
	resolved []persistence.ResolvedRow
	open     []persistence.OpenRow

	resolvedErr error
	openErr     error

	minSeconds int
	eod        time.Time
}

func (f *fakeComplaints) ResolvedOn(_ context.Context, _ time.Time, minSeconds int) ([]persistence.ResolvedRow, error) {
	f.minSeconds = minSeconds
	return f.resolved, f.resolvedErr
}

func (f *fakeComplaints) OpenAsOf(_ context.Context, _ time.Time, eod time.Time) ([]persistence.OpenRow, error) {
	f.eod = eod
	return f.open, f.openErr
}

type fakeResolution struct {
	day   time.Time
	mttr  []persistence.MTTREntry
	aging []persistence.AgingEntry
	calls int
	err   error
}

func (f *fakeResolution) ReplaceForDate(_ context.Context, day time.Time, mttr []persistence.MTTREntry, aging []persistence.AgingEntry) error {
	f.day, f.mttr, f.aging = day, mttr, aging
	f.calls++
	return f.err
}

func (f *fakeResolution) ListMTTRByDate(context.Context, time.Time) ([]persistence.MTTREntry, error) {
	return f.mttr, nil
}

func (f *fakeResolution) ListAgingByDate(context.Context, time.Time) ([]persistence.AgingEntry, error) {
	return f.aging, nil
}

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRunComputesMTTRPerScope(t *testing.T) {
	target := day("2026-03-15")
	reader := &fakeComplaints{
		resolved: []persistence.ResolvedRow{
			{Region: "Karachi", City: "Karachi City", ExcID: "KHI-01", Hours: 10},
			{Region: "Karachi", City: "Karachi City", ExcID: "KHI-02", Hours: 20},
			// Blank city stays out of the City scope but counts overall.
			{Region: "Lahore", City: "", ExcID: "LHR-01", Hours: 5},
		},
	}
	sink := &fakeResolution{}
	res, err := NewTracker(reader, sink).Run(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Equal(t, 300, reader.minSeconds)
	assert.Equal(t, 3, res.Counts["resolved"])

	require.Equal(t, 1, sink.calls)
	assert.Equal(t, target, sink.day)
	require.Len(t, sink.mttr, 7)

	assert.Equal(t, persistence.MTTREntry{
		MTTRDate: target, Dimension: "Total", DimensionKey: "All",
		AvgMTTRHours: 11.67, TotalResolvedCount: 3,
	}, sink.mttr[0])
	assert.Equal(t, persistence.MTTREntry{
		MTTRDate: target, Dimension: "Region", DimensionKey: "Karachi",
		AvgMTTRHours: 15, TotalResolvedCount: 2,
	}, sink.mttr[1])
	assert.Equal(t, persistence.MTTREntry{
		MTTRDate: target, Dimension: "Region", DimensionKey: "Lahore",
		AvgMTTRHours: 5, TotalResolvedCount: 1,
	}, sink.mttr[2])
	assert.Equal(t, persistence.MTTREntry{
		MTTRDate: target, Dimension: "City", DimensionKey: "Karachi City",
		AvgMTTRHours: 15, TotalResolvedCount: 2,
	}, sink.mttr[3])
	assert.Equal(t, "KHI-01", sink.mttr[4].DimensionKey)
	assert.Equal(t, "KHI-02", sink.mttr[5].DimensionKey)
	assert.Equal(t, "LHR-01", sink.mttr[6].DimensionKey)
}

func TestRunBucketsBacklogByAge(t *testing.T) {
	target := day("2026-03-15")
	eod := time.Date(2026, 3, 15, 23, 59, 59, 0, time.UTC)
	reader := &fakeComplaints{
		open: []persistence.OpenRow{
			{Region: "Karachi", City: "Karachi City", ExcID: "KHI-01", OpenTS: eod.Add(-30 * time.Hour)},
			{Region: "Karachi", City: "Karachi City", ExcID: "KHI-01", OpenTS: eod.Add(-75 * time.Hour)},
			// Under 24 hours old is not reported.
			{Region: "Lahore", City: "Lahore City", ExcID: "LHR-01", OpenTS: eod.Add(-12 * time.Hour)},
		},
	}
	sink := &fakeResolution{}
	res, err := NewTracker(reader, sink).Run(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Equal(t, eod, reader.eod)
	assert.Equal(t, 3, res.Counts["open_backlog"])
	assert.Equal(t, 8, res.Counts["aging_rows"])

	want := []persistence.AgingEntry{
		{AgingDate: target, Dimension: "Total", DimensionKey: "All", Slab: "> 72 Hours", SRCount: 1},
		{AgingDate: target, Dimension: "Total", DimensionKey: "All", Slab: "> 24 Hours", SRCount: 1},
		{AgingDate: target, Dimension: "Region", DimensionKey: "Karachi", Slab: "> 72 Hours", SRCount: 1},
		{AgingDate: target, Dimension: "Region", DimensionKey: "Karachi", Slab: "> 24 Hours", SRCount: 1},
		{AgingDate: target, Dimension: "City", DimensionKey: "Karachi City", Slab: "> 72 Hours", SRCount: 1},
		{AgingDate: target, Dimension: "City", DimensionKey: "Karachi City", Slab: "> 24 Hours", SRCount: 1},
		{AgingDate: target, Dimension: "Exchange", DimensionKey: "KHI-01", Slab: "> 72 Hours", SRCount: 1},
		{AgingDate: target, Dimension: "Exchange", DimensionKey: "KHI-01", Slab: "> 24 Hours", SRCount: 1},
	}
	assert.Equal(t, want, sink.aging)
}

func TestRunQuietDayStillReplaces(t *testing.T) {
	sink := &fakeResolution{}
	res, err := NewTracker(&fakeComplaints{}, sink).Run(context.Background(), day("2026-03-15"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Equal(t, 1, sink.calls)
	assert.Empty(t, sink.mttr)
	assert.Empty(t, sink.aging)
	assert.Zero(t, res.Counts["mttr_rows"])
}

func TestRunReaderErrorHalts(t *testing.T) {
	sink := &fakeResolution{}
	res, err := NewTracker(&fakeComplaints{resolvedErr: assert.AnError}, sink).Run(context.Background(), day("2026-03-15"))
	require.Error(t, err)
	assert.Equal(t, domain.StatusError, res.Status)
	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "resolved complaints", storeErr.Op)
	assert.Zero(t, sink.calls)
}

func TestRunStoreErrorHalts(t *testing.T) {
	sink := &fakeResolution{err: assert.AnError}
	res, err := NewTracker(&fakeComplaints{}, sink).Run(context.Background(), day("2026-03-15"))
	require.Error(t, err)
	assert.Equal(t, domain.StatusError, res.Status)
	var storeErr *domain.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "replace resolution metrics", storeErr.Op)
}
