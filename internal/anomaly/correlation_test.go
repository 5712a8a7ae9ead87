package anomaly

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

func dailySeries(key string, until time.Time, counts []int64) []persistence.KeyDayCount {
	out := make([]persistence.KeyDayCount, 0, len(counts))
	for i, c := range counts {
		out = append(out, persistence.KeyDayCount{
			Key:   key,
			Day:   until.AddDate(0, 0, -(len(counts) - 1 - i)),
			Count: c,
		})
	}
	return out
}

func TestCorrelatorAnnotatesCoMovingKeys(t *testing.T) {
	target := day("2026-03-15")
	counts := []int64{10, 12, 15, 11, 30, 14, 13, 12, 40, 11}

	series := &fakeSeries{
		ranges: map[string][]persistence.KeyDayCount{
			"Region": dailySeries("Karachi", target, counts),
			"Type":   dailySeries("NET", target, counts),
		},
		tops: map[string][]string{"Type": {"NET"}},
	}
	repo := &fakeAnomalies{byDate: map[string][]persistence.Anomaly{
		"2026-03-15": {{ID: 7, AnomalyDate: target, Dimension: "Region", DimensionKey: "Karachi", ZScore: 6}},
	}}

	c := NewCorrelator(series, repo, domain.StandardDimensions)
	res, err := c.Run(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Counts["correlated"])

	require.Len(t, repo.ctxUpdates, 1)
	assert.Equal(t, int64(7), repo.ctxUpdates[0].ID)
	assert.Equal(t, "Correlated with: NET (1.00)", repo.ctxUpdates[0].RCAContext)
}

func TestCorrelatorOrdersByStrengthThenKey(t *testing.T) {
	target := day("2026-03-15")
	base := []int64{10, 12, 15, 11, 30, 14, 13, 12, 40, 11}
	noisy := []int64{10, 12, 15, 11, 30, 14, 13, 12, 40, 25}

	series := &fakeSeries{
		ranges: map[string][]persistence.KeyDayCount{
			"Region": dailySeries("Karachi", target, base),
			"Type": append(
				dailySeries("NET", target, base),
				dailySeries("DSL", target, noisy)...,
			),
		},
		tops: map[string][]string{"Type": {"DSL", "NET"}},
	}
	repo := &fakeAnomalies{byDate: map[string][]persistence.Anomaly{
		"2026-03-15": {{ID: 1, Dimension: "Region", DimensionKey: "Karachi"}},
	}}

	c := NewCorrelator(series, repo, domain.StandardDimensions)
	_, err := c.Run(context.Background(), target)
	require.NoError(t, err)

	require.Len(t, repo.ctxUpdates, 1)
	ctx := repo.ctxUpdates[0].RCAContext
	assert.Regexp(t, `^Correlated with: NET \(1\.00\), DSL \(0\.\d{2}\)$`, ctx)
}

func TestCorrelatorSkipsThinOverlap(t *testing.T) {
	target := day("2026-03-15")
	series := &fakeSeries{
		ranges: map[string][]persistence.KeyDayCount{
			"Region": dailySeries("Karachi", target, []int64{5, 9, 14}),
			"Type":   dailySeries("NET", target.AddDate(0, 0, -20), []int64{5, 9, 14}),
		},
		tops: map[string][]string{"Type": {"NET"}},
	}
	repo := &fakeAnomalies{byDate: map[string][]persistence.Anomaly{
		"2026-03-15": {{ID: 1, Dimension: "Region", DimensionKey: "Karachi"}},
	}}

	c := NewCorrelator(series, repo, domain.StandardDimensions)
	res, err := c.Run(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Counts["correlated"])
	assert.Empty(t, repo.ctxUpdates)
}

func TestCorrelatorRejectsWeakCorrelation(t *testing.T) {
	target := day("2026-03-15")
	series := &fakeSeries{
		ranges: map[string][]persistence.KeyDayCount{
			"Region": dailySeries("Karachi", target, []int64{10, 30, 5, 40, 8, 25, 12}),
			"Type":   dailySeries("NET", target, []int64{30, 8, 35, 6, 33, 9, 31}),
		},
		tops: map[string][]string{"Type": {"NET"}},
	}
	repo := &fakeAnomalies{byDate: map[string][]persistence.Anomaly{
		"2026-03-15": {{ID: 1, Dimension: "Region", DimensionKey: "Karachi"}},
	}}

	c := NewCorrelator(series, repo, domain.StandardDimensions)
	_, err := c.Run(context.Background(), target)
	require.NoError(t, err)
	assert.Empty(t, repo.ctxUpdates)
}

func TestCorrelatorAppendsToExistingContext(t *testing.T) {
	target := day("2026-03-15")
	counts := []int64{10, 12, 15, 11, 30, 14, 13, 12, 40, 11}
	series := &fakeSeries{
		ranges: map[string][]persistence.KeyDayCount{
			"Region": dailySeries("Karachi", target, counts),
			"Type":   dailySeries("NET", target, counts),
		},
		tops: map[string][]string{"Type": {"NET"}},
	}
	repo := &fakeAnomalies{byDate: map[string][]persistence.Anomaly{
		"2026-03-15": {{ID: 1, Dimension: "Region", DimensionKey: "Karachi", RCAContext: "Probable RCA: Fiber Cut (52.0%)"}},
	}}

	c := NewCorrelator(series, repo, domain.StandardDimensions)
	_, err := c.Run(context.Background(), target)
	require.NoError(t, err)

	require.Len(t, repo.ctxUpdates, 1)
	assert.Equal(t, "Probable RCA: Fiber Cut (52.0%) | Correlated with: NET (1.00)", repo.ctxUpdates[0].RCAContext)
}

func TestCorrelatorSkipsRCAAnomalies(t *testing.T) {
	target := day("2026-03-15")
	repo := &fakeAnomalies{byDate: map[string][]persistence.Anomaly{
		"2026-03-15": {{ID: 1, Dimension: "RCA", DimensionKey: "Fiber Cut"}},
	}}
	series := &fakeSeries{ranges: map[string][]persistence.KeyDayCount{}, tops: map[string][]string{}}

	c := NewCorrelator(series, repo, domain.StandardDimensions)
	_, err := c.Run(context.Background(), target)
	require.NoError(t, err)
	assert.Empty(t, repo.ctxUpdates)
}
