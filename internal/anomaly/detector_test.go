package anomaly

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netopsio/srpulse/internal/baseline"
	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

func writeSnapshot(t *testing.T, store *baseline.Store, dim string, rows []baseline.Row) {
	t.Helper()
	require.NoError(t, store.Write(&baseline.Snapshot{
		Dimension:  dim,
		TargetDate: "2026-03-15",
		Rows:       rows,
	}))
}

func TestDetectorFlagsSpike(t *testing.T) {
	store := baseline.NewStore(t.TempDir())
	writeSnapshot(t, store, "Region", []baseline.Row{
		{DimensionKey: "Karachi", Avg30d: 10, Std30d: 0, Samples30d: 30},
		{DimensionKey: "Lahore", Avg30d: 10, Std30d: 0, Samples30d: 30},
	})

	current := &fakeCurrent{counts: map[string][]persistence.KeyCount{
		"Region": {{Key: "Karachi", Count: 100}, {Key: "Lahore", Count: 10}},
	}}
	repo := &fakeAnomalies{}
	det := NewDetector(current, repo, store, []domain.Dimension{domain.DimRegion}, 2.0, 3.0)

	res, err := det.Run(context.Background(), day("2026-03-15"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Equal(t, 1, res.Counts["anomalies"])

	require.Len(t, repo.replaced, 1)
	a := repo.replaced[0]
	assert.Equal(t, "Region", a.Dimension)
	assert.Equal(t, "Karachi", a.DimensionKey)
	assert.Equal(t, 100.0, a.MetricValue)
	assert.InDelta(t, 10.0, a.BaselineAvg, 1e-9)
	assert.Greater(t, a.ZScore, 5.0)
	assert.Equal(t, domain.SeverityCritical, a.Severity)
	assert.Equal(t, day("2026-03-15"), repo.replacedDay)
}

func TestDetectorWarningBand(t *testing.T) {
	store := baseline.NewStore(t.TempDir())
	writeSnapshot(t, store, "Type", []baseline.Row{
		{DimensionKey: "NET", Avg30d: 10, Std30d: 2, Samples30d: 30},
	})

	current := &fakeCurrent{counts: map[string][]persistence.KeyCount{
		"Type": {{Key: "NET", Count: 15}},
	}}
	repo := &fakeAnomalies{}
	det := NewDetector(current, repo, store, []domain.Dimension{domain.DimType}, 2.0, 3.0)

	_, err := det.Run(context.Background(), day("2026-03-15"))
	require.NoError(t, err)

	require.Len(t, repo.replaced, 1)
	a := repo.replaced[0]
	assert.InDelta(t, 2.499, a.ZScore, 0.01)
	assert.Equal(t, domain.SeverityWarning, a.Severity)
}

func TestDetectorUnseenKeyGetsZeroBaseline(t *testing.T) {
	store := baseline.NewStore(t.TempDir())
	writeSnapshot(t, store, "City", []baseline.Row{
		{DimensionKey: "Multan", Avg30d: 8, Std30d: 1, Samples30d: 30},
	})

	current := &fakeCurrent{counts: map[string][]persistence.KeyCount{
		"City": {{Key: "Quetta", Count: 4}},
	}}
	repo := &fakeAnomalies{}
	det := NewDetector(current, repo, store, []domain.Dimension{domain.DimCity}, 2.0, 3.0)

	_, err := det.Run(context.Background(), day("2026-03-15"))
	require.NoError(t, err)

	require.Len(t, repo.replaced, 1)
	a := repo.replaced[0]
	assert.Equal(t, "Quetta", a.DimensionKey)
	assert.Zero(t, a.BaselineAvg)
	assert.Zero(t, a.BaselineStd)
	assert.Equal(t, domain.SeverityCritical, a.Severity)
}

func TestDetectorIgnoresDrops(t *testing.T) {
	store := baseline.NewStore(t.TempDir())
	writeSnapshot(t, store, "Region", []baseline.Row{
		{DimensionKey: "Karachi", Avg30d: 100, Std30d: 5, Samples30d: 30},
	})

	current := &fakeCurrent{counts: map[string][]persistence.KeyCount{
		"Region": {{Key: "Karachi", Count: 3}},
	}}
	repo := &fakeAnomalies{}
	det := NewDetector(current, repo, store, []domain.Dimension{domain.DimRegion}, 2.0, 3.0)

	res, err := det.Run(context.Background(), day("2026-03-15"))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Counts["anomalies"])
	assert.Empty(t, repo.replaced)
	assert.Equal(t, 1, repo.replaceCalls, "the day's rows are cleared even without new spikes")
}

func TestDetectorMissingArtifactSkipsDimension(t *testing.T) {
	store := baseline.NewStore(t.TempDir())
	writeSnapshot(t, store, "Region", []baseline.Row{
		{DimensionKey: "Karachi", Avg30d: 10, Std30d: 0, Samples30d: 30},
	})

	current := &fakeCurrent{counts: map[string][]persistence.KeyCount{
		"Region": {{Key: "Karachi", Count: 100}},
		"City":   {{Key: "Quetta", Count: 100}},
	}}
	repo := &fakeAnomalies{}
	det := NewDetector(current, repo, store, []domain.Dimension{domain.DimRegion, domain.DimCity}, 2.0, 3.0)

	res, err := det.Run(context.Background(), day("2026-03-15"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Equal(t, []string{"City"}, res.Diagnostics["skipped_dimensions"])
	require.Len(t, repo.replaced, 1)
	assert.Equal(t, "Region", repo.replaced[0].Dimension)
}

func TestDetectorAllArtifactsMissingWarns(t *testing.T) {
	store := baseline.NewStore(t.TempDir())
	repo := &fakeAnomalies{}
	det := NewDetector(&fakeCurrent{}, repo, store, []domain.Dimension{domain.DimRegion}, 2.0, 3.0)

	res, err := det.Run(context.Background(), day("2026-03-15"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusWarning, res.Status)
	assert.Equal(t, 1, repo.replaceCalls)
}

func TestDetectorStoreErrorHalts(t *testing.T) {
	store := baseline.NewStore(t.TempDir())
	writeSnapshot(t, store, "Region", []baseline.Row{{DimensionKey: "Karachi", Avg30d: 1, Samples30d: 5}})

	repo := &fakeAnomalies{err: assert.AnError}
	current := &fakeCurrent{counts: map[string][]persistence.KeyCount{
		"Region": {{Key: "Karachi", Count: 100}},
	}}
	det := NewDetector(current, repo, store, []domain.Dimension{domain.DimRegion}, 2.0, 3.0)

	res, err := det.Run(context.Background(), day("2026-03-15"))
	require.Error(t, err)
	assert.Equal(t, domain.StatusError, res.Status)

	var storeErr *domain.StoreError
	assert.ErrorAs(t, err, &storeErr)
}
