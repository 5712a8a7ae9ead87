package anomaly

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

func TestEscalatorUpgradesRepeatOffender(t *testing.T) {
	repo := &fakeAnomalies{byDate: map[string][]persistence.Anomaly{
		"2026-03-15": {{ID: 1, Dimension: "Region", DimensionKey: "Karachi", Severity: domain.SeverityWarning}},
		"2026-03-14": {{ID: 9, Dimension: "Region", DimensionKey: "Karachi", Severity: domain.SeverityWarning}},
	}}

	e := NewEscalator(repo, 3)
	res, err := e.Run(context.Background(), day("2026-03-15"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Counts["upgraded"])

	require.Len(t, repo.sevUpdates, 1)
	assert.Equal(t, int64(1), repo.sevUpdates[0].ID)
	assert.Equal(t, domain.SeverityCritical, repo.sevUpdates[0].Severity)
}

func TestEscalatorUpgradesTypeDuringWidespreadSpikes(t *testing.T) {
	repo := &fakeAnomalies{byDate: map[string][]persistence.Anomaly{
		"2026-03-15": {
			{ID: 1, Dimension: "Type", DimensionKey: "NET", Severity: domain.SeverityWarning},
			{ID: 2, Dimension: "Region", DimensionKey: "Karachi", Severity: domain.SeverityCritical},
			{ID: 3, Dimension: "Region", DimensionKey: "Lahore", Severity: domain.SeverityCritical},
			{ID: 4, Dimension: "Region", DimensionKey: "Multan", Severity: domain.SeverityCritical},
			{ID: 5, Dimension: "Region", DimensionKey: "Quetta", Severity: domain.SeverityCritical},
		},
	}}

	e := NewEscalator(repo, 3)
	_, err := e.Run(context.Background(), day("2026-03-15"))
	require.NoError(t, err)

	require.Len(t, repo.sevUpdates, 1)
	assert.Equal(t, int64(1), repo.sevUpdates[0].ID)
}

func TestEscalatorThresholdIsStrict(t *testing.T) {
	// Exactly widespread_region_count region spikes is not "more than".
	repo := &fakeAnomalies{byDate: map[string][]persistence.Anomaly{
		"2026-03-15": {
			{ID: 1, Dimension: "Type", DimensionKey: "NET", Severity: domain.SeverityWarning},
			{ID: 2, Dimension: "Region", DimensionKey: "Karachi", Severity: domain.SeverityWarning},
			{ID: 3, Dimension: "Region", DimensionKey: "Lahore", Severity: domain.SeverityWarning},
			{ID: 4, Dimension: "Region", DimensionKey: "Multan", Severity: domain.SeverityWarning},
		},
	}}

	e := NewEscalator(repo, 3)
	_, err := e.Run(context.Background(), day("2026-03-15"))
	require.NoError(t, err)
	assert.Empty(t, repo.sevUpdates)
}

func TestEscalatorNeverTouchesCriticalOrInfo(t *testing.T) {
	repo := &fakeAnomalies{byDate: map[string][]persistence.Anomaly{
		"2026-03-15": {
			{ID: 1, Dimension: "Region", DimensionKey: "Karachi", Severity: domain.SeverityCritical},
			{ID: 2, Dimension: "Region", DimensionKey: "Lahore", Severity: domain.SeverityInfo},
		},
		"2026-03-14": {
			{ID: 7, Dimension: "Region", DimensionKey: "Karachi"},
			{ID: 8, Dimension: "Region", DimensionKey: "Lahore"},
		},
	}}

	e := NewEscalator(repo, 3)
	_, err := e.Run(context.Background(), day("2026-03-15"))
	require.NoError(t, err)
	assert.Empty(t, repo.sevUpdates)
}
