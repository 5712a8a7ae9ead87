package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

func TestTrendsRepo_ReplaceForDate_NullSignificance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTrendsRepo(db, 5*time.Second)

	day := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)
	p := 0.003
	rows := []persistence.Trend{
		{TrendDate: day, Dimension: "Region", DimensionKey: "Karachi", MetricValue: 31,
			Direction: domain.TrendUp, Strength: 55.0, WindowDays: 7, Significance: &p},
		{TrendDate: day, Dimension: "Region", DimensionKey: "Quetta", MetricValue: 20,
			Direction: domain.TrendStable, Strength: 0, WindowDays: 7, Significance: nil},
	}

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM daily_trends").
		WithArgs(day).
		WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare("INSERT INTO daily_trends")
	prep.ExpectExec().
		WithArgs(day, "Region", "Karachi", 31.0, domain.TrendUp, 55.0, 7, 0.003).
		WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().
		WithArgs(day, "Region", "Quetta", 20.0, domain.TrendStable, 0.0, 7, nil).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := repo.ReplaceForDate(context.Background(), day, rows)
	require.NoError(t, err, "a constant series stores NULL significance")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrendsRepo_ListByDate_WindowFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTrendsRepo(db, 5*time.Second)

	day := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM daily_trends").
		WithArgs(day, 7).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "trend_date", "dimension", "dimension_key", "metric_value",
			"trend_direction", "trend_strength", "window_days", "significance",
		}).AddRow(1, day, "Region", "Karachi", 31.0, "UP", 55.0, 7, 0.003))

	rows, err := repo.ListByDate(context.Background(), day, 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 7, rows[0].WindowDays)
	require.NotNil(t, rows[0].Significance)
	assert.InDelta(t, 0.003, *rows[0].Significance, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}
