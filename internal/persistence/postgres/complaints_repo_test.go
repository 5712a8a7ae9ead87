package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

// newMockDB wires a sqlmock connection through sqlx for repository tests
func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return sqlx.NewDb(mockDB, "postgres"), mock
}

func testComplaint(sr string, openTS time.Time) persistence.Complaint {
	return persistence.Complaint{
		SRNumber: sr,
		SRRowID:  "row-" + sr,
		OpenDate: openTS.Truncate(24 * time.Hour),
		OpenTS:   openTS,
		SRType:   "DSL",
		Region:   "Karachi",
		ExcID:    "KHI-01",
		City:     "Karachi",
	}
}

func TestComplaintsRepo_UpsertBatch(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewComplaintsRepo(db, 5*time.Second)

	open := time.Date(2026, 3, 18, 9, 30, 0, 0, time.UTC)
	rows := []persistence.Complaint{
		testComplaint("SR-001", open),
		testComplaint("SR-002", open.Add(time.Hour)),
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO complaints_raw")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	written, err := repo.UpsertBatch(context.Background(), rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), written)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintsRepo_UpsertBatch_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewComplaintsRepo(db, 5*time.Second)

	written, err := repo.UpsertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), written, "empty batch must not touch the database")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintsRepo_UpsertBatch_EmptyKeyRejected(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewComplaintsRepo(db, 5*time.Second)

	open := time.Date(2026, 3, 18, 9, 30, 0, 0, time.UTC)
	rows := []persistence.Complaint{testComplaint("", open)}

	mock.ExpectBegin()
	mock.ExpectPrepare("INSERT INTO complaints_raw")
	mock.ExpectRollback()

	_, err := repo.UpsertBatch(context.Background(), rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty sr_number")
}

func TestComplaintsRepo_CountOn(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewComplaintsRepo(db, 5*time.Second)

	day := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(day).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountOn(context.Background(), day)
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintsRepo_KeyCountsOn(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewComplaintsRepo(db, 5*time.Second)

	day := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT region AS key").
		WithArgs(day).
		WillReturnRows(sqlmock.NewRows([]string{"key", "n"}).
			AddRow("Karachi", 100).
			AddRow("Lahore", 20))

	counts, err := repo.KeyCountsOn(context.Background(), domain.DimRegion, day)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, "Karachi", counts[0].Key)
	assert.Equal(t, int64(100), counts[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintsRepo_RCABreakdown(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewComplaintsRepo(db, 5*time.Second)

	day := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(day, "Karachi").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(50))
	mock.ExpectQuery("SELECT rca AS key").
		WithArgs(day, "Karachi").
		WillReturnRows(sqlmock.NewRows([]string{"key", "n"}).
			AddRow("Fiber Cut", 26).
			AddRow("Power Outage", 10))

	out, err := repo.RCABreakdown(context.Background(), day, domain.DimRegion, "Karachi")
	require.NoError(t, err)
	assert.Equal(t, int64(50), out.ScopeTotal)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "Fiber Cut", out.Items[0].Key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComplaintsRepo_SeriesByColumn_Whitelist(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewComplaintsRepo(db, 5*time.Second)

	from := time.Date(2026, 2, 16, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)

	_, err := repo.SeriesByColumn(context.Background(), "sr_number; DROP TABLE", from, to)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid series column")
}
