package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/netopsio/srpulse/internal/persistence"
)

// trendsRepo implements TrendsRepo for PostgreSQL
type trendsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewTrendsRepo creates a new PostgreSQL trends repository
func NewTrendsRepo(db *sqlx.DB, timeout time.Duration) persistence.TrendsRepo {
	return &trendsRepo{
		db:      db,
		timeout: timeout,
	}
}

// ReplaceForDate swaps the day's trend set in one transaction
func (r *trendsRepo) ReplaceForDate(ctx context.Context, day time.Time, rows []persistence.Trend) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM daily_trends WHERE trend_date = $1::date`, day); err != nil {
		return fmt.Errorf("failed to delete trends for date: %w", err)
	}

	if len(rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO daily_trends (
				trend_date, dimension, dimension_key, metric_value,
				trend_direction, trend_strength, window_days, significance)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
		if err != nil {
			return fmt.Errorf("failed to prepare trend insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range rows {
			_, err = stmt.ExecContext(ctx,
				t.TrendDate, t.Dimension, t.DimensionKey, t.MetricValue,
				t.Direction, t.Strength, t.WindowDays, t.Significance)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("duplicate trend key %s/%s/%dd: %w", t.Dimension, t.DimensionKey, t.WindowDays, err)
				}
				return fmt.Errorf("failed to insert trend: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trend replace: %w", err)
	}

	return nil
}

// ListByDate returns the day's trends, optionally filtered to one window
func (r *trendsRepo) ListByDate(ctx context.Context, day time.Time, windowDays int) ([]persistence.Trend, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, trend_date, dimension, dimension_key, metric_value,
			trend_direction, trend_strength, window_days, significance
		FROM daily_trends
		WHERE trend_date = $1::date`
	args := []interface{}{day}

	if windowDays > 0 {
		query += ` AND window_days = $2`
		args = append(args, windowDays)
	}
	query += ` ORDER BY dimension ASC, dimension_key ASC, window_days ASC`

	var rows []persistence.Trend
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query trends by date: %w", err)
	}

	return rows, nil
}

// CountByDate returns the number of trend rows recorded for the day
func (r *trendsRepo) CountByDate(ctx context.Context, day time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int64
	err := r.db.QueryRowxContext(ctx,
		`SELECT COUNT(*) FROM daily_trends WHERE trend_date = $1::date`, day).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count trends: %w", err)
	}

	return count, nil
}
