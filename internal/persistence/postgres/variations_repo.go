package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/netopsio/srpulse/internal/persistence"
)

// variationsRepo implements VariationsRepo for PostgreSQL
type variationsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewVariationsRepo creates a new PostgreSQL variations repository
func NewVariationsRepo(db *sqlx.DB, timeout time.Duration) persistence.VariationsRepo {
	return &variationsRepo{
		db:      db,
		timeout: timeout,
	}
}

// ReplaceForDate swaps the day's variation set in one transaction
func (r *variationsRepo) ReplaceForDate(ctx context.Context, day time.Time, rows []persistence.Variation) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM daily_variations WHERE variation_date = $1::date`, day); err != nil {
		return fmt.Errorf("failed to delete variations for date: %w", err)
	}

	if len(rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO daily_variations (
				variation_date, dimension, dimension_key, current_value,
				previous_value, variation_type, variation_percent, is_significant)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
		if err != nil {
			return fmt.Errorf("failed to prepare variation insert: %w", err)
		}
		defer stmt.Close()

		for _, v := range rows {
			_, err = stmt.ExecContext(ctx,
				v.VariationDate, v.Dimension, v.DimensionKey, v.CurrentValue,
				v.PreviousValue, v.VariationType, v.VariationPercent, v.IsSignificant)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("duplicate variation key %s/%s/%s: %w", v.Dimension, v.DimensionKey, v.VariationType, err)
				}
				return fmt.Errorf("failed to insert variation: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit variation replace: %w", err)
	}

	return nil
}

// ListByDate returns the day's variations, optionally filtered to one type
func (r *variationsRepo) ListByDate(ctx context.Context, day time.Time, variationType string) ([]persistence.Variation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, variation_date, dimension, dimension_key, current_value,
			previous_value, variation_type, variation_percent, is_significant
		FROM daily_variations
		WHERE variation_date = $1::date`
	args := []interface{}{day}

	if variationType != "" {
		query += ` AND variation_type = $2`
		args = append(args, variationType)
	}
	query += ` ORDER BY dimension ASC, dimension_key ASC, variation_type ASC`

	var rows []persistence.Variation
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query variations by date: %w", err)
	}

	return rows, nil
}

// CountByDate returns the number of variation rows recorded for the day
func (r *variationsRepo) CountByDate(ctx context.Context, day time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int64
	err := r.db.QueryRowxContext(ctx,
		`SELECT COUNT(*) FROM daily_variations WHERE variation_date = $1::date`, day).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count variations: %w", err)
	}

	return count, nil
}
