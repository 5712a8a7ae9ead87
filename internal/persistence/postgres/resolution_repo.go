package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/netopsio/srpulse/internal/persistence"
)

// resolutionRepo implements ResolutionRepo for PostgreSQL. MTTR and aging
// rows for a day land together or not at all.
type resolutionRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewResolutionRepo creates a new PostgreSQL resolution repository
func NewResolutionRepo(db *sqlx.DB, timeout time.Duration) persistence.ResolutionRepo {
	return &resolutionRepo{
		db:      db,
		timeout: timeout,
	}
}

// ReplaceForDate swaps both tables' rows for the day in one transaction
func (r *resolutionRepo) ReplaceForDate(ctx context.Context, day time.Time, mttr []persistence.MTTREntry, aging []persistence.AgingEntry) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM daily_mttr WHERE mttr_date = $1::date`, day); err != nil {
		return fmt.Errorf("failed to delete mttr for date: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM daily_aging WHERE aging_date = $1::date`, day); err != nil {
		return fmt.Errorf("failed to delete aging for date: %w", err)
	}

	if len(mttr) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO daily_mttr (
				mttr_date, dimension, dimension_key, avg_mttr_hours,
				total_resolved_count)
			VALUES ($1, $2, $3, $4, $5)`)
		if err != nil {
			return fmt.Errorf("failed to prepare mttr insert: %w", err)
		}
		defer stmt.Close()

		for _, m := range mttr {
			_, err = stmt.ExecContext(ctx,
				m.MTTRDate, m.Dimension, m.DimensionKey, m.AvgMTTRHours,
				m.TotalResolvedCount)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("duplicate mttr key %s/%s: %w", m.Dimension, m.DimensionKey, err)
				}
				return fmt.Errorf("failed to insert mttr entry: %w", err)
			}
		}
	}

	if len(aging) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO daily_aging (
				aging_date, dimension, dimension_key, slab, sr_count)
			VALUES ($1, $2, $3, $4, $5)`)
		if err != nil {
			return fmt.Errorf("failed to prepare aging insert: %w", err)
		}
		defer stmt.Close()

		for _, a := range aging {
			_, err = stmt.ExecContext(ctx,
				a.AgingDate, a.Dimension, a.DimensionKey, a.Slab, a.SRCount)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("duplicate aging key %s/%s/%s: %w", a.Dimension, a.DimensionKey, a.Slab, err)
				}
				return fmt.Errorf("failed to insert aging entry: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit resolution replace: %w", err)
	}

	return nil
}

// ListMTTRByDate returns the day's MTTR aggregates
func (r *resolutionRepo) ListMTTRByDate(ctx context.Context, day time.Time) ([]persistence.MTTREntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, mttr_date, dimension, dimension_key, avg_mttr_hours,
			total_resolved_count
		FROM daily_mttr
		WHERE mttr_date = $1::date
		ORDER BY dimension ASC, dimension_key ASC`

	var rows []persistence.MTTREntry
	if err := r.db.SelectContext(ctx, &rows, query, day); err != nil {
		return nil, fmt.Errorf("failed to query mttr by date: %w", err)
	}

	return rows, nil
}

// ListAgingByDate returns the day's aging slab counts
func (r *resolutionRepo) ListAgingByDate(ctx context.Context, day time.Time) ([]persistence.AgingEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, aging_date, dimension, dimension_key, slab, sr_count
		FROM daily_aging
		WHERE aging_date = $1::date
		ORDER BY dimension ASC, dimension_key ASC, slab ASC`

	var rows []persistence.AgingEntry
	if err := r.db.SelectContext(ctx, &rows, query, day); err != nil {
		return nil, fmt.Errorf("failed to query aging by date: %w", err)
	}

	return rows, nil
}
