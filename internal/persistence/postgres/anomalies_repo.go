package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/netopsio/srpulse/internal/persistence"
)

// anomaliesRepo implements AnomaliesRepo for PostgreSQL
type anomaliesRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewAnomaliesRepo creates a new PostgreSQL anomalies repository
func NewAnomaliesRepo(db *sqlx.DB, timeout time.Duration) persistence.AnomaliesRepo {
	return &anomaliesRepo{
		db:      db,
		timeout: timeout,
	}
}

// ReplaceForDate swaps the day's anomaly set in one transaction. The delete
// always runs so a re-run that finds nothing clears stale rows.
func (r *anomaliesRepo) ReplaceForDate(ctx context.Context, day time.Time, rows []persistence.Anomaly) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM daily_anomalies WHERE anomaly_date = $1::date`, day); err != nil {
		return fmt.Errorf("failed to delete anomalies for date: %w", err)
	}

	if len(rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO daily_anomalies (
				anomaly_date, dimension, dimension_key, metric_value,
				baseline_avg, baseline_std, z_score, severity, rca_context)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`)
		if err != nil {
			return fmt.Errorf("failed to prepare anomaly insert: %w", err)
		}
		defer stmt.Close()

		for _, a := range rows {
			_, err = stmt.ExecContext(ctx,
				a.AnomalyDate, a.Dimension, a.DimensionKey, a.MetricValue,
				a.BaselineAvg, a.BaselineStd, a.ZScore, a.Severity, a.RCAContext)
			if err != nil {
				if isUniqueViolation(err) {
					return fmt.Errorf("duplicate anomaly key %s/%s: %w", a.Dimension, a.DimensionKey, err)
				}
				return fmt.Errorf("failed to insert anomaly: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit anomaly replace: %w", err)
	}

	return nil
}

// ListByDate returns the day's anomalies ordered by z-score descending
func (r *anomaliesRepo) ListByDate(ctx context.Context, day time.Time) ([]persistence.Anomaly, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, anomaly_date, dimension, dimension_key, metric_value,
			baseline_avg, baseline_std, z_score, severity,
			COALESCE(rca_context, '') AS rca_context
		FROM daily_anomalies
		WHERE anomaly_date = $1::date
		ORDER BY z_score DESC, dimension ASC, dimension_key ASC`

	var rows []persistence.Anomaly
	if err := r.db.SelectContext(ctx, &rows, query, day); err != nil {
		return nil, fmt.Errorf("failed to query anomalies by date: %w", err)
	}

	return rows, nil
}

// UpdateRCAContexts rewrites rca_context for the given row ids
func (r *anomaliesRepo) UpdateRCAContexts(ctx context.Context, updates []persistence.ContextUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE daily_anomalies SET rca_context = $1 WHERE id = $2`)
	if err != nil {
		return fmt.Errorf("failed to prepare context update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.RCAContext, u.ID); err != nil {
			return fmt.Errorf("failed to update rca_context for anomaly %d: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit context updates: %w", err)
	}

	return nil
}

// UpdateSeverities rewrites severity for the given row ids
func (r *anomaliesRepo) UpdateSeverities(ctx context.Context, updates []persistence.SeverityUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE daily_anomalies SET severity = $1 WHERE id = $2`)
	if err != nil {
		return fmt.Errorf("failed to prepare severity update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.Severity, u.ID); err != nil {
			return fmt.Errorf("failed to update severity for anomaly %d: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit severity updates: %w", err)
	}

	return nil
}

// CountByDate returns the number of anomalies recorded for the day
func (r *anomaliesRepo) CountByDate(ctx context.Context, day time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int64
	err := r.db.QueryRowxContext(ctx,
		`SELECT COUNT(*) FROM daily_anomalies WHERE anomaly_date = $1::date`, day).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count anomalies: %w", err)
	}

	return count, nil
}
