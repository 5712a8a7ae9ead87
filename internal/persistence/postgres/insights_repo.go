package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/netopsio/srpulse/internal/persistence"
)

// insightsRepo implements InsightsRepo for PostgreSQL
type insightsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewInsightsRepo creates a new PostgreSQL insights repository
func NewInsightsRepo(db *sqlx.DB, timeout time.Duration) persistence.InsightsRepo {
	return &insightsRepo{
		db:      db,
		timeout: timeout,
	}
}

// ReplaceForDate swaps the day's insight set in one transaction. The date
// scope is created_at::date, which the narrator pins to the target date.
func (r *insightsRepo) ReplaceForDate(ctx context.Context, day time.Time, rows []persistence.Insight) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM exec_insights WHERE created_at::date = $1::date`, day); err != nil {
		return fmt.Errorf("failed to delete insights for date: %w", err)
	}

	if len(rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO exec_insights (created_at, title, summary, severity)
			VALUES ($1, $2, $3, $4)`)
		if err != nil {
			return fmt.Errorf("failed to prepare insight insert: %w", err)
		}
		defer stmt.Close()

		for _, in := range rows {
			_, err = stmt.ExecContext(ctx, in.CreatedAt, in.Title, in.Summary, in.Severity)
			if err != nil {
				return fmt.Errorf("failed to insert insight: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit insight replace: %w", err)
	}

	return nil
}

// ListByDate returns the day's insights, newest first
func (r *insightsRepo) ListByDate(ctx context.Context, day time.Time, limit int) ([]persistence.Insight, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, created_at, title, summary, severity
		FROM exec_insights
		WHERE created_at::date = $1::date
		ORDER BY created_at DESC, id ASC`
	args := []interface{}{day}

	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	var rows []persistence.Insight
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query insights by date: %w", err)
	}

	return rows, nil
}

// CountByDate returns the number of insights recorded for the day
func (r *insightsRepo) CountByDate(ctx context.Context, day time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int64
	err := r.db.QueryRowxContext(ctx,
		`SELECT COUNT(*) FROM exec_insights WHERE created_at::date = $1::date`, day).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count insights: %w", err)
	}

	return count, nil
}
