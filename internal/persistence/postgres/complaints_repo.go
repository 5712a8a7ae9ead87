package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/persistence"
)

// seriesColumns is the closed set of columns the chart feeds may group by.
var seriesColumns = map[string]bool{
	"sr_type":     true,
	"sr_sub_type": true,
	"region":      true,
	"city":        true,
	"exc_id":      true,
	"cabinet_id":  true,
	"rca":         true,
}

// complaintsRepo implements ComplaintsRepo for PostgreSQL
type complaintsRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewComplaintsRepo creates a new PostgreSQL complaints repository
func NewComplaintsRepo(db *sqlx.DB, timeout time.Duration) persistence.ComplaintsRepo {
	return &complaintsRepo{
		db:      db,
		timeout: timeout,
	}
}

// UpsertBatch writes complaints atomically, keyed on sr_number
func (r *complaintsRepo) UpsertBatch(ctx context.Context, rows []persistence.Complaint) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout*time.Duration(len(rows)/1000+1))
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO complaints_raw (
			sr_number, sr_row_id, mdn, region_id, open_date, open_ts, close_ts,
			sr_duration, sr_type, sr_sub_type, sr_status, sr_sub_status, rca,
			desc_text, fault_type, department, region, city, exc_id, cabinet_id,
			dp_id, switch_id, product, sub_product, product_id, cust_seg,
			service_type, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
		ON CONFLICT (sr_number) DO UPDATE SET
			sr_row_id = EXCLUDED.sr_row_id, mdn = EXCLUDED.mdn,
			region_id = EXCLUDED.region_id, open_date = EXCLUDED.open_date,
			open_ts = EXCLUDED.open_ts, close_ts = EXCLUDED.close_ts,
			sr_duration = EXCLUDED.sr_duration, sr_type = EXCLUDED.sr_type,
			sr_sub_type = EXCLUDED.sr_sub_type, sr_status = EXCLUDED.sr_status,
			sr_sub_status = EXCLUDED.sr_sub_status, rca = EXCLUDED.rca,
			desc_text = EXCLUDED.desc_text, fault_type = EXCLUDED.fault_type,
			department = EXCLUDED.department, region = EXCLUDED.region,
			city = EXCLUDED.city, exc_id = EXCLUDED.exc_id,
			cabinet_id = EXCLUDED.cabinet_id, dp_id = EXCLUDED.dp_id,
			switch_id = EXCLUDED.switch_id, product = EXCLUDED.product,
			sub_product = EXCLUDED.sub_product, product_id = EXCLUDED.product_id,
			cust_seg = EXCLUDED.cust_seg, service_type = EXCLUDED.service_type,
			priority = EXCLUDED.priority`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert statement: %w", err)
	}
	defer stmt.Close()

	var written int64
	for _, c := range rows {
		if c.SRNumber == "" {
			return 0, fmt.Errorf("complaint with empty sr_number in batch")
		}

		_, err = stmt.ExecContext(ctx,
			c.SRNumber, c.SRRowID, c.MDN, c.RegionID, c.OpenDate, c.OpenTS,
			c.CloseTS, c.SRDuration, c.SRType, c.SRSubType, c.SRStatus,
			c.SRSubStatus, c.RCA, c.DescText, c.FaultType, c.Department,
			c.Region, c.City, c.ExcID, c.CabinetID, c.DPID, c.SwitchID,
			c.Product, c.SubProduct, c.ProductID, c.CustSeg, c.ServiceType,
			c.Priority)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert complaint %s: %w", c.SRNumber, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit upsert batch: %w", err)
	}

	return written, nil
}

// CountOn returns the total complaint count opened on the given day
func (r *complaintsRepo) CountOn(ctx context.Context, day time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int64
	err := r.db.QueryRowxContext(ctx,
		`SELECT COUNT(*) FROM complaints_raw WHERE open_date = $1::date`, day).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count complaints: %w", err)
	}

	return count, nil
}

// KeyCountsOn returns per-key counts for one dimension on one day
func (r *complaintsRepo) KeyCountsOn(ctx context.Context, dim domain.Dimension, day time.Time) ([]persistence.KeyCount, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s AS key, COUNT(*) AS n
		FROM complaints_raw
		WHERE open_date = $1::date AND %s <> ''
		GROUP BY %s
		ORDER BY n DESC, key ASC`, dim.Column, dim.Column, dim.Column)

	var counts []persistence.KeyCount
	if err := r.db.SelectContext(ctx, &counts, query, day); err != nil {
		return nil, fmt.Errorf("failed to query %s key counts: %w", dim.Name, err)
	}

	return counts, nil
}

// KeyCountsRange returns per-key per-day counts over [from, to] inclusive
func (r *complaintsRepo) KeyCountsRange(ctx context.Context, dim domain.Dimension, from, to time.Time) ([]persistence.KeyDayCount, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s AS key, open_date AS day, COUNT(*) AS n
		FROM complaints_raw
		WHERE open_date BETWEEN $1::date AND $2::date AND %s <> ''
		GROUP BY %s, open_date
		ORDER BY key ASC, day ASC`, dim.Column, dim.Column, dim.Column)

	var counts []persistence.KeyDayCount
	if err := r.db.SelectContext(ctx, &counts, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to query %s daily counts: %w", dim.Name, err)
	}

	return counts, nil
}

// TotalsByDay returns daily totals over [from, to] inclusive
func (r *complaintsRepo) TotalsByDay(ctx context.Context, from, to time.Time) ([]persistence.DayCount, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT open_date AS day, COUNT(*) AS n
		FROM complaints_raw
		WHERE open_date BETWEEN $1::date AND $2::date
		GROUP BY open_date
		ORDER BY open_date ASC`

	var counts []persistence.DayCount
	if err := r.db.SelectContext(ctx, &counts, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to query daily totals: %w", err)
	}

	return counts, nil
}

// TopKeys returns the heaviest keys of a dimension by total volume
func (r *complaintsRepo) TopKeys(ctx context.Context, dim domain.Dimension, from, to time.Time, limit int) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s AS key
		FROM complaints_raw
		WHERE open_date BETWEEN $1::date AND $2::date AND %s <> ''
		GROUP BY %s
		ORDER BY COUNT(*) DESC, key ASC
		LIMIT $3`, dim.Column, dim.Column, dim.Column)

	var keys []string
	if err := r.db.SelectContext(ctx, &keys, query, from, to, limit); err != nil {
		return nil, fmt.Errorf("failed to query top %s keys: %w", dim.Name, err)
	}

	return keys, nil
}

// RCABreakdown returns RCA frequencies within one dimension scope on one day
func (r *complaintsRepo) RCABreakdown(ctx context.Context, day time.Time, scope domain.Dimension, key string) (persistence.RCABreakdown, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var out persistence.RCABreakdown

	totalQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM complaints_raw
		WHERE open_date = $1::date AND %s = $2`, scope.Column)
	if err := r.db.QueryRowxContext(ctx, totalQuery, day, key).Scan(&out.ScopeTotal); err != nil {
		return out, fmt.Errorf("failed to count %s scope rows: %w", scope.Name, err)
	}

	itemsQuery := fmt.Sprintf(`
		SELECT rca AS key, COUNT(*) AS n
		FROM complaints_raw
		WHERE open_date = $1::date AND %s = $2 AND rca <> ''
		GROUP BY rca
		ORDER BY n DESC, key ASC`, scope.Column)
	if err := r.db.SelectContext(ctx, &out.Items, itemsQuery, day, key); err != nil {
		return out, fmt.Errorf("failed to query RCA breakdown: %w", err)
	}

	return out, nil
}

// GeoDayCounts returns per-(region, exchange, city) daily counts
func (r *complaintsRepo) GeoDayCounts(ctx context.Context, from, to time.Time) ([]persistence.GeoDayCount, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT region, exc_id, city, open_date AS day, COUNT(*) AS n
		FROM complaints_raw
		WHERE open_date BETWEEN $1::date AND $2::date
		GROUP BY region, exc_id, city, open_date
		ORDER BY region ASC, exc_id ASC, city ASC, day ASC`

	var counts []persistence.GeoDayCount
	if err := r.db.SelectContext(ctx, &counts, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to query geo daily counts: %w", err)
	}

	return counts, nil
}

// RepeatRows returns rows with a non-empty MDN over [from, to] inclusive
func (r *complaintsRepo) RepeatRows(ctx context.Context, from, to time.Time) ([]persistence.RepeatRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT mdn, region, exc_id, city, sr_sub_type, open_ts
		FROM complaints_raw
		WHERE open_date BETWEEN $1::date AND $2::date AND mdn <> ''
		ORDER BY open_ts ASC, sr_number ASC`

	var rows []persistence.RepeatRow
	if err := r.db.SelectContext(ctx, &rows, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to query repeat rows: %w", err)
	}

	return rows, nil
}

// ResolvedOn returns complaints closed on the day with resolution time in hours
func (r *complaintsRepo) ResolvedOn(ctx context.Context, day time.Time, minSeconds int) ([]persistence.ResolvedRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT region, city, exc_id,
			EXTRACT(EPOCH FROM (close_ts - open_ts)) / 3600.0 AS hours
		FROM complaints_raw
		WHERE close_ts IS NOT NULL
			AND close_ts::date = $1::date
			AND EXTRACT(EPOCH FROM (close_ts - open_ts)) >= $2
		ORDER BY sr_number ASC`

	var rows []persistence.ResolvedRow
	if err := r.db.SelectContext(ctx, &rows, query, day, minSeconds); err != nil {
		return nil, fmt.Errorf("failed to query resolved complaints: %w", err)
	}

	return rows, nil
}

// OpenAsOf returns complaints still open at the end-of-day reference instant
func (r *complaintsRepo) OpenAsOf(ctx context.Context, day time.Time, eod time.Time) ([]persistence.OpenRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT region, city, exc_id, open_ts
		FROM complaints_raw
		WHERE open_date <= $1::date
			AND sr_status <> 'Closed'
			AND (close_ts IS NULL OR close_ts > $2)
		ORDER BY open_ts ASC, sr_number ASC`

	var rows []persistence.OpenRow
	if err := r.db.SelectContext(ctx, &rows, query, day, eod); err != nil {
		return nil, fmt.Errorf("failed to query open complaints: %w", err)
	}

	return rows, nil
}

// QualityRows returns the validator projection for one day
func (r *complaintsRepo) QualityRows(ctx context.Context, day time.Time) ([]persistence.QualityRow, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT sr_row_id, open_ts, region, sr_type, rca, sr_status
		FROM complaints_raw
		WHERE open_date = $1::date
		ORDER BY open_ts ASC, sr_number ASC`

	var rows []persistence.QualityRow
	if err := r.db.SelectContext(ctx, &rows, query, day); err != nil {
		return nil, fmt.Errorf("failed to query quality rows: %w", err)
	}

	return rows, nil
}

// SeriesByColumn returns per-key per-day counts for a whitelisted column
func (r *complaintsRepo) SeriesByColumn(ctx context.Context, column string, from, to time.Time) ([]persistence.KeyDayCount, error) {
	if !seriesColumns[column] {
		return nil, fmt.Errorf("invalid series column: %s", column)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %s AS key, open_date AS day, COUNT(*) AS n
		FROM complaints_raw
		WHERE open_date BETWEEN $1::date AND $2::date AND %s <> ''
		GROUP BY %s, open_date
		ORDER BY key ASC, day ASC`, column, column, column)

	var counts []persistence.KeyDayCount
	if err := r.db.SelectContext(ctx, &counts, query, from, to); err != nil {
		return nil, fmt.Errorf("failed to query %s series: %w", column, err)
	}

	return counts, nil
}

// isUniqueViolation reports whether err is a Postgres unique violation
func isUniqueViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == "23505"
}
