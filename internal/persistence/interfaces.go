package persistence

import (
	"context"
	"time"

	"github.com/netopsio/srpulse/internal/domain"
)

// ComplaintsRepo owns the complaints_raw fact table: the ingest upsert plus
// every read the analytical stages and chart feeds run against it. Grouped
// reads skip rows whose grouping column is empty.
type ComplaintsRepo interface {
	// UpsertBatch writes rows in one transaction keyed on sr_number,
	// updating all non-key columns on conflict. Returns rows written.
	UpsertBatch(ctx context.Context, rows []Complaint) (int64, error)

	// CountOn returns the total complaint count opened on the given day.
	CountOn(ctx context.Context, day time.Time) (int64, error)

	// KeyCountsOn returns per-key counts for one dimension on one day.
	KeyCountsOn(ctx context.Context, dim domain.Dimension, day time.Time) ([]KeyCount, error)

	// KeyCountsRange returns per-key per-day counts for a dimension over
	// [from, to] inclusive. Days with no rows for a key are absent.
	KeyCountsRange(ctx context.Context, dim domain.Dimension, from, to time.Time) ([]KeyDayCount, error)

	// TotalsByDay returns daily totals over [from, to] inclusive.
	TotalsByDay(ctx context.Context, from, to time.Time) ([]DayCount, error)

	// TopKeys returns the heaviest keys of a dimension by total volume
	// over [from, to] inclusive.
	TopKeys(ctx context.Context, dim domain.Dimension, from, to time.Time, limit int) ([]string, error)

	// RCABreakdown returns non-empty RCA frequencies within one dimension
	// scope on one day, plus the scope's full row count.
	RCABreakdown(ctx context.Context, day time.Time, scope domain.Dimension, key string) (RCABreakdown, error)

	// GeoDayCounts returns per-(region, exchange, city) daily counts over
	// [from, to] inclusive for surge detection.
	GeoDayCounts(ctx context.Context, from, to time.Time) ([]GeoDayCount, error)

	// RepeatRows returns rows with a non-empty MDN over [from, to]
	// inclusive, ordered by open timestamp.
	RepeatRows(ctx context.Context, from, to time.Time) ([]RepeatRow, error)

	// ResolvedOn returns complaints closed on the given day whose
	// resolution took at least minSeconds.
	ResolvedOn(ctx context.Context, day time.Time, minSeconds int) ([]ResolvedRow, error)

	// OpenAsOf returns complaints opened on or before day and still
	// unresolved at the end-of-day reference instant.
	OpenAsOf(ctx context.Context, day time.Time, eod time.Time) ([]OpenRow, error)

	// QualityRows returns the validator projection for one day.
	QualityRows(ctx context.Context, day time.Time) ([]QualityRow, error)

	// SeriesByColumn returns per-key per-day counts for an arbitrary
	// whitelisted column (chart feeds reach beyond the standard
	// dimensions, e.g. cabinet_id and sr_sub_type).
	SeriesByColumn(ctx context.Context, column string, from, to time.Time) ([]KeyDayCount, error)
}

// AnomaliesRepo owns daily_anomalies.
type AnomaliesRepo interface {
	// ReplaceForDate deletes every anomaly of the given day and inserts
	// the new set in one transaction. An empty set still deletes.
	ReplaceForDate(ctx context.Context, day time.Time, rows []Anomaly) error

	// ListByDate returns the day's anomalies ordered by z-score descending.
	ListByDate(ctx context.Context, day time.Time) ([]Anomaly, error)

	// UpdateRCAContexts rewrites rca_context for the given row ids in one
	// transaction.
	UpdateRCAContexts(ctx context.Context, updates []ContextUpdate) error

	// UpdateSeverities rewrites severity for the given row ids in one
	// transaction.
	UpdateSeverities(ctx context.Context, updates []SeverityUpdate) error

	// CountByDate returns the number of anomalies recorded for the day.
	CountByDate(ctx context.Context, day time.Time) (int64, error)
}

// TrendsRepo owns daily_trends.
type TrendsRepo interface {
	// ReplaceForDate deletes every trend of the given day and inserts the
	// new set in one transaction.
	ReplaceForDate(ctx context.Context, day time.Time, rows []Trend) error

	// ListByDate returns the day's trends, optionally filtered to one
	// window (0 means all windows).
	ListByDate(ctx context.Context, day time.Time, windowDays int) ([]Trend, error)

	// CountByDate returns the number of trend rows recorded for the day.
	CountByDate(ctx context.Context, day time.Time) (int64, error)
}

// VariationsRepo owns daily_variations.
type VariationsRepo interface {
	// ReplaceForDate deletes every variation of the given day and inserts
	// the new set in one transaction.
	ReplaceForDate(ctx context.Context, day time.Time, rows []Variation) error

	// ListByDate returns the day's variations, optionally filtered to one
	// comparison type (empty means all).
	ListByDate(ctx context.Context, day time.Time, variationType string) ([]Variation, error)

	// CountByDate returns the number of variation rows recorded for the day.
	CountByDate(ctx context.Context, day time.Time) (int64, error)
}

// ResolutionRepo owns daily_mttr and daily_aging, which are always written
// together for a day.
type ResolutionRepo interface {
	// ReplaceForDate deletes both tables' rows for the day and inserts the
	// new sets in one transaction.
	ReplaceForDate(ctx context.Context, day time.Time, mttr []MTTREntry, aging []AgingEntry) error

	// ListMTTRByDate returns the day's MTTR aggregates.
	ListMTTRByDate(ctx context.Context, day time.Time) ([]MTTREntry, error)

	// ListAgingByDate returns the day's aging slab counts.
	ListAgingByDate(ctx context.Context, day time.Time) ([]AgingEntry, error)
}

// InsightsRepo owns exec_insights.
type InsightsRepo interface {
	// ReplaceForDate deletes insights whose created_at falls on the day
	// and inserts the new set in one transaction.
	ReplaceForDate(ctx context.Context, day time.Time, rows []Insight) error

	// ListByDate returns the day's insights, newest first, capped at limit
	// (0 means no cap).
	ListByDate(ctx context.Context, day time.Time, limit int) ([]Insight, error)

	// CountByDate returns the number of insights recorded for the day.
	CountByDate(ctx context.Context, day time.Time) (int64, error)
}

// Repository aggregates all persistence interfaces.
type Repository struct {
	Complaints ComplaintsRepo
	Anomalies  AnomaliesRepo
	Trends     TrendsRepo
	Variations VariationsRepo
	Resolution ResolutionRepo
	Insights   InsightsRepo
}

// HealthCheck represents repository health status.
type HealthCheck struct {
	Healthy        bool           `json:"healthy"`
	Errors         []string       `json:"errors,omitempty"`
	ConnectionPool map[string]int `json:"connection_pool"`
	LastCheck      time.Time      `json:"last_check"`
	ResponseTimeMS int64          `json:"response_time_ms"`
}

// RepositoryHealth provides health monitoring for the persistence layer.
type RepositoryHealth interface {
	// Health returns current repository health status.
	Health(ctx context.Context) HealthCheck

	// Ping tests basic connectivity to the database.
	Ping(ctx context.Context) error

	// Stats returns connection pool statistics.
	Stats(ctx context.Context) map[string]interface{}
}
