package persistence

import (
	"time"
)

// Complaint is one normalized service-request row in complaints_raw.
// Text columns are stored as empty strings rather than NULLs so dimension
// grouping never has to special-case SQL NULL.
type Complaint struct {
	SRNumber    string     `json:"sr_number" db:"sr_number"`
	SRRowID     string     `json:"sr_row_id" db:"sr_row_id"`
	MDN         string     `json:"mdn" db:"mdn"`
	RegionID    string     `json:"region_id" db:"region_id"`
	OpenDate    time.Time  `json:"open_date" db:"open_date"`
	OpenTS      time.Time  `json:"open_ts" db:"open_ts"`
	CloseTS     *time.Time `json:"close_ts,omitempty" db:"close_ts"`
	SRDuration  string     `json:"sr_duration" db:"sr_duration"`
	SRType      string     `json:"sr_type" db:"sr_type"`
	SRSubType   string     `json:"sr_sub_type" db:"sr_sub_type"`
	SRStatus    string     `json:"sr_status" db:"sr_status"`
	SRSubStatus string     `json:"sr_sub_status" db:"sr_sub_status"`
	RCA         string     `json:"rca" db:"rca"`
	DescText    string     `json:"desc_text" db:"desc_text"`
	FaultType   string     `json:"fault_type" db:"fault_type"`
	Department  string     `json:"department" db:"department"`
	Region      string     `json:"region" db:"region"`
	City        string     `json:"city" db:"city"`
	ExcID       string     `json:"exc_id" db:"exc_id"`
	CabinetID   string     `json:"cabinet_id" db:"cabinet_id"`
	DPID        string     `json:"dp_id" db:"dp_id"`
	SwitchID    string     `json:"switch_id" db:"switch_id"`
	Product     string     `json:"product" db:"product"`
	SubProduct  string     `json:"sub_product" db:"sub_product"`
	ProductID   string     `json:"product_id" db:"product_id"`
	CustSeg     string     `json:"cust_seg" db:"cust_seg"`
	ServiceType string     `json:"service_type" db:"service_type"`
	Priority    string     `json:"priority" db:"priority"`
}

// Anomaly is one Z-score spike in daily_anomalies. Natural key:
// (anomaly_date, dimension, dimension_key).
type Anomaly struct {
	ID           int64     `json:"id" db:"id"`
	AnomalyDate  time.Time `json:"anomaly_date" db:"anomaly_date"`
	Dimension    string    `json:"dimension" db:"dimension"`
	DimensionKey string    `json:"dimension_key" db:"dimension_key"`
	MetricValue  float64   `json:"metric_value" db:"metric_value"`
	BaselineAvg  float64   `json:"baseline_avg" db:"baseline_avg"`
	BaselineStd  float64   `json:"baseline_std" db:"baseline_std"`
	ZScore       float64   `json:"z_score" db:"z_score"`
	Severity     string    `json:"severity" db:"severity"`
	RCAContext   string    `json:"rca_context,omitempty" db:"rca_context"`
}

// Trend is one OLS window result in daily_trends. Natural key:
// (trend_date, dimension, dimension_key, window_days). Significance is nil
// when the p-value is undefined (constant series).
type Trend struct {
	ID           int64     `json:"id" db:"id"`
	TrendDate    time.Time `json:"trend_date" db:"trend_date"`
	Dimension    string    `json:"dimension" db:"dimension"`
	DimensionKey string    `json:"dimension_key" db:"dimension_key"`
	MetricValue  float64   `json:"metric_value" db:"metric_value"`
	Direction    string    `json:"trend_direction" db:"trend_direction"`
	Strength     float64   `json:"trend_strength" db:"trend_strength"`
	WindowDays   int       `json:"window_days" db:"window_days"`
	Significance *float64  `json:"significance,omitempty" db:"significance"`
}

// Variation is one DoD/WoW/MoM comparison in daily_variations. Natural key:
// (variation_date, dimension, dimension_key, variation_type).
type Variation struct {
	ID               int64     `json:"id" db:"id"`
	VariationDate    time.Time `json:"variation_date" db:"variation_date"`
	Dimension        string    `json:"dimension" db:"dimension"`
	DimensionKey     string    `json:"dimension_key" db:"dimension_key"`
	CurrentValue     float64   `json:"current_value" db:"current_value"`
	PreviousValue    float64   `json:"previous_value" db:"previous_value"`
	VariationType    string    `json:"variation_type" db:"variation_type"`
	VariationPercent float64   `json:"variation_percent" db:"variation_percent"`
	IsSignificant    int       `json:"is_significant" db:"is_significant"`
}

// MTTREntry is one mean-time-to-resolve aggregate in daily_mttr. Natural key:
// (mttr_date, dimension, dimension_key).
type MTTREntry struct {
	ID                 int64     `json:"id" db:"id"`
	MTTRDate           time.Time `json:"mttr_date" db:"mttr_date"`
	Dimension          string    `json:"dimension" db:"dimension"`
	DimensionKey       string    `json:"dimension_key" db:"dimension_key"`
	AvgMTTRHours       float64   `json:"avg_mttr_hours" db:"avg_mttr_hours"`
	TotalResolvedCount int       `json:"total_resolved_count" db:"total_resolved_count"`
}

// AgingEntry is one open-backlog age-slab count in daily_aging. Natural key:
// (aging_date, dimension, dimension_key, slab).
type AgingEntry struct {
	ID           int64     `json:"id" db:"id"`
	AgingDate    time.Time `json:"aging_date" db:"aging_date"`
	Dimension    string    `json:"dimension" db:"dimension"`
	DimensionKey string    `json:"dimension_key" db:"dimension_key"`
	Slab         string    `json:"slab" db:"slab"`
	SRCount      int       `json:"sr_count" db:"sr_count"`
}

// Insight is one executive narrative in exec_insights. CreatedAt carries the
// target date at midnight so re-runs regenerate identical rows.
type Insight struct {
	ID        int64     `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Title     string    `json:"title" db:"title"`
	Summary   string    `json:"summary" db:"summary"`
	Severity  string    `json:"severity" db:"severity"`
}

// KeyCount is a (dimension key, row count) pair for one day.
type KeyCount struct {
	Key   string `json:"key" db:"key"`
	Count int64  `json:"count" db:"n"`
}

// DayCount is a (day, row count) pair.
type DayCount struct {
	Day   time.Time `json:"day" db:"day"`
	Count int64     `json:"count" db:"n"`
}

// KeyDayCount is a per-key per-day count used by baselines, trends,
// correlations, and chart series.
type KeyDayCount struct {
	Key   string    `json:"key" db:"key"`
	Day   time.Time `json:"day" db:"day"`
	Count int64     `json:"count" db:"n"`
}

// GeoDayCount is a per-(region, exchange, city) per-day count. Surge levels
// aggregate upward from this one shape.
type GeoDayCount struct {
	Region string    `json:"region" db:"region"`
	ExcID  string    `json:"exc_id" db:"exc_id"`
	City   string    `json:"city" db:"city"`
	Day    time.Time `json:"day" db:"day"`
	Count  int64     `json:"count" db:"n"`
}

// RCABreakdown holds the non-empty RCA frequencies inside one anomaly scope
// together with the scope's full row count (the percentage denominator).
type RCABreakdown struct {
	ScopeTotal int64      `json:"scope_total"`
	Items      []KeyCount `json:"items"`
}

// RepeatRow is the projection the repeat classifier works from.
type RepeatRow struct {
	MDN       string    `json:"mdn" db:"mdn"`
	Region    string    `json:"region" db:"region"`
	ExcID     string    `json:"exc_id" db:"exc_id"`
	City      string    `json:"city" db:"city"`
	SRSubType string    `json:"sr_sub_type" db:"sr_sub_type"`
	OpenTS    time.Time `json:"open_ts" db:"open_ts"`
}

// ResolvedRow is one complaint closed on the target date with its
// resolution time in hours.
type ResolvedRow struct {
	Region string  `json:"region" db:"region"`
	City   string  `json:"city" db:"city"`
	ExcID  string  `json:"exc_id" db:"exc_id"`
	Hours  float64 `json:"hours" db:"hours"`
}

// OpenRow is one complaint still open at the aging reference instant.
type OpenRow struct {
	Region string    `json:"region" db:"region"`
	City   string    `json:"city" db:"city"`
	ExcID  string    `json:"exc_id" db:"exc_id"`
	OpenTS time.Time `json:"open_ts" db:"open_ts"`
}

// QualityRow is the projection the data-quality validator inspects.
type QualityRow struct {
	SRRowID  string    `json:"sr_row_id" db:"sr_row_id"`
	OpenTS   time.Time `json:"open_ts" db:"open_ts"`
	Region   string    `json:"region" db:"region"`
	SRType   string    `json:"sr_type" db:"sr_type"`
	RCA      string    `json:"rca" db:"rca"`
	SRStatus string    `json:"sr_status" db:"sr_status"`
}

// ContextUpdate rewrites one anomaly's rca_context by row id.
type ContextUpdate struct {
	ID         int64  `json:"id"`
	RCAContext string `json:"rca_context"`
}

// SeverityUpdate rewrites one anomaly's severity by row id.
type SeverityUpdate struct {
	ID       int64  `json:"id"`
	Severity string `json:"severity"`
}
