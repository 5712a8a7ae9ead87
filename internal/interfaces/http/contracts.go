package http

import (
	"time"

	"github.com/netopsio/srpulse/internal/persistence"
)

// AnomaliesResponse lists one day's Z-score spikes, highest z-score first.
type AnomaliesResponse struct {
	Date      string                `json:"date"`
	Count     int                   `json:"count"`
	Anomalies []persistence.Anomaly `json:"anomalies"`
}

// TrendsResponse lists one day's OLS window results, optionally filtered to a
// single window length.
type TrendsResponse struct {
	Date       string              `json:"date"`
	WindowDays int                 `json:"window_days,omitempty"`
	Count      int                 `json:"count"`
	Trends     []persistence.Trend `json:"trends"`
}

// VariationsResponse lists one day's DoD/WoW/MoM comparisons, optionally
// filtered to a single comparison type.
type VariationsResponse struct {
	Date          string                  `json:"date"`
	VariationType string                  `json:"variation_type,omitempty"`
	Count         int                     `json:"count"`
	Variations    []persistence.Variation `json:"variations"`
}

// InsightsResponse lists one day's executive narratives, newest first.
type InsightsResponse struct {
	Date     string                `json:"date"`
	Count    int                   `json:"count"`
	Insights []persistence.Insight `json:"insights"`
}

// ResolutionResponse carries both resolution read models for one day: MTTR
// aggregates for complaints closed that day and the open-backlog age slabs.
type ResolutionResponse struct {
	Date  string                   `json:"date"`
	MTTR  []persistence.MTTREntry  `json:"mttr"`
	Aging []persistence.AgingEntry `json:"aging"`
}

// SummaryResponse reports row counts across the derived tables for one day.
type SummaryResponse struct {
	Date        string           `json:"date"`
	Tables      map[string]int64 `json:"tables"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// ErrorResponse is the standard error envelope for every non-2xx payload.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
