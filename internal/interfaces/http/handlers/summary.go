package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/netopsio/srpulse/internal/domain"
	httpapi "github.com/netopsio/srpulse/internal/interfaces/http"
)

// Summary handles GET /api/v1/summary?date=YYYY-MM-DD, reporting how many
// rows each table carries for the day. Zeroes across the derived tables
// usually mean the pipeline has not run for that date yet.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	day, ok := h.targetDate(w, r)
	if !ok {
		return
	}

	key := fmt.Sprintf("srpulse:summary:%s", day.Format(domain.DateLayout))
	h.serveCached(w, r, "summary", key, func() (interface{}, error) {
		ctx := r.Context()
		tables := make(map[string]int64, 7)

		complaints, err := h.repos.Complaints.CountOn(ctx, day)
		if err != nil {
			return nil, err
		}
		tables["complaints_raw"] = complaints

		anomalies, err := h.repos.Anomalies.CountByDate(ctx, day)
		if err != nil {
			return nil, err
		}
		tables["daily_anomalies"] = anomalies

		trends, err := h.repos.Trends.CountByDate(ctx, day)
		if err != nil {
			return nil, err
		}
		tables["daily_trends"] = trends

		variations, err := h.repos.Variations.CountByDate(ctx, day)
		if err != nil {
			return nil, err
		}
		tables["daily_variations"] = variations

		insights, err := h.repos.Insights.CountByDate(ctx, day)
		if err != nil {
			return nil, err
		}
		tables["exec_insights"] = insights

		mttr, err := h.repos.Resolution.ListMTTRByDate(ctx, day)
		if err != nil {
			return nil, err
		}
		tables["daily_mttr"] = int64(len(mttr))

		aging, err := h.repos.Resolution.ListAgingByDate(ctx, day)
		if err != nil {
			return nil, err
		}
		tables["daily_aging"] = int64(len(aging))

		return httpapi.SummaryResponse{
			Date:        day.Format(domain.DateLayout),
			Tables:      tables,
			GeneratedAt: time.Now().UTC(),
		}, nil
	})
}
