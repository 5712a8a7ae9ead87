package handlers

import (
	"fmt"
	"net/http"

	"github.com/netopsio/srpulse/internal/domain"
	httpapi "github.com/netopsio/srpulse/internal/interfaces/http"
	"github.com/netopsio/srpulse/internal/persistence"
)

// Insights handles GET /api/v1/insights?date=YYYY-MM-DD&limit=50. Limit 0
// (the default) returns every insight of the day.
func (h *Handlers) Insights(w http.ResponseWriter, r *http.Request) {
	day, ok := h.targetDate(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 0)
	if limit < 0 {
		h.writeError(w, r, http.StatusBadRequest, "invalid_limit",
			"limit must not be negative")
		return
	}

	key := fmt.Sprintf("srpulse:insights:%s:%d", day.Format(domain.DateLayout), limit)
	h.serveCached(w, r, "insights", key, func() (interface{}, error) {
		rows, err := h.repos.Insights.ListByDate(r.Context(), day, limit)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []persistence.Insight{}
		}
		return httpapi.InsightsResponse{
			Date:     day.Format(domain.DateLayout),
			Count:    len(rows),
			Insights: rows,
		}, nil
	})
}
