package handlers

import (
	"fmt"
	"net/http"

	"github.com/netopsio/srpulse/internal/domain"
)

const maxSeriesDays = 365

// Series handles GET /api/v1/series?date=YYYY-MM-DD&days=30, the chart feed
// of daily totals and per-facet series over the trailing window.
func (h *Handlers) Series(w http.ResponseWriter, r *http.Request) {
	day, ok := h.targetDate(w, r)
	if !ok {
		return
	}

	days := queryInt(r, "days", 0)
	if days < 0 || days > maxSeriesDays {
		h.writeError(w, r, http.StatusBadRequest, "invalid_days",
			fmt.Sprintf("days must be between 1 and %d", maxSeriesDays))
		return
	}

	key := fmt.Sprintf("srpulse:series:%s:%d", day.Format(domain.DateLayout), days)
	h.serveCached(w, r, "series", key, func() (interface{}, error) {
		return h.charts.Build(r.Context(), day, days)
	})
}
