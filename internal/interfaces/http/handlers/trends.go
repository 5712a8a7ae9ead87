package handlers

import (
	"fmt"
	"net/http"

	"github.com/netopsio/srpulse/internal/domain"
	httpapi "github.com/netopsio/srpulse/internal/interfaces/http"
	"github.com/netopsio/srpulse/internal/persistence"
)

// Trends handles GET /api/v1/trends?date=YYYY-MM-DD&window=30. Window 0 (the
// default) returns every stored window.
func (h *Handlers) Trends(w http.ResponseWriter, r *http.Request) {
	day, ok := h.targetDate(w, r)
	if !ok {
		return
	}

	window := queryInt(r, "window", 0)
	switch window {
	case 0, 7, 14, 30:
	default:
		h.writeError(w, r, http.StatusBadRequest, "invalid_window",
			"window must be one of 7, 14, 30")
		return
	}

	key := fmt.Sprintf("srpulse:trends:%s:%d", day.Format(domain.DateLayout), window)
	h.serveCached(w, r, "trends", key, func() (interface{}, error) {
		rows, err := h.repos.Trends.ListByDate(r.Context(), day, window)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []persistence.Trend{}
		}
		return httpapi.TrendsResponse{
			Date:       day.Format(domain.DateLayout),
			WindowDays: window,
			Count:      len(rows),
			Trends:     rows,
		}, nil
	})
}
