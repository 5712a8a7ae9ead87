package handlers

import (
	"fmt"
	"net/http"

	"github.com/netopsio/srpulse/internal/domain"
	httpapi "github.com/netopsio/srpulse/internal/interfaces/http"
	"github.com/netopsio/srpulse/internal/persistence"
)

// Anomalies handles GET /api/v1/anomalies?date=YYYY-MM-DD
func (h *Handlers) Anomalies(w http.ResponseWriter, r *http.Request) {
	day, ok := h.targetDate(w, r)
	if !ok {
		return
	}

	key := fmt.Sprintf("srpulse:anomalies:%s", day.Format(domain.DateLayout))
	h.serveCached(w, r, "anomalies", key, func() (interface{}, error) {
		rows, err := h.repos.Anomalies.ListByDate(r.Context(), day)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []persistence.Anomaly{}
		}
		return httpapi.AnomaliesResponse{
			Date:      day.Format(domain.DateLayout),
			Count:     len(rows),
			Anomalies: rows,
		}, nil
	})
}
