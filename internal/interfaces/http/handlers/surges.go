package handlers

import (
	"fmt"
	"net/http"

	"github.com/netopsio/srpulse/internal/domain"
)

// Surges handles GET /api/v1/surges?date=YYYY-MM-DD. The report is computed
// on demand from the raw table rather than persisted, so the response cache
// carries most of the load.
func (h *Handlers) Surges(w http.ResponseWriter, r *http.Request) {
	day, ok := h.targetDate(w, r)
	if !ok {
		return
	}

	key := fmt.Sprintf("srpulse:surges:%s", day.Format(domain.DateLayout))
	h.serveCached(w, r, "surges", key, func() (interface{}, error) {
		return h.surges.Detect(r.Context(), day)
	})
}
