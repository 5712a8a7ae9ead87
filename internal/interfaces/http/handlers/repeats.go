package handlers

import (
	"fmt"
	"net/http"

	"github.com/netopsio/srpulse/internal/domain"
)

// Repeats handles GET /api/v1/repeats?date=YYYY-MM-DD&top=100.
func (h *Handlers) Repeats(w http.ResponseWriter, r *http.Request) {
	day, ok := h.targetDate(w, r)
	if !ok {
		return
	}

	top := queryInt(r, "top", 0)
	if top < 0 {
		h.writeError(w, r, http.StatusBadRequest, "invalid_top",
			"top must not be negative")
		return
	}

	key := fmt.Sprintf("srpulse:repeats:%s:%d", day.Format(domain.DateLayout), top)
	h.serveCached(w, r, "repeats", key, func() (interface{}, error) {
		return h.repeats.Classify(r.Context(), day, top)
	})
}
