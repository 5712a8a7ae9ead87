package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/netopsio/srpulse/internal/domain"
	httpapi "github.com/netopsio/srpulse/internal/interfaces/http"
	"github.com/netopsio/srpulse/internal/persistence"
)

// Variations handles GET /api/v1/variations?date=YYYY-MM-DD&type=DOD. An
// empty type returns all three comparisons.
func (h *Handlers) Variations(w http.ResponseWriter, r *http.Request) {
	day, ok := h.targetDate(w, r)
	if !ok {
		return
	}

	variationType := strings.ToUpper(r.URL.Query().Get("type"))
	switch variationType {
	case "", domain.VariationDOD, domain.VariationWOW, domain.VariationMOM:
	default:
		h.writeError(w, r, http.StatusBadRequest, "invalid_variation_type",
			"type must be one of DOD, WOW, MOM")
		return
	}

	key := fmt.Sprintf("srpulse:variations:%s:%s", day.Format(domain.DateLayout), variationType)
	h.serveCached(w, r, "variations", key, func() (interface{}, error) {
		rows, err := h.repos.Variations.ListByDate(r.Context(), day, variationType)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []persistence.Variation{}
		}
		return httpapi.VariationsResponse{
			Date:          day.Format(domain.DateLayout),
			VariationType: variationType,
			Count:         len(rows),
			Variations:    rows,
		}, nil
	})
}
