package handlers

import (
	"fmt"
	"net/http"

	"github.com/netopsio/srpulse/internal/domain"
	httpapi "github.com/netopsio/srpulse/internal/interfaces/http"
	"github.com/netopsio/srpulse/internal/persistence"
)

// Resolution handles GET /api/v1/resolution?date=YYYY-MM-DD, returning the
// day's MTTR aggregates and open-backlog aging slabs together.
func (h *Handlers) Resolution(w http.ResponseWriter, r *http.Request) {
	day, ok := h.targetDate(w, r)
	if !ok {
		return
	}

	key := fmt.Sprintf("srpulse:resolution:%s", day.Format(domain.DateLayout))
	h.serveCached(w, r, "resolution", key, func() (interface{}, error) {
		mttr, err := h.repos.Resolution.ListMTTRByDate(r.Context(), day)
		if err != nil {
			return nil, err
		}
		aging, err := h.repos.Resolution.ListAgingByDate(r.Context(), day)
		if err != nil {
			return nil, err
		}
		if mttr == nil {
			mttr = []persistence.MTTREntry{}
		}
		if aging == nil {
			aging = []persistence.AgingEntry{}
		}
		return httpapi.ResolutionResponse{
			Date:  day.Format(domain.DateLayout),
			MTTR:  mttr,
			Aging: aging,
		}, nil
	})
}
