package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/netopsio/srpulse/internal/domain"
	httpapi "github.com/netopsio/srpulse/internal/interfaces/http"
	"github.com/netopsio/srpulse/internal/persistence"
	"github.com/netopsio/srpulse/internal/repeat"
	"github.com/netopsio/srpulse/internal/series"
	"github.com/netopsio/srpulse/internal/surge"
)

// Deps wires the read models behind the API. Breaker, cache, and metrics may
// be nil; the handlers degrade to direct reads.
type Deps struct {
	Repos   *persistence.Repository
	Health  persistence.RepositoryHealth
	Surges  *surge.Detector
	Repeats *repeat.Classifier
	Charts  *series.Builder
	Breaker *httpapi.StoreBreaker
	Cache   *httpapi.ResponseCache
	Metrics *httpapi.MetricsRegistry
}

// Handlers manages all HTTP endpoint handlers
type Handlers struct {
	repos   *persistence.Repository
	health  persistence.RepositoryHealth
	surges  *surge.Detector
	repeats *repeat.Classifier
	charts  *series.Builder
	breaker *httpapi.StoreBreaker
	cache   *httpapi.ResponseCache
	metrics *httpapi.MetricsRegistry
	started time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		repos:   deps.Repos,
		health:  deps.Health,
		surges:  deps.Surges,
		repeats: deps.Repeats,
		charts:  deps.Charts,
		breaker: deps.Breaker,
		cache:   deps.Cache,
		metrics: deps.Metrics,
		started: time.Now(),
	}
}

// writeJSON writes JSON response with proper error handling
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Fallback error response
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
	}
}

// writeError writes standardized error response
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	errorResp := httpapi.ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: httpapi.RequestIDFromContext(r.Context()),
		Timestamp: time.Now().UTC(),
	}

	h.writeJSON(w, status, errorResp)
}

// writeStoreError maps a read failure to 503 when the breaker rejected the
// call and 500 otherwise.
func (h *Handlers) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		h.writeError(w, r, http.StatusServiceUnavailable, "store_unavailable",
			"The store circuit breaker is open; retry shortly")
		return
	}
	h.writeError(w, r, http.StatusInternalServerError, "store_query_failed", err.Error())
}

// NotFound handles 404 responses
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	h.writeError(w, r, http.StatusNotFound, "endpoint_not_found",
		"The requested endpoint does not exist")
}

// targetDate resolves the ?date= query parameter. Absence means yesterday,
// the most recent complete day. The bool is false when the value is
// malformed and an error response has already been written.
func (h *Handlers) targetDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return domain.Yesterday(time.Now()), true
	}
	day, err := domain.ParseDate(raw)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_date",
			"date must be formatted YYYY-MM-DD")
		return time.Time{}, false
	}
	return day, true
}

// queryInt parses an optional integer query parameter, returning fallback
// when absent or unparseable.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return fallback
}

// serveCached runs a read-model load through the response cache and the
// store breaker. Cache hits return the stored body verbatim; misses load,
// store, and serve.
func (h *Handlers) serveCached(w http.ResponseWriter, r *http.Request, cacheType, key string, load func() (interface{}, error)) {
	ctx := r.Context()

	if body, ok := h.cache.Get(ctx, key); ok {
		if h.metrics != nil {
			h.metrics.RecordCacheHit(cacheType)
		}
		w.WriteHeader(http.StatusOK)
		w.Write(body)
		return
	}
	if h.metrics != nil {
		h.metrics.RecordCacheMiss(cacheType)
	}

	payload, err := h.breaker.Execute(load)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, "json_encoding_failed", err.Error())
		return
	}

	h.cache.Set(ctx, key, body)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
