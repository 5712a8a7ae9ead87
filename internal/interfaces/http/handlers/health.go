package handlers

import (
	"net/http"
	"time"

	httpapi "github.com/netopsio/srpulse/internal/interfaces/http"
	"github.com/netopsio/srpulse/internal/persistence"
)

// Health handles GET /health. The database check drives the overall status;
// cache and breaker state can only degrade it.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := time.Now().UTC()
	checks := make(map[string]httpapi.CheckResult)

	dbHealth := persistence.HealthCheck{Healthy: false, LastCheck: now}
	if h.health != nil {
		dbHealth = h.health.Health(ctx)
	}
	dbStatus := "pass"
	dbMessage := "database reachable"
	if !dbHealth.Healthy {
		dbStatus = "fail"
		dbMessage = "database unreachable"
	}
	checks["database"] = httpapi.CheckResult{
		Status:    dbStatus,
		Message:   dbMessage,
		Duration:  time.Duration(dbHealth.ResponseTimeMS) * time.Millisecond,
		Timestamp: now,
	}

	if h.cache != nil {
		cacheStart := time.Now()
		if err := h.cache.Ping(ctx); err != nil {
			// Redis is optional, so a dead cache only warns.
			checks["cache"] = httpapi.CheckResult{
				Status:    "warn",
				Message:   "response cache unavailable: " + err.Error(),
				Duration:  time.Since(cacheStart),
				Timestamp: now,
			}
		} else {
			checks["cache"] = httpapi.CheckResult{
				Status:    "pass",
				Message:   "response cache reachable",
				Duration:  time.Since(cacheStart),
				Timestamp: now,
			}
		}
	}

	breakerStatus := "pass"
	state := h.breaker.State()
	if state != "closed" {
		breakerStatus = "warn"
	}
	checks["store_breaker"] = httpapi.CheckResult{
		Status:    breakerStatus,
		Message:   "circuit breaker " + state,
		Timestamp: now,
	}

	response := httpapi.HealthResponse{
		Status:    httpapi.OverallStatus(dbHealth.Healthy, checks),
		Timestamp: now,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		System:    httpapi.CollectSystemInfo(),
		Database:  dbHealth,
		Checks:    checks,
	}

	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	status := http.StatusOK
	if response.Status == httpapi.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, response)
}
