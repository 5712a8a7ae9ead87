package http

import (
	"runtime"
	"time"

	"github.com/netopsio/srpulse/internal/persistence"
)

// Health status values reported by /health.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthResponse is the /health payload: overall status plus the component
// checks it was derived from.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`

	System   SystemInfo              `json:"system"`
	Database persistence.HealthCheck `json:"database"`
	Checks   map[string]CheckResult  `json:"checks"`
}

// SystemInfo provides system-level information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	MemAlloc      uint64 `json:"mem_alloc_bytes"`
	MemSys        uint64 `json:"mem_sys_bytes"`
	NumGC         uint32 `json:"num_gc"`
}

// CheckResult represents individual health check results
type CheckResult struct {
	Status    string        `json:"status"` // "pass", "warn", "fail"
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	Timestamp time.Time     `json:"timestamp"`
}

// CollectSystemInfo captures runtime statistics for the health payload.
func CollectSystemInfo() SystemInfo {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		MemAlloc:      memStats.Alloc,
		MemSys:        memStats.Sys,
		NumGC:         memStats.NumGC,
	}
}

// OverallStatus folds component checks into one status. A failed database
// check is unhealthy; any other failure or warning degrades.
func OverallStatus(dbHealthy bool, checks map[string]CheckResult) string {
	if !dbHealthy {
		return StatusUnhealthy
	}
	for _, c := range checks {
		if c.Status == "fail" || c.Status == "warn" {
			return StatusDegraded
		}
	}
	return StatusHealthy
}
