package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/netopsio/srpulse/internal/persistence"
	"github.com/netopsio/srpulse/internal/persistence/postgres"
)

// Config holds database connection configuration
type Config struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
}

// DefaultConfig returns the documented pool defaults
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    5,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		QueryTimeout:    30 * time.Second,
	}
}

// Manager manages the database connection and repository instances
type Manager struct {
	db     *sqlx.DB
	config Config
	repos  *persistence.Repository
	health *healthChecker
}

// NewManager opens the connection pool, verifies connectivity, and builds
// the repository set
func NewManager(config Config) (*Manager, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	db, err := sqlx.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repos := &persistence.Repository{
		Complaints: postgres.NewComplaintsRepo(db, config.QueryTimeout),
		Anomalies:  postgres.NewAnomaliesRepo(db, config.QueryTimeout),
		Trends:     postgres.NewTrendsRepo(db, config.QueryTimeout),
		Variations: postgres.NewVariationsRepo(db, config.QueryTimeout),
		Resolution: postgres.NewResolutionRepo(db, config.QueryTimeout),
		Insights:   postgres.NewInsightsRepo(db, config.QueryTimeout),
	}

	return &Manager{
		db:     db,
		config: config,
		repos:  repos,
		health: &healthChecker{db: db, timeout: config.QueryTimeout},
	}, nil
}

// Repository returns the repository collection
func (m *Manager) Repository() *persistence.Repository {
	return m.repos
}

// Health returns the health checker interface
func (m *Manager) Health() persistence.RepositoryHealth {
	return m.health
}

// DB returns the underlying database connection (for migrations, etc.)
func (m *Manager) DB() *sqlx.DB {
	return m.db
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	return m.db.Close()
}

// healthChecker implements persistence.RepositoryHealth
type healthChecker struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Health returns current repository health status
func (h *healthChecker) Health(ctx context.Context) persistence.HealthCheck {
	start := time.Now()

	pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	var errors []string
	healthy := true

	if err := h.db.PingContext(pingCtx); err != nil {
		errors = append(errors, fmt.Sprintf("ping failed: %v", err))
		healthy = false
	}

	stats := h.db.Stats()
	connectionPool := map[string]int{
		"max_open":      stats.MaxOpenConnections,
		"open":          stats.OpenConnections,
		"in_use":        stats.InUse,
		"idle":          stats.Idle,
		"wait_count":    int(stats.WaitCount),
		"wait_duration": int(stats.WaitDuration.Milliseconds()),
	}

	return persistence.HealthCheck{
		Healthy:        healthy,
		Errors:         errors,
		ConnectionPool: connectionPool,
		LastCheck:      time.Now(),
		ResponseTimeMS: time.Since(start).Milliseconds(),
	}
}

// Ping tests basic connectivity to the database
func (h *healthChecker) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	return h.db.PingContext(pingCtx)
}

// Stats returns connection pool statistics
func (h *healthChecker) Stats(ctx context.Context) map[string]interface{} {
	stats := h.db.Stats()

	return map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}
