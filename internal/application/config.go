package application

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/netopsio/srpulse/internal/domain"
)

// PipelineConfig is the single typed configuration object for the analytics
// pipeline. Stages read fields, never raw string keys, and every threshold
// carries a documented default so the engine runs without a config file.
type PipelineConfig struct {
	Thresholds ThresholdsConfig `yaml:"thresholds"`
	Baseline   BaselineConfig   `yaml:"baseline"`
	Database   DatabaseConfig   `yaml:"database"`
	Dimensions []string         `yaml:"dimensions"`
	Server     ServerConfig     `yaml:"server"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ThresholdsConfig gates anomaly, trend, variation, surge, and severity logic.
type ThresholdsConfig struct {
	ZScoreWarning             float64 `yaml:"z_score_warning"`
	ZScoreCritical            float64 `yaml:"z_score_critical"`
	TrendSignificance         float64 `yaml:"trend_significance"`
	VariationThresholdPercent float64 `yaml:"variation_threshold_percent"`
	SurgeAlarming             float64 `yaml:"surge_alarming"`
	SurgeCritical             float64 `yaml:"surge_critical"`
	WidespreadRegionCount     int     `yaml:"widespread_region_count"`
}

// BaselineConfig controls the rolling windows and artifact placement.
type BaselineConfig struct {
	Windows     []int  `yaml:"windows"`
	ArtifactDir string `yaml:"artifact_dir"`
}

// DatabaseConfig sizes the shared connection pool.
type DatabaseConfig struct {
	PoolSize            int `yaml:"pool_size"`
	ConnRecycleSeconds  int `yaml:"conn_recycle_seconds"`
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds"`
}

// ConnRecycle returns the pool connection recycle interval.
func (d DatabaseConfig) ConnRecycle() time.Duration {
	return time.Duration(d.ConnRecycleSeconds) * time.Second
}

// QueryTimeout returns the per-query context timeout.
func (d DatabaseConfig) QueryTimeout() time.Duration {
	return time.Duration(d.QueryTimeoutSeconds) * time.Second
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Host         string  `yaml:"host"`
	Port         int     `yaml:"port"`
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
	RedisAddr    string  `yaml:"redis_addr"`
}

// WatchConfig configures the spool-directory watcher.
type WatchConfig struct {
	SettleSeconds int `yaml:"settle_seconds"`
}

// DefaultPipelineConfig returns the documented defaults.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		Thresholds: ThresholdsConfig{
			ZScoreWarning:             2.0,
			ZScoreCritical:            3.0,
			TrendSignificance:         0.05,
			VariationThresholdPercent: 15.0,
			SurgeAlarming:             20.0,
			SurgeCritical:             50.0,
			WidespreadRegionCount:     3,
		},
		Baseline: BaselineConfig{
			Windows:     []int{7, 14, 30},
			ArtifactDir: "data/baselines",
		},
		Database: DatabaseConfig{
			PoolSize:            5,
			ConnRecycleSeconds:  3600,
			QueryTimeoutSeconds: 30,
		},
		Dimensions: []string{"Type", "Region", "Exchange", "City", "RCA"},
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			RateLimitRPS: 20,
		},
		Watch: WatchConfig{
			SettleSeconds: 2,
		},
	}
}

// LoadPipelineConfig loads and validates the pipeline configuration. Fields
// the file omits keep their defaults.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config: %w", err)
	}

	config := DefaultPipelineConfig()
	if err := yaml.Unmarshal(b, config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pipeline config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline config validation failed: %w", err)
	}

	return config, nil
}

// Validate checks if the pipeline configuration is valid.
func (c *PipelineConfig) Validate() error {
	t := c.Thresholds
	if t.ZScoreWarning <= 0 || t.ZScoreCritical <= 0 {
		return fmt.Errorf("z-score thresholds must be positive, got warning=%.2f critical=%.2f", t.ZScoreWarning, t.ZScoreCritical)
	}
	if t.ZScoreCritical < t.ZScoreWarning {
		return fmt.Errorf("z_score_critical %.2f below z_score_warning %.2f", t.ZScoreCritical, t.ZScoreWarning)
	}
	if t.TrendSignificance <= 0 || t.TrendSignificance >= 1 {
		return fmt.Errorf("trend_significance must be in (0,1), got %.3f", t.TrendSignificance)
	}
	if t.SurgeCritical < t.SurgeAlarming {
		return fmt.Errorf("surge_critical %.1f below surge_alarming %.1f", t.SurgeCritical, t.SurgeAlarming)
	}
	if t.WidespreadRegionCount < 1 {
		return fmt.Errorf("widespread_region_count must be at least 1, got %d", t.WidespreadRegionCount)
	}

	if len(c.Baseline.Windows) == 0 {
		return fmt.Errorf("baseline windows must not be empty")
	}
	for _, w := range c.Baseline.Windows {
		if w < 2 {
			return fmt.Errorf("baseline window %d too small, need at least 2 days", w)
		}
		if w != 7 && w != 14 && w != 30 {
			return fmt.Errorf("unsupported baseline window %d, artifacts carry 7/14/30", w)
		}
	}

	if c.Database.PoolSize < 1 {
		return fmt.Errorf("database pool_size must be at least 1, got %d", c.Database.PoolSize)
	}

	if len(c.Dimensions) == 0 {
		return fmt.Errorf("at least one analytical dimension is required")
	}
	for _, name := range c.Dimensions {
		if _, ok := domain.DimensionByName(name); !ok {
			return fmt.Errorf("unknown dimension %q", name)
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	return nil
}

// DimensionSet resolves the configured dimension names in declaration order.
func (c *PipelineConfig) DimensionSet() []domain.Dimension {
	dims := make([]domain.Dimension, 0, len(c.Dimensions))
	for _, name := range c.Dimensions {
		if d, ok := domain.DimensionByName(name); ok {
			dims = append(dims, d)
		}
	}
	return dims
}

// ResolveDSN builds the Postgres DSN from the environment. PG_DSN wins
// outright; otherwise the discrete DB_* variables are composed, matching the
// deployment convention on operator boxes.
func ResolveDSN() string {
	if dsn := os.Getenv("PG_DSN"); dsn != "" {
		return dsn
	}

	host := envOr("DB_HOST", "localhost")
	port := envOr("DB_PORT", "5432")
	user := envOr("DB_USER", "postgres")
	name := envOr("DB_NAME", "complaints_db")

	dsn := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable", host, port, user, name)
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		dsn += " password=" + pass
	}
	return dsn
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
