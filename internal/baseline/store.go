// Package baseline computes rolling per-key complaint-count baselines and
// persists them as per-dimension JSON artifacts for the anomaly detector.
package baseline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/netopsio/srpulse/internal/domain"
)

// Row holds one dimension key's mean, sample deviation, and observed-day
// count for each rolling window. Keys with no data inside a window carry
// zeros for that window.
type Row struct {
	DimensionKey string  `json:"dimension_key"`
	Avg7d        float64 `json:"avg_7d"`
	Std7d        float64 `json:"std_7d"`
	Samples7d    int     `json:"samples_7d"`
	Avg14d       float64 `json:"avg_14d"`
	Std14d       float64 `json:"std_14d"`
	Samples14d   int     `json:"samples_14d"`
	Avg30d       float64 `json:"avg_30d"`
	Std30d       float64 `json:"std_30d"`
	Samples30d   int     `json:"samples_30d"`
}

func (r *Row) setWindow(days int, avg, std float64, samples int) {
	switch days {
	case 7:
		r.Avg7d, r.Std7d, r.Samples7d = avg, std, samples
	case 14:
		r.Avg14d, r.Std14d, r.Samples14d = avg, std, samples
	case 30:
		r.Avg30d, r.Std30d, r.Samples30d = avg, std, samples
	}
}

// Window returns the (avg, std, samples) triple for a window size.
func (r Row) Window(days int) (float64, float64, int) {
	switch days {
	case 7:
		return r.Avg7d, r.Std7d, r.Samples7d
	case 14:
		return r.Avg14d, r.Std14d, r.Samples14d
	case 30:
		return r.Avg30d, r.Std30d, r.Samples30d
	}
	return 0, 0, 0
}

// Snapshot is one dimension's baseline artifact.
type Snapshot struct {
	Dimension   string    `json:"dimension"`
	TargetDate  string    `json:"target_date"`
	GeneratedAt time.Time `json:"generated_at"`
	Rows        []Row     `json:"rows"`
}

// Index returns the rows keyed by dimension key.
func (s *Snapshot) Index() map[string]Row {
	idx := make(map[string]Row, len(s.Rows))
	for _, r := range s.Rows {
		idx[r.DimensionKey] = r
	}
	return idx
}

// Store reads and writes baseline artifacts under one directory.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the artifact location for a dimension.
func (s *Store) Path(dimension string) string {
	name := fmt.Sprintf("baseline_%s_daily.json", strings.ToLower(dimension))
	return filepath.Join(s.dir, name)
}

// Write persists a snapshot atomically: the JSON lands in a temp file that
// is renamed over the target, so a crashed run never leaves a torn artifact.
func (s *Store) Write(snap *Snapshot) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal baseline snapshot: %w", err)
	}

	path := s.Path(snap.Dimension)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write baseline snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to publish baseline snapshot: %w", err)
	}
	return nil
}

// Read loads a dimension's snapshot. A missing artifact is reported as
// MissingBaselineError so callers can skip the dimension.
func (s *Store) Read(dimension string) (*Snapshot, error) {
	path := s.Path(dimension)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &domain.MissingBaselineError{Dimension: dimension, Path: path}
		}
		return nil, fmt.Errorf("failed to read baseline snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal baseline snapshot %s: %w", path, err)
	}
	return &snap, nil
}
