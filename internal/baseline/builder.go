package baseline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/domain/stats"
	"github.com/netopsio/srpulse/internal/persistence"
)

// historyDays is how far back the builder fetches. Wide enough for the
// largest window plus the excluded target day.
const historyDays = 35

// CountsReader is the slice of the complaints repository the builder needs.
type CountsReader interface {
	KeyCountsRange(ctx context.Context, dim domain.Dimension, from, to time.Time) ([]persistence.KeyDayCount, error)
}

// Builder computes per-dimension rolling baselines from daily complaint
// counts. The target day itself is always excluded, so a spike on D can
// never inflate its own baseline.
type Builder struct {
	repo    CountsReader
	store   *Store
	dims    []domain.Dimension
	windows []int
}

func NewBuilder(repo CountsReader, store *Store, dims []domain.Dimension, windows []int) *Builder {
	return &Builder{repo: repo, store: store, dims: dims, windows: windows}
}

// Run rebuilds the baseline artifact of every dimension for the target day.
// Dimensions fan out concurrently; one with no history at all becomes a
// warning and keeps its previous artifact.
func (b *Builder) Run(ctx context.Context, day time.Time) (domain.StageResult, error) {
	day = domain.Midnight(day)
	from := day.AddDate(0, 0, -historyDays)
	to := day.AddDate(0, 0, -1)
	start := time.Now()

	empty := make([]string, len(b.dims))
	keyCounts := make([]int, len(b.dims))

	g, gctx := errgroup.WithContext(ctx)
	for i, dim := range b.dims {
		g.Go(func() error {
			rows, err := b.repo.KeyCountsRange(gctx, dim, from, to)
			if err != nil {
				return &domain.StoreError{Op: "baseline counts " + dim.Name, Err: err}
			}
			if len(rows) == 0 {
				warn := &domain.EmptyWindowWarning{Dimension: dim.Name, From: from, To: to}
				log.Warn().Str("dimension", dim.Name).Msg(warn.Error())
				empty[i] = dim.Name
				return nil
			}

			snap := b.buildSnapshot(dim, day, rows)
			if err := b.store.Write(snap); err != nil {
				return err
			}
			keyCounts[i] = len(snap.Rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Errorf("baseline build failed: %v", err), err
	}

	res := domain.Success(fmt.Sprintf("baselines rebuilt for %d dimensions", len(b.dims)))
	var skipped []string
	for i, dim := range b.dims {
		if empty[i] != "" {
			skipped = append(skipped, empty[i])
			continue
		}
		res = res.WithCount("keys_"+strings.ToLower(dim.Name), keyCounts[i])
	}
	if len(skipped) > 0 {
		res = domain.Warning(fmt.Sprintf("no history for %s", strings.Join(skipped, ", ")))
		res = res.WithDiagnostic("empty_dimensions", skipped)
		for i, dim := range b.dims {
			if empty[i] == "" {
				res = res.WithCount("keys_"+strings.ToLower(dim.Name), keyCounts[i])
			}
		}
	}

	log.Info().
		Str("target_date", day.Format(domain.DateLayout)).
		Int("dimensions", len(b.dims)).
		Strs("empty", skipped).
		Dur("elapsed", time.Since(start)).
		Msg("Baseline build complete")
	return res, nil
}

// buildSnapshot folds per-key per-day counts into the window triples. Only
// days that actually have data contribute samples; absent days are absent,
// not zeros.
func (b *Builder) buildSnapshot(dim domain.Dimension, day time.Time, rows []persistence.KeyDayCount) *Snapshot {
	perKey := make(map[string]map[time.Time]float64)
	var keys []string
	for _, r := range rows {
		d := domain.Midnight(r.Day)
		byDay, ok := perKey[r.Key]
		if !ok {
			byDay = make(map[time.Time]float64)
			perKey[r.Key] = byDay
			keys = append(keys, r.Key)
		}
		byDay[d] = float64(r.Count)
	}
	sort.Strings(keys)

	out := make([]Row, 0, len(keys))
	for _, k := range keys {
		row := Row{DimensionKey: k}
		for _, w := range b.windows {
			var vals []float64
			for d := day.AddDate(0, 0, -w); d.Before(day); d = d.AddDate(0, 0, 1) {
				if v, ok := perKey[k][d]; ok {
					vals = append(vals, v)
				}
			}
			avg := stats.Mean(vals)
			row.setWindow(w, avg, stats.StdDev(vals, avg), len(vals))
		}
		out = append(out, row)
	}

	return &Snapshot{
		Dimension:   dim.Name,
		TargetDate:  day.Format(domain.DateLayout),
		GeneratedAt: time.Now().UTC(),
		Rows:        out,
	}
}
