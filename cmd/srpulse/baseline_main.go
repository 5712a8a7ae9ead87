package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/netopsio/srpulse/internal/baseline"
	"github.com/netopsio/srpulse/internal/domain"
)

// runBaseline rebuilds the rolling baseline artifacts for one target date.
func runBaseline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	day, err := parseTargetDate(cmd)
	if err != nil {
		return err
	}

	manager, err := openManager(cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	log.Info().Str("date", day.Format(domain.DateLayout)).Msg("Rebuilding baselines")

	store := baseline.NewStore(cfg.Baseline.ArtifactDir)
	builder := baseline.NewBuilder(manager.Repository().Complaints, store, cfg.DimensionSet(), cfg.Baseline.Windows)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, buildErr := builder.Run(ctx, day)
	if err := printJSON(result); err != nil {
		return err
	}
	return buildErr
}
