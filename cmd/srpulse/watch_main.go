package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/netopsio/srpulse/internal/domain"
	"github.com/netopsio/srpulse/internal/watch"
)

// runWatch supervises a spool directory and pipelines every new export.
func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dir, _ := cmd.Flags().GetString("dir")
	rebuildBaseline, _ := cmd.Flags().GetBool("baseline")

	opts := watch.Options{
		Dir:         dir,
		SettleDelay: time.Duration(cfg.Watch.SettleSeconds) * time.Second,
		RunBaseline: rebuildBaseline,
	}
	if raw, _ := cmd.Flags().GetString("date"); raw != "" {
		day, err := domain.ParseDate(raw)
		if err != nil {
			return err
		}
		opts.FixedDate = day
	}

	manager, err := openManager(cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	watcher, err := watch.New(buildPipeline(cfg, manager.Repository()), opts)
	if err != nil {
		return err
	}
	defer watcher.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := watcher.Run(ctx); err != nil {
		return err
	}
	log.Info().Msg("Watcher stopped")
	return nil
}
