package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/netopsio/srpulse/internal/ingest"
)

// runIngest loads one export without running the analytics stages.
func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	file, _ := cmd.Flags().GetString("file")

	manager, err := openManager(cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	log.Info().Str("file", file).Msg("Starting ingestion")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, ingErr := ingest.New(manager.Repository().Complaints).IngestFile(ctx, file)
	if err := printJSON(result); err != nil {
		return err
	}
	return ingErr
}
