package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/netopsio/srpulse/internal/application/pipeline"
	"github.com/netopsio/srpulse/internal/domain"
)

// runPipeline executes the full daily pipeline for one target date.
func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	day, err := parseTargetDate(cmd)
	if err != nil {
		return err
	}

	file, _ := cmd.Flags().GetString("file")
	rebuildBaseline, _ := cmd.Flags().GetBool("baseline")
	noIngest, _ := cmd.Flags().GetBool("no-ingest")

	manager, err := openManager(cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	log.Info().
		Str("date", day.Format(domain.DateLayout)).
		Str("file", file).
		Bool("baseline", rebuildBaseline).
		Msg("Starting pipeline run")

	p := buildPipeline(cfg, manager.Repository())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	result, execErr := p.Execute(ctx, pipeline.Options{
		FilePath:     file,
		TargetDate:   day,
		RunIngestion: file != "" && !noIngest,
		RunBaseline:  rebuildBaseline,
	})
	if result != nil {
		if err := printJSON(result); err != nil {
			return err
		}
	}
	if execErr != nil {
		return execErr
	}
	if result.Status == domain.StatusError {
		return fmt.Errorf("pipeline finished with status %s", result.Status)
	}
	return nil
}
