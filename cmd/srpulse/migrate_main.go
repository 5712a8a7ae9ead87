package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// runMigrate applies (or reports) the embedded schema migrations.
func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	manager, err := openManager(cfg)
	if err != nil {
		return err
	}
	defer manager.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if statusOnly, _ := cmd.Flags().GetBool("status"); statusOnly {
		return manager.MigrateStatus(ctx)
	}
	return manager.MigrateUp(ctx)
}
