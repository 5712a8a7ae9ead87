package db

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/netopsio/srpulse/db/migrations"
)

// MigrateUp applies all pending schema migrations from the embedded catalog
func (m *Manager) MigrateUp(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, m.db.DB, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// MigrateStatus prints the applied/pending state of every migration
func (m *Manager) MigrateStatus(ctx context.Context) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.StatusContext(ctx, m.db.DB, "."); err != nil {
		return fmt.Errorf("failed to report migration status: %w", err)
	}

	return nil
}
