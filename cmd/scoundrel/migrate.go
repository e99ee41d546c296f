package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/davrodpin/scoundrel/internal/config"
)

func runMigrate(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	switch cfg.StoreDriver {
	case config.DriverSQLite, config.DriverPostgres:
	default:
		return fmt.Errorf("store driver %q has no migrations", cfg.StoreDriver)
	}

	logger := slog.New(slog.NewJSONHandler(cmd.OutOrStdout(), &slog.HandlerOptions{Level: cfg.LogLevel}))

	// Opening a SQL backend applies pending migrations.
	be, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	be.close()

	cmd.Println("Migrations completed successfully")
	return nil
}
