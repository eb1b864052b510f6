// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"codeberg.org/vrmates/accounts/internal/config"
	"codeberg.org/vrmates/accounts/internal/database"
	"github.com/urfave/cli/v3"
)

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			{Name: "up", Usage: "Apply all pending migrations", Action: withDB(database.RunMigrations)},
			{Name: "down", Usage: "Roll back the last migration", Action: withDB(database.MigrateDown)},
			{Name: "reset", Usage: "Roll back all migrations", Action: withDB(database.MigrateReset)},
			{Name: "status", Usage: "Print the current schema version", Action: withDB(func(*sql.DB) error { return nil })},
		},
	}
}

// withDB opens the configured database without migrating it, runs fn and
// prints the resulting schema version.
func withDB(fn func(*sql.DB) error) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		cfg := config.NewFromCLI(cmd)

		db, err := database.Connect(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer func() {
			if closeErr := db.Close(); closeErr != nil {
				slog.Error("failed to close database", "error", closeErr)
			}
		}()

		if err := fn(db.DB); err != nil {
			return fmt.Errorf("%s: %w", cmd.Name, err)
		}

		version, err := database.Version(db.DB)
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
		fmt.Fprintf(cmd.Root().Writer, "database %s at schema version %d\n", cfg.Database.DSN, version)
		return nil
	}
}
