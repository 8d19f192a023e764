/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	"github.com/urfave/cli/v3"

	"github.com/evesallesleite-cell/lab-site-sub000/db"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const migrationsDir = "migrations"

// CmdMigrate manages the schema of the lab_results fallback table.
var CmdMigrate = newMigrateCommand()

// migrationAction runs against an open connection with goose configured for
// the embedded migrations.
type migrationAction func(ctx context.Context, conn *sql.DB) error

func newMigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create, inspect or roll back the lab_results fallback table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Sources: cli.EnvVars("DATABASE_URL"),
				Usage:   "PostgreSQL connection string holding the fallback tables",
			},
		},
		Commands: []*cli.Command{
			migrationCommand("up", "Apply pending migrations to the fallback tables", migrateUp),
			migrationCommand("down", "Revert the newest fallback table migration", migrateDown),
			migrationCommand("redo", "Revert and reapply the newest fallback table migration", migrateRedo),
			migrationCommand("status", "List applied and pending fallback table migrations", migrateStatus),
			migrationCommand("version", "Log the applied schema version", migrateVersion),
			{
				Name:      "create",
				Usage:     "Add an empty SQL migration to db/migrations",
				ArgsUsage: "<name>",
				Action:    migrateCreate,
			},
		},
	}
}

func migrationCommand(name, usage string, action migrationAction) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			conn, err := openMigrationDB(ctx, cmd.String("database-url"))
			if err != nil {
				return err
			}
			defer closeMigrationDB(conn)

			return action(ctx, conn)
		},
	}
}

func openMigrationDB(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, errDatabaseURLRequired
	}

	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		closeMigrationDB(conn)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetBaseFS(db.GetEmbeddedMigrations())

	if err := goose.SetDialect("postgres"); err != nil {
		closeMigrationDB(conn)
		return nil, fmt.Errorf("failed to set dialect: %w", err)
	}

	return conn, nil
}

func closeMigrationDB(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		appLogger.Warn("Failed to close migration connection", "error", err)
	}
}

func migrateUp(ctx context.Context, conn *sql.DB) error {
	if err := goose.UpContext(ctx, conn, migrationsDir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return logSchemaVersion(ctx, conn, "Fallback tables up to date")
}

func migrateDown(ctx context.Context, conn *sql.DB) error {
	if err := goose.DownContext(ctx, conn, migrationsDir); err != nil {
		return fmt.Errorf("failed to revert migration: %w", err)
	}

	return logSchemaVersion(ctx, conn, "Reverted newest migration")
}

func migrateRedo(ctx context.Context, conn *sql.DB) error {
	if err := goose.RedoContext(ctx, conn, migrationsDir); err != nil {
		return fmt.Errorf("failed to redo migration: %w", err)
	}

	return logSchemaVersion(ctx, conn, "Reapplied newest migration")
}

func migrateStatus(ctx context.Context, conn *sql.DB) error {
	if err := goose.StatusContext(ctx, conn, migrationsDir); err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}

	return nil
}

func migrateVersion(ctx context.Context, conn *sql.DB) error {
	return logSchemaVersion(ctx, conn, "Schema version")
}

func logSchemaVersion(ctx context.Context, conn *sql.DB, msg string) error {
	version, err := goose.GetDBVersionContext(ctx, conn)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	appLogger.Info(msg, "version", version)

	return nil
}

func migrateCreate(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return errMigrationNameRequired
	}

	// Run from the repository root: the file lands next to the embedded ones.
	dir := filepath.Join("db", migrationsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create migrations directory: %w", err)
	}

	goose.SetBaseFS(nil)

	if err := goose.Create(nil, dir, name, "sql"); err != nil {
		return fmt.Errorf("failed to create migration: %w", err)
	}

	appLogger.Info("Created migration", "dir", dir, "name", name)

	return nil
}
