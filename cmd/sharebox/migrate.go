// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sharebox Contributors

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/sharebox/sharebox/internal/config"
	"github.com/sharebox/sharebox/internal/store"
)

// migrator wraps the methods used from store.Migrator.
type migrator interface {
	Up() error
	Down() error
	Version() (version uint, dirty bool, err error)
	PendingMigrations() ([]uint, error)
	Close() error
}

type migratorFactory func(databaseURL string) (migrator, error)

func newStoreMigrator(databaseURL string) (migrator, error) {
	return store.NewMigrator(databaseURL)
}

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	return newMigrateCmd(newStoreMigrator)
}

func newMigrateCmd(factory migratorFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage database migrations",
		Long:  `Apply, roll back or inspect the embedded PostgreSQL schema migrations.`,
	}
	cmd.PersistentFlags().String("database-url", "", "PostgreSQL connection URL (default: $DATABASE_URL)")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, factory, func(m migrator) error {
				cmd.Println("Running migrations...")
				if err := m.Up(); err != nil {
					return oops.With("operation", "run migrations").Wrap(err)
				}
				cmd.Println("Migrations completed successfully")
				return nil
			})
		},
	})

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		Long:  `Roll back every migration. This drops the users, sessions and logins tables.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			yes, err := cmd.Flags().GetBool("yes")
			if err != nil {
				return oops.Wrap(err)
			}
			if !yes {
				return oops.Code("CONFIRMATION_REQUIRED").Errorf("migrate down drops all data; pass --yes to confirm")
			}
			return withMigrator(cmd, factory, func(m migrator) error {
				cmd.Println("Rolling back migrations...")
				if err := m.Down(); err != nil {
					return oops.With("operation", "roll back migrations").Wrap(err)
				}
				cmd.Println("Rollback completed successfully")
				return nil
			})
		},
	}
	down.Flags().Bool("yes", false, "confirm dropping all data")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the applied schema version and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd, factory, func(m migrator) error {
				return printStatus(cmd.OutOrStdout(), m)
			})
		},
	})

	return cmd
}

func withMigrator(cmd *cobra.Command, factory migratorFactory, fn func(m migrator) error) (err error) {
	databaseURL, err := config.LoadDatabaseURL(cmd.Flags(), configFile, os.LookupEnv)
	if err != nil {
		return err
	}

	m, err := factory(databaseURL)
	if err != nil {
		return oops.With("operation", "create migrator").Wrap(err)
	}
	defer func() {
		if closeErr := m.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(m)
}

func printStatus(w io.Writer, m migrator) error {
	version, dirty, err := m.Version()
	if err != nil {
		return oops.With("operation", "read schema version").Wrap(err)
	}
	pending, err := m.PendingMigrations()
	if err != nil {
		return err
	}

	current := "none"
	if version > 0 {
		name, err := store.MigrationName(version)
		if err != nil {
			return err
		}
		current = fmt.Sprintf("%d (%s)", version, name)
	}
	if dirty {
		current += " [dirty]"
	}

	if _, err := fmt.Fprintf(w, "Current version: %s\n", current); err != nil {
		return oops.Wrap(err)
	}
	if len(pending) == 0 {
		_, err = fmt.Fprintln(w, "Pending migrations: none")
		return oops.Wrap(err)
	}
	if _, err := fmt.Fprintf(w, "Pending migrations: %d\n", len(pending)); err != nil {
		return oops.Wrap(err)
	}
	for _, v := range pending {
		name, err := store.MigrationName(v)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "  %s\n", name); err != nil {
			return oops.Wrap(err)
		}
	}
	return nil
}
