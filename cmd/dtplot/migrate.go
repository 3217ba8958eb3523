package main

import (
	"fmt"
	"strconv"

	"github.com/banshee-data/dtplot/internal/db"
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the hits database schema",
	}

	// withDB opens the database without migrating it, runs fn and reports
	// the resulting version.
	withDB := func(fn func(d *db.DB, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			store, err := a.openDB(true)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := fn(store, args); err != nil {
				return err
			}
			version, dirty, err := store.MigrateVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %v)\n", version, dirty)
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  withDB(func(d *db.DB, _ []string) error { return d.MigrateUp() }),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE:  withDB(func(d *db.DB, _ []string) error { return d.MigrateDown() }),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			Args:  cobra.NoArgs,
			RunE:  withDB(func(*db.DB, []string) error { return nil }),
		},
		&cobra.Command{
			Use:   "to [version]",
			Short: "Migrate up or down to a version",
			Args:  cobra.ExactArgs(1),
			RunE: withDB(func(d *db.DB, args []string) error {
				v, err := versionArg(args[0])
				if err != nil {
					return err
				}
				return d.MigrateTo(uint(v))
			}),
		},
		&cobra.Command{
			Use:   "force [version]",
			Short: "Set the schema version without migrating (recovery only)",
			Args:  cobra.ExactArgs(1),
			RunE: withDB(func(d *db.DB, args []string) error {
				v, err := versionArg(args[0])
				if err != nil {
					return err
				}
				return d.MigrateForce(v)
			}),
		},
	)
	return cmd
}

func versionArg(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid version number: %s", s)
	}
	return v, nil
}
