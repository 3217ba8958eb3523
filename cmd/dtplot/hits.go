package main

import (
	"fmt"
	"time"

	"github.com/banshee-data/dtplot/internal/db"
	"github.com/banshee-data/dtplot/internal/geometry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newHitsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hits",
		Short: "Manage recorded cell hits",
	}

	var label string
	importCmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Record the hits of a JSON or YAML file as a new event",
		Long: `Each record names a cell and its values, e.g.
  {"wheel": -2, "sector": 1, "station": 1, "sl": 1, "l": 2, "w": 7, "time": 312.5}`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHitsImport(cmd, args[0], label)
		},
	}
	importCmd.Flags().StringVar(&label, "label", "", "Event label (default: file name)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHitsList(cmd)
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [event-id]",
		Short: "Delete an event and its hits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openDB(false)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.DeleteEvent(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(importCmd, listCmd, deleteCmd)
	return cmd
}

func (a *app) runHitsImport(cmd *cobra.Command, path, label string) error {
	data, err := a.fsys.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read hits: %w", err)
	}
	records, err := geometry.DecodeRecords(path, data)
	if err != nil {
		return err
	}
	hits, err := db.HitsFromRecords(records)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if label == "" {
		label = path
	}

	store, err := a.openDB(false)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.RecordEvent(cmd.Context(), label, hits)
	if err != nil {
		return err
	}
	a.log.Info("imported hits", zap.String("event_id", id), zap.Int("cells", len(hits)))
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

func (a *app) runHitsList(cmd *cobra.Command) error {
	store, err := a.openDB(false)
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := store.ListEvents(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	for _, e := range events {
		fmt.Fprintf(w, "%s  %s  %5d cells  %s\n", e.ID, e.CreatedAt.UTC().Format(time.RFC3339), e.Cells, e.Label)
	}
	return nil
}
