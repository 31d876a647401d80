package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/udisondev/ppather/internal/db"
)

func migrateCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL graph store schema",
	}

	c.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := a.cfg.Database.DSN()
			if err := db.RunMigrations(cmd.Context(), dsn); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}
			v, err := db.MigrationVersion(cmd.Context(), dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
			return nil
		},
	})

	c.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := db.MigrationVersion(cmd.Context(), a.cfg.Database.DSN())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
			return nil
		},
	})
	c.AddCommand(resetMapCmd(a))
	return c
}

// graphDeleter is implemented by graph stores that can drop a whole map.
type graphDeleter interface {
	DeleteGraph(ctx context.Context, mapID int) error
}

func resetMapCmd(a *app) *cobra.Command {
	var mapID int
	c := &cobra.Command{
		Use:   "reset-map",
		Short: "Delete the persisted path graph of one map from the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := openStore(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			d, ok := store.(graphDeleter)
			if !ok {
				return errors.New("no graph store configured")
			}
			if err := d.DeleteGraph(cmd.Context(), mapID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "graph for map %d deleted\n", mapID)
			return nil
		},
	}
	c.Flags().IntVar(&mapID, "map", 0, "map id whose graph is deleted")
	_ = c.MarkFlagRequired("map")
	return c
}
