package main

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/movie-review-api/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

func migrateRunner(dir database.Direction) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		if err := database.Migrate(cfg, dir); err != nil {
			return err
		}
		log.Info("migrations done")
		return nil
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all up migrations",
		RunE:  migrateRunner(database.Up),
	})
	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		RunE:  migrateRunner(database.Down),
	})
}
