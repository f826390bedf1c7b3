package cmd

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	pgrepo "rotafacil/internal/adapters/db/postgres"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := migrationsDir
		if dir == "" {
			dir = cfg.Database.Migrations
		}
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := pgrepo.RunMigrations(cmd.Context(), db, dir); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "", "migrations directory (default $KO_DATA_PATH/migrations)")
	rootCmd.AddCommand(migrateCmd)
}
