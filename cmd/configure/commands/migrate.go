package commands

import (
	"fmt"

	"github.com/benvon/lockin/internal/config"
	"github.com/benvon/lockin/internal/database"
	"github.com/spf13/cobra"
)

// NewMigrateCmd manages the embedded schema migrations.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or inspect schema migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDatabaseOnly()
			if err != nil {
				return err
			}
			if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			cfg, err := config.LoadDatabaseOnly()
			if err != nil {
				return err
			}
			if err := database.RollbackMigrations(cfg.DatabaseURL, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s).\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDatabaseOnly()
			if err != nil {
				return err
			}
			version, dirty, err := database.MigrationVersion(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Version: %d (dirty: %v)\n", version, dirty)
			return nil
		},
	})

	return cmd
}
