// Package commands implements lockin-configure, the operator tool for the
// settings the API server reads from PostgreSQL.
package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/lockin/internal/config"
	"github.com/benvon/lockin/internal/database"
	"github.com/spf13/cobra"
)

const commandTimeout = 30 * time.Second

// NewRootCmd assembles every configure subcommand.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lockin-configure",
		Short:         "Configuration tool for the lockin API",
		Long:          "Manage OIDC providers, CORS, rate limits and schema migrations stored in PostgreSQL.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(NewOIDCCmd())
	root.AddCommand(NewListCmd())
	root.AddCommand(NewTestCmd())
	root.AddCommand(NewCorsCmd())
	root.AddCommand(NewRatelimitCmd())
	root.AddCommand(NewMigrateCmd())
	return root
}

// withDB opens the database named by DATABASE_URL for the duration of fn.
func withDB(cmd *cobra.Command, fn func(ctx context.Context, db *database.DB) error) error {
	cfg, err := config.LoadDatabaseOnly()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to close database: %v\n", err)
		}
	}()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()
	return fn(ctx, db)
}
