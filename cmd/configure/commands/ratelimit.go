package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/middleware"
	"github.com/benvon/lockin/internal/models"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"
)

// NewRatelimitCmd creates the ratelimit command with list and set subcommands.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Manage the per-client rate limit",
		Long:  "List or update the API rate limit in limiter notation (e.g. 10-S, 100-M).",
	}
	cmd.AddCommand(newRatelimitListCmd())
	cmd.AddCommand(newRatelimitSetCmd())
	return cmd
}

func newRatelimitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the current rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(ctx context.Context, db *database.DB) error {
				c, err := database.NewRatelimitConfigRepository(db).Get(ctx)
				if err != nil {
					return fmt.Errorf("get ratelimit config: %w", err)
				}
				out := cmd.OutOrStdout()
				if c == nil {
					fmt.Fprintf(out, "No rate limit stored; the server will store the default %s on start.\n", middleware.DefaultRate)
					return nil
				}
				fmt.Fprintf(out, "Rate limit: %s\n", c.Rate)
				return nil
			})
		},
	}
}

func validateRate(rate string) (string, error) {
	rate = strings.ToUpper(strings.TrimSpace(rate))
	if rate == "" {
		return "", fmt.Errorf("--rate is required (e.g. 10-S, 100-M)")
	}
	if _, err := limiter.NewRateFromFormatted(rate); err != nil {
		return "", fmt.Errorf("invalid rate %q: %w", rate, err)
	}
	return rate, nil
}

func newRatelimitSetCmd() *cobra.Command {
	var rate string
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the rate limit",
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := validateRate(rate)
			if err != nil {
				return err
			}
			return withDB(cmd, func(ctx context.Context, db *database.DB) error {
				if err := database.NewRatelimitConfigRepository(db).Set(ctx, &models.RatelimitConfig{Rate: normalized}); err != nil {
					return fmt.Errorf("set ratelimit config: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Rate limit updated.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "Rate such as 10-S, 100-M or 1000-H (required)")
	return cmd
}
