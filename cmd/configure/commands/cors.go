package commands

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/models"
	"github.com/spf13/cobra"
)

// NewCorsCmd creates the cors command with list and set subcommands.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Manage CORS configuration",
		Long:  "List or update the origins allowed to call the API. The server reloads them every minute.",
	}
	cmd.AddCommand(newCorsListCmd())
	cmd.AddCommand(newCorsSetCmd())
	return cmd
}

func newCorsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the current CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(ctx context.Context, db *database.DB) error {
				c, err := database.NewCorsConfigRepository(db).Get(ctx)
				if err != nil {
					return fmt.Errorf("get cors config: %w", err)
				}
				out := cmd.OutOrStdout()
				if c == nil {
					fmt.Fprintln(out, "No CORS configuration stored; the server falls back to FRONTEND_URL.")
					return nil
				}
				fmt.Fprintln(out, "CORS configuration:")
				fmt.Fprintf(out, "  Allowed origins:   %s\n", c.AllowedOrigins)
				fmt.Fprintf(out, "  Allow credentials: %v\n", c.AllowCredentials)
				fmt.Fprintf(out, "  Max-Age:           %d\n", c.MaxAge)
				return nil
			})
		},
	}
}

// normalizeOrigins checks every comma-separated origin is an absolute
// http(s) origin without a path and returns them joined again.
func normalizeOrigins(raw string) (string, error) {
	origins := database.AllowedOriginsSlice(raw)
	if len(origins) == 0 {
		return "", fmt.Errorf("--origins is required (comma-separated list)")
	}
	for _, o := range origins {
		if o == "*" {
			continue
		}
		u, err := url.Parse(o)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || strings.Trim(u.Path, "/") != "" {
			return "", fmt.Errorf("invalid origin %q: want scheme://host[:port]", o)
		}
	}
	return strings.Join(origins, ","), nil
}

func newCorsSetCmd() *cobra.Command {
	var origins string
	var allowCreds bool
	var maxAge int
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the CORS configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := normalizeOrigins(origins)
			if err != nil {
				return err
			}
			if maxAge < 0 {
				return fmt.Errorf("--max-age must be non-negative")
			}
			return withDB(cmd, func(ctx context.Context, db *database.DB) error {
				c := &models.CorsConfig{
					AllowedOrigins:   normalized,
					AllowCredentials: allowCreds,
					MaxAge:           maxAge,
				}
				if err := database.NewCorsConfigRepository(db).Set(ctx, c); err != nil {
					return fmt.Errorf("set cors config: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "CORS configuration updated.")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&origins, "origins", "", "Comma-separated allowed origins (required)")
	cmd.Flags().BoolVar(&allowCreds, "allow-credentials", true, "Allow credentials")
	cmd.Flags().IntVar(&maxAge, "max-age", 86400, "Access-Control-Max-Age (seconds)")
	return cmd
}
