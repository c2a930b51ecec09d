package commands

import (
	"context"
	"fmt"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/services/oidc"
	"github.com/spf13/cobra"
)

// NewTestCmd creates the command that probes a stored provider.
func NewTestCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test an OIDC provider",
		Long:  "Fetch the discovery document and signing keys of a stored provider, as the API would.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				return fmt.Errorf("--provider is required")
			}
			return withDB(cmd, func(ctx context.Context, db *database.DB) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Testing OIDC configuration for provider: %s\n", provider)

				res, err := oidc.NewProvider(database.NewOIDCConfigRepository(db)).Check(ctx, provider, oidc.NewJWKSManager())
				if res != nil {
					fmt.Fprintf(out, "Issuer:         %s\n", res.Issuer)
					fmt.Fprintf(out, "Discovery:      %v\n", res.Discovery)
					fmt.Fprintf(out, "Token endpoint: %s\n", res.TokenEndpoint)
					fmt.Fprintf(out, "JWKS:           %s (%d keys)\n", res.JWKSURL, res.KeyCount)
				}
				if err != nil {
					return fmt.Errorf("OIDC check failed: %w", err)
				}
				fmt.Fprintln(out, "OIDC configuration test passed")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider name to test (required)")
	return cmd
}
