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

type oidcFlags struct {
	issuer       string
	domain       string
	clientID     string
	clientSecret string
	redirectURI  string
	jwksURL      string
}

// toConfig validates the flags and builds the row to store.
func (f oidcFlags) toConfig(provider string) (*models.OIDCConfig, error) {
	if strings.TrimSpace(provider) == "" {
		return nil, fmt.Errorf("provider name cannot be empty")
	}
	if f.issuer == "" || f.clientID == "" || f.redirectURI == "" {
		return nil, fmt.Errorf("required flags: --issuer, --client-id, --redirect-uri (--client-secret is optional for public clients)")
	}
	issuer := strings.TrimRight(f.issuer, "/")
	if u, err := url.Parse(issuer); err != nil || u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("--issuer must be an https URL")
	}

	c := &models.OIDCConfig{
		Provider:    provider,
		Issuer:      issuer,
		ClientID:    f.clientID,
		RedirectURI: f.redirectURI,
	}
	if f.domain != "" {
		c.Domain = &f.domain
	}
	if f.clientSecret != "" {
		c.ClientSecret = &f.clientSecret
	}
	jwks := f.jwksURL
	if jwks == "" {
		jwks = issuer + "/.well-known/jwks.json"
	}
	c.JWKSUrl = &jwks
	return c, nil
}

// NewOIDCCmd creates the command that stores an identity provider.
func NewOIDCCmd() *cobra.Command {
	var f oidcFlags

	cmd := &cobra.Command{
		Use:   "oidc <provider-name>",
		Short: "Create or replace an OIDC provider",
		Long:  "Store the identity provider the API verifies bearer tokens against. The server selects it with OIDC_PROVIDER.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.toConfig(args[0])
			if err != nil {
				return err
			}
			return withDB(cmd, func(ctx context.Context, db *database.DB) error {
				if err := database.NewOIDCConfigRepository(db).Upsert(ctx, c); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved OIDC configuration for provider: %s\n", c.Provider)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&f.issuer, "issuer", "", "OIDC issuer URL (required)")
	cmd.Flags().StringVar(&f.domain, "domain", "", "OAuth2 domain, e.g. a Cognito custom domain")
	cmd.Flags().StringVar(&f.clientID, "client-id", "", "OAuth2 client ID (required)")
	cmd.Flags().StringVar(&f.clientSecret, "client-secret", "", "OAuth2 client secret, omitted for public clients")
	cmd.Flags().StringVar(&f.redirectURI, "redirect-uri", "", "OAuth2 redirect URI (required)")
	cmd.Flags().StringVar(&f.jwksURL, "jwks-url", "", "JWKS URL, derived from the issuer when empty")

	cmd.AddCommand(newOIDCDeleteCmd())
	return cmd
}

func newOIDCDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <provider-name>",
		Short: "Remove an OIDC provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd, func(ctx context.Context, db *database.DB) error {
				if err := database.NewOIDCConfigRepository(db).Delete(ctx, args[0]); err != nil {
					return fmt.Errorf("delete OIDC config: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted OIDC configuration for provider: %s\n", args[0])
				return nil
			})
		},
	}
}
