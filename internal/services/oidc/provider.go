package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/models"
)

// Provider manages OIDC provider configuration
type Provider struct {
	repo       database.OIDCConfigRepositoryInterface
	httpClient *http.Client
}

// NewProvider creates a new OIDC provider manager
func NewProvider(repo database.OIDCConfigRepositoryInterface) *Provider {
	return &Provider{repo: repo, httpClient: &http.Client{Timeout: 5 * time.Second}}
}

// GetConfig retrieves OIDC configuration for a provider
func (p *Provider) GetConfig(ctx context.Context, providerName string) (*models.OIDCConfig, error) {
	config, err := p.repo.GetByProvider(ctx, providerName)
	if err != nil {
		return nil, fmt.Errorf("failed to get OIDC config: %w", err)
	}
	return config, nil
}

// LoginConfig tells the CLI where to obtain a token.
type LoginConfig struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	ClientID              string `json:"client_id"`
	RedirectURI           string `json:"redirect_uri"`
	Scope                 string `json:"scope"`
}

type discoveryDocument struct {
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
}

// GetLoginConfig resolves endpoints from the discovery document, falling back
// to issuer-relative oauth2 paths.
func (p *Provider) GetLoginConfig(ctx context.Context, providerName string) (*LoginConfig, error) {
	config, err := p.GetConfig(ctx, providerName)
	if err != nil {
		return nil, err
	}

	endpoints := endpointsFor(config)
	if doc, err := p.discover(ctx, config.Issuer); err == nil {
		if doc.AuthorizationEndpoint != "" {
			endpoints.AuthURL = doc.AuthorizationEndpoint
		}
		if doc.TokenEndpoint != "" {
			endpoints.TokenURL = doc.TokenEndpoint
		}
	}

	return &LoginConfig{
		AuthorizationEndpoint: endpoints.AuthURL,
		TokenEndpoint:         endpoints.TokenURL,
		ClientID:              config.ClientID,
		RedirectURI:           config.RedirectURI,
		Scope:                 strings.Join(defaultScopes, " "),
	}, nil
}

func (p *Provider) discover(ctx context.Context, issuer string) (*discoveryDocument, error) {
	url := strings.TrimRight(issuer, "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery returned status %d", resp.StatusCode)
	}
	var doc discoveryDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}
	return &doc, nil
}
