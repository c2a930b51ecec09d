package oidc

import (
	"context"
	"strings"

	"github.com/benvon/lockin/internal/models"
	"golang.org/x/oauth2"
)

var defaultScopes = []string{"openid", "email", "profile"}

// Client wraps OAuth2 client functionality
type Client struct {
	config *oauth2.Config
}

// NewClient creates a new OAuth2 client from OIDC config
func NewClient(oidcConfig *models.OIDCConfig) *Client {
	clientSecret := ""
	if oidcConfig.ClientSecret != nil {
		clientSecret = *oidcConfig.ClientSecret
	}

	return &Client{config: &oauth2.Config{
		ClientID:     oidcConfig.ClientID,
		ClientSecret: clientSecret,
		RedirectURL:  oidcConfig.RedirectURI,
		Scopes:       defaultScopes,
		Endpoint:     endpointsFor(oidcConfig),
	}}
}

// endpointsFor derives oauth2 endpoints. Cognito hosted UIs live on the
// configured domain rather than the issuer.
func endpointsFor(c *models.OIDCConfig) oauth2.Endpoint {
	base := strings.TrimRight(c.Issuer, "/")
	if c.Domain != nil && *c.Domain != "" {
		base = strings.TrimRight(*c.Domain, "/")
		if !strings.HasPrefix(base, "https://") && !strings.HasPrefix(base, "http://") {
			base = "https://" + base
		}
	}
	return oauth2.Endpoint{
		AuthURL:  base + "/oauth2/authorize",
		TokenURL: base + "/oauth2/token",
	}
}

// NewPublicClient builds a client for the command line login from the
// endpoints the API advertises. It never holds a client secret, so codes are
// bound with PKCE.
func NewPublicClient(lc *LoginConfig) *Client {
	scopes := defaultScopes
	if lc.Scope != "" {
		scopes = strings.Fields(lc.Scope)
	}
	return &Client{config: &oauth2.Config{
		ClientID:    lc.ClientID,
		RedirectURL: lc.RedirectURI,
		Scopes:      scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  lc.AuthorizationEndpoint,
			TokenURL: lc.TokenEndpoint,
		},
	}}
}

// ExchangeCode exchanges an authorization code for tokens. verifier is the
// PKCE verifier used for AuthCodeURL, or empty.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	var opts []oauth2.AuthCodeOption
	if verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	return c.config.Exchange(ctx, code, opts...)
}

// AuthCodeURL returns the authorization URL, adding an S256 challenge when
// verifier is set.
func (c *Client) AuthCodeURL(state, verifier string) string {
	if verifier == "" {
		return c.config.AuthCodeURL(state)
	}
	return c.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
}

// BearerToken picks the token the API accepts from an exchange result: the
// ID token when the provider issued one, otherwise the access token.
func BearerToken(tok *oauth2.Token) string {
	if tok == nil {
		return ""
	}
	if id, ok := tok.Extra("id_token").(string); ok && id != "" {
		return id
	}
	return tok.AccessToken
}
