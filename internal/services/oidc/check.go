package oidc

import (
	"context"
	"fmt"
	"strings"
)

// CheckResult summarizes a live probe of a configured provider.
type CheckResult struct {
	Issuer        string
	Discovery     bool
	TokenEndpoint string
	JWKSURL       string
	KeyCount      int
}

// Check fetches the discovery document and the key set of providerName.
// A missing discovery document is tolerated; an unusable key set is not,
// since no token could ever verify.
func (p *Provider) Check(ctx context.Context, providerName string, jwks *JWKSManager) (*CheckResult, error) {
	config, err := p.GetConfig(ctx, providerName)
	if err != nil {
		return nil, err
	}

	res := &CheckResult{Issuer: config.Issuer, TokenEndpoint: endpointsFor(config).TokenURL}
	if doc, err := p.discover(ctx, config.Issuer); err == nil {
		res.Discovery = true
		if doc.TokenEndpoint != "" {
			res.TokenEndpoint = doc.TokenEndpoint
		}
	}

	res.JWKSURL = strings.TrimRight(config.Issuer, "/") + "/.well-known/jwks.json"
	if config.JWKSUrl != nil && *config.JWKSUrl != "" {
		res.JWKSURL = *config.JWKSUrl
	}
	keys, err := jwks.GetJWKS(ctx, res.JWKSURL)
	if err != nil {
		return res, err
	}
	res.KeyCount = keys.Len()
	if res.KeyCount == 0 {
		return res, fmt.Errorf("JWKS at %s has no keys", res.JWKSURL)
	}
	return res, nil
}
