package oidc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/lockin/internal/models"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrJWKSNotConfigured is returned when the provider row has no JWKS URL.
var ErrJWKSNotConfigured = errors.New("JWKS URL not configured")

// TokenVerifier turns a bearer token into verified claims.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.JWTClaims, error)
}

// Verifier checks tokens against the configured provider's JWKS and issuer.
type Verifier struct {
	provider     *Provider
	jwksManager  *JWKSManager
	providerName string
}

var _ TokenVerifier = (*Verifier)(nil)

// NewVerifier creates a verifier for providerName.
func NewVerifier(provider *Provider, jwksManager *JWKSManager, providerName string) *Verifier {
	return &Verifier{provider: provider, jwksManager: jwksManager, providerName: providerName}
}

// Verify validates signature, expiry and issuer, then extracts claims.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	config, err := v.provider.GetConfig(ctx, v.providerName)
	if err != nil {
		return nil, err
	}
	if config.JWKSUrl == nil || *config.JWKSUrl == "" {
		return nil, ErrJWKSNotConfigured
	}

	keys, err := v.jwksManager.GetJWKS(ctx, *config.JWKSUrl)
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse([]byte(tokenString),
		jwt.WithKeySet(keys, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(true),
		jwt.WithIssuer(config.Issuer),
		jwt.WithAcceptableSkew(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse/verify token: %w", err)
	}
	if token.Subject() == "" {
		return nil, errors.New("token missing subject claim")
	}

	return claimsFrom(token), nil
}

func claimsFrom(token jwt.Token) *models.JWTClaims {
	claims := &models.JWTClaims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
		Exp: token.Expiration().Unix(),
		Iat: token.IssuedAt().Unix(),
	}
	if aud := token.Audience(); len(aud) > 0 {
		claims.Aud = aud[0]
	}
	private := token.PrivateClaims()
	if email, ok := private["email"].(string); ok {
		claims.Email = email
	}
	if name, ok := private["name"].(string); ok {
		claims.Name = name
	}
	return claims
}
