package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benvon/lockin/internal/database"
	"github.com/benvon/lockin/internal/models"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const testIssuer = "https://issuer.example.com"

var _ database.OIDCConfigRepositoryInterface = (*mockOIDCRepo)(nil)

type mockOIDCRepo struct {
	getByProviderFunc func(ctx context.Context, provider string) (*models.OIDCConfig, error)
}

func (m *mockOIDCRepo) GetByProvider(ctx context.Context, provider string) (*models.OIDCConfig, error) {
	return m.getByProviderFunc(ctx, provider)
}

type testKeys struct {
	private jwk.Key
	server  *httptest.Server
	fetches atomic.Int32
}

func newTestKeys(t *testing.T) *testKeys {
	t.Helper()

	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey() error = %v", err)
	}
	priv, err := jwk.FromRaw(raw)
	if err != nil {
		t.Fatalf("FromRaw() error = %v", err)
	}
	_ = priv.Set(jwk.KeyIDKey, "test-key")
	_ = priv.Set(jwk.AlgorithmKey, jwa.RS256)

	pub, err := priv.PublicKey()
	if err != nil {
		t.Fatalf("PublicKey() error = %v", err)
	}
	set := jwk.NewSet()
	_ = set.AddKey(pub)
	body, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("Marshal(set) error = %v", err)
	}

	k := &testKeys{private: priv}
	k.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		k.fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(k.server.Close)
	return k
}

func (k *testKeys) sign(t *testing.T, issuer string, exp time.Time) string {
	t.Helper()

	tok, err := jwt.NewBuilder().
		Issuer(issuer).
		Subject("user-123").
		Audience([]string{"lockin-cli"}).
		IssuedAt(time.Now()).
		Expiration(exp).
		Claim("email", "grinder@example.com").
		Claim("name", "Grinder").
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, k.private))
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	return string(signed)
}

func TestVerifier_Verify(t *testing.T) {
	t.Parallel()

	keys := newTestKeys(t)
	jwksURL := keys.server.URL
	repo := &mockOIDCRepo{getByProviderFunc: func(ctx context.Context, provider string) (*models.OIDCConfig, error) {
		return &models.OIDCConfig{Provider: provider, Issuer: testIssuer, JWKSUrl: &jwksURL}, nil
	}}
	verifier := NewVerifier(NewProvider(repo), NewJWKSManager(), "cognito")
	ctx := context.Background()

	claims, err := verifier.Verify(ctx, keys.sign(t, testIssuer, time.Now().Add(time.Hour)))
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Sub != "user-123" || claims.Email != "grinder@example.com" || claims.Name != "Grinder" || claims.Aud != "lockin-cli" {
		t.Errorf("claims = %+v", claims)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: keys.sign(t, testIssuer, time.Now().Add(-time.Hour))},
		{name: "wrong issuer", token: keys.sign(t, "https://evil.example.com", time.Now().Add(time.Hour))},
		{name: "garbage", token: "not.a.jwt"},
	}
	for _, tt := range tests {
		if _, err := verifier.Verify(ctx, tt.token); err == nil {
			t.Errorf("%s: Verify() succeeded, want error", tt.name)
		}
	}

	if n := keys.fetches.Load(); n != 1 {
		t.Errorf("JWKS fetched %d times, want 1 (cached)", n)
	}
}

func TestVerifier_Misconfigured(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		get     func(ctx context.Context, provider string) (*models.OIDCConfig, error)
		wantErr error
	}{
		{
			name:    "no provider row",
			get:     func(context.Context, string) (*models.OIDCConfig, error) { return nil, database.ErrNotFound },
			wantErr: database.ErrNotFound,
		},
		{
			name:    "no jwks url",
			get:     func(context.Context, string) (*models.OIDCConfig, error) { return &models.OIDCConfig{Issuer: testIssuer}, nil },
			wantErr: ErrJWKSNotConfigured,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := NewVerifier(NewProvider(&mockOIDCRepo{getByProviderFunc: tt.get}), NewJWKSManager(), "cognito")
			if _, err := v.Verify(context.Background(), "x"); !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestProvider_GetLoginConfig_Discovery(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"authorization_endpoint": "https://idp/authorize",
			"token_endpoint":         "https://idp/token",
		})
	}))
	defer srv.Close()

	repo := &mockOIDCRepo{getByProviderFunc: func(context.Context, string) (*models.OIDCConfig, error) {
		return &models.OIDCConfig{Issuer: srv.URL, ClientID: "cli"}, nil
	}}
	cfg, err := NewProvider(repo).GetLoginConfig(context.Background(), "cognito")
	if err != nil {
		t.Fatalf("GetLoginConfig() error = %v", err)
	}
	if cfg.AuthorizationEndpoint != "https://idp/authorize" || cfg.TokenEndpoint != "https://idp/token" || cfg.ClientID != "cli" {
		t.Errorf("login config = %+v", cfg)
	}
}
