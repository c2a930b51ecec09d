package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestNormalizeOrigins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "single", raw: "https://lockin.example.com", want: "https://lockin.example.com"},
		{name: "trims and joins", raw: " http://localhost:3000 , https://app.example.com ", want: "http://localhost:3000,https://app.example.com"},
		{name: "wildcard", raw: "*", want: "*"},
		{name: "empty", raw: " , ", wantErr: true},
		{name: "path not allowed", raw: "https://app.example.com/login", wantErr: true},
		{name: "scheme required", raw: "app.example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := normalizeOrigins(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("normalizeOrigins(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("normalizeOrigins(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestValidateRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "10-S", want: "10-S"},
		{raw: " 100-m ", want: "100-M"},
		{raw: "", wantErr: true},
		{raw: "fast", wantErr: true},
	}

	for _, tt := range tests {
		got, err := validateRate(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateRate(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("validateRate(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestOIDCFlags_ToConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider string
		flags    oidcFlags
		wantErr  bool
		wantJWKS string
	}{
		{
			name:     "derives jwks",
			provider: "cognito",
			flags:    oidcFlags{issuer: "https://idp.example.com/", clientID: "c", redirectURI: "http://127.0.0.1:8765/callback"},
			wantJWKS: "https://idp.example.com/.well-known/jwks.json",
		},
		{
			name:     "explicit jwks",
			provider: "okta",
			flags:    oidcFlags{issuer: "https://idp.example.com", clientID: "c", redirectURI: "r", jwksURL: "https://keys.example.com"},
			wantJWKS: "https://keys.example.com",
		},
		{name: "missing client", provider: "x", flags: oidcFlags{issuer: "https://idp.example.com", redirectURI: "r"}, wantErr: true},
		{name: "insecure issuer", provider: "x", flags: oidcFlags{issuer: "http://idp.example.com", clientID: "c", redirectURI: "r"}, wantErr: true},
		{name: "blank provider", provider: "  ", flags: oidcFlags{issuer: "https://i.example.com", clientID: "c", redirectURI: "r"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := tt.flags.toConfig(tt.provider)
			if (err != nil) != tt.wantErr {
				t.Fatalf("toConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if c.JWKSUrl == nil || *c.JWKSUrl != tt.wantJWKS {
				t.Errorf("JWKSUrl = %v, want %q", c.JWKSUrl, tt.wantJWKS)
			}
			if c.ClientSecret != nil {
				t.Error("public client got a secret")
			}
		})
	}
}

func TestRootCmd_RejectsBadFlagsBeforeConnecting(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	tests := []struct {
		args    []string
		wantErr string
	}{
		{args: []string{"cors", "set"}, wantErr: "--origins is required"},
		{args: []string{"ratelimit", "set", "--rate", "lots"}, wantErr: "invalid rate"},
		{args: []string{"test"}, wantErr: "--provider is required"},
		{args: []string{"migrate", "down", "--steps", "0"}, wantErr: "--steps"},
		{args: []string{"list"}, wantErr: "DATABASE_URL"},
	}

	for _, tt := range tests {
		root := NewRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(tt.args)

		err := root.Execute()
		if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%v: error = %v, want containing %q", tt.args, err, tt.wantErr)
		}
	}
}
