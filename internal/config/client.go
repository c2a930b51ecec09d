package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// ClientConfig holds configuration for the lockin command line client.
type ClientConfig struct {
	APIURL       string
	APIToken     string
	TokenPath    string
	Theme        string
	SettingsPath string
	// RequestsPerSecond caps outbound API calls from the client.
	RequestsPerSecond float64
	Settings          Settings
}

// LoadClient loads client configuration. The client refuses to start when
// the backend URL or credential is missing. The credential comes from
// LOCKIN_API_TOKEN or, failing that, the token file written by login.
func LoadClient() (*ClientConfig, error) {
	cfg, err := loadClientBase()
	if err != nil {
		return nil, err
	}

	var missing []string
	if cfg.APIURL == "" {
		missing = append(missing, "LOCKIN_API_URL")
	}
	if cfg.APIToken == "" {
		missing = append(missing, "LOCKIN_API_TOKEN")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, missing)
	}
	return cfg, nil
}

// LoadClientForLogin is LoadClient without the credential requirement.
func LoadClientForLogin() (*ClientConfig, error) {
	cfg, err := loadClientBase()
	if err != nil {
		return nil, err
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("%w: [LOCKIN_API_URL]", ErrMissingConfig)
	}
	return cfg, nil
}

func loadClientBase() (*ClientConfig, error) {
	_ = godotenv.Load()

	cfg := &ClientConfig{
		APIURL:            strings.TrimRight(getEnv("LOCKIN_API_URL", ""), "/"),
		APIToken:          getEnv("LOCKIN_API_TOKEN", ""),
		TokenPath:         getEnv("LOCKIN_TOKEN_FILE", defaultClientPath("token")),
		Theme:             getEnv("LOCKIN_THEME", ""),
		SettingsPath:      getEnv("LOCKIN_SETTINGS", defaultClientPath("settings.yaml")),
		RequestsPerSecond: getEnvFloat("LOCKIN_RATE", 5),
	}

	if cfg.APIToken == "" {
		token, err := ReadToken(cfg.TokenPath)
		if err != nil {
			return nil, err
		}
		cfg.APIToken = token
	}

	settings, err := LoadSettings(cfg.SettingsPath)
	if err != nil {
		return nil, err
	}
	cfg.Settings = settings
	if cfg.Theme == "" {
		cfg.Theme = settings.Theme
	}

	return cfg, nil
}

// ReadToken returns the stored bearer token, or "" when none is stored.
func ReadToken(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// SaveToken stores token readable only by the current user.
func SaveToken(path, token string) error {
	if path == "" {
		return fmt.Errorf("%w: token path", ErrMissingConfig)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// ClearToken removes the stored token. A missing file is not an error.
func ClearToken(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

func defaultClientPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "lockin", name)
}
