package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Settings are the per-user preferences the client keeps on disk.
type Settings struct {
	SleepHours float64 `yaml:"sleep_hours"`
	OtherHours float64 `yaml:"other_hours"`
	BirthDate  string  `yaml:"birth_date,omitempty"`
	Theme      string  `yaml:"theme,omitempty"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{SleepHours: 8, OtherHours: 2, Theme: "dark"}
}

// Birth parses BirthDate. ok is false when unset or malformed.
func (s Settings) Birth() (time.Time, bool) {
	if s.BirthDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s.BirthDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// LoadSettings reads settings from path. A missing file yields defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse settings: %w", err)
	}
	if s.SleepHours < 0 || s.OtherHours < 0 || s.SleepHours+s.OtherHours > 24 {
		return s, fmt.Errorf("invalid settings: sleep_hours and other_hours must be non-negative and sum to at most 24")
	}
	return s, nil
}

// SaveSettings writes settings to path, creating parent directories.
func SaveSettings(path string, s Settings) error {
	if path == "" {
		return fmt.Errorf("%w: settings path", ErrMissingConfig)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
