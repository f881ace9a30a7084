package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Settings holds all user-configurable application settings organized by category.
type Settings struct {
	Server  ServerSettings  `json:"server"`
	General GeneralSettings `json:"general"`
	Limits  LimitSettings   `json:"limits"`
}

// ServerSettings controls the HTTP listener and the public address of short links.
type ServerSettings struct {
	Port        int    `json:"port" validate:"min=1,max=65535"`
	BindAddress string `json:"bind_address" validate:"omitempty,ip|hostname"`
	PublicHost  string `json:"public_host" validate:"omitempty,hostname|hostname_port"`
}

// GeneralSettings contains application behavior settings.
type GeneralSettings struct {
	KeyLength            int    `json:"key_length" validate:"min=1,max=64"`
	CopyToClipboard      bool   `json:"copy_to_clipboard"`
	DesktopNotifications bool   `json:"desktop_notifications"`
	Theme                int    `json:"theme" validate:"min=0,max=2"`
	LogLevel             string `json:"log_level" validate:"loglevel"`
	LogRetentionCount    int    `json:"log_retention_count" validate:"min=0"`
}

const (
	ThemeAdaptive = 0
	ThemeLight    = 1
	ThemeDark     = 2
)

// LimitSettings throttles write requests per client address.
type LimitSettings struct {
	WritesPerSecond float64 `json:"writes_per_second" validate:"gte=0"`
	WriteBurst      int     `json:"write_burst" validate:"min=1"`
}

const DefaultPort = 8080

// DefaultSettings returns a new Settings instance with sensible defaults.
func DefaultSettings() *Settings {
	return &Settings{
		Server: ServerSettings{
			Port:        DefaultPort,
			BindAddress: "127.0.0.1",
		},
		General: GeneralSettings{
			KeyLength:            4,
			CopyToClipboard:      true,
			DesktopNotifications: false,
			Theme:                ThemeAdaptive,
			LogLevel:             "debug",
			LogRetentionCount:    5,
		},
		Limits: LimitSettings{
			WritesPerSecond: 5,
			WriteBurst:      10,
		},
	}
}

// GetSettingsPath returns the path to the settings JSON file.
func GetSettingsPath() string {
	return filepath.Join(GetSnipDir(), "settings.json")
}

// LoadSettings loads settings from disk. Returns defaults if file doesn't exist.
func LoadSettings() (*Settings, error) {
	path := GetSettingsPath()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings() // Start with defaults to fill any missing fields
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := Validate(settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// SaveSettings saves settings to disk atomically.
func SaveSettings(s *Settings) error {
	if err := Validate(s); err != nil {
		return err
	}

	path := GetSettingsPath()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	// Atomic write: write to temp file, then rename
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return err
	}

	return os.Rename(tempPath, path)
}
