package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "snip"

// GetSnipDir returns the per-user configuration directory.
func GetSnipDir() string {
	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			appData = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		return filepath.Join(appData, appName)
	case "darwin": // MacOS
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", appName)
	default: // Linux
		configHome := os.Getenv("XDG_CONFIG_HOME")
		if configHome == "" {
			home, _ := os.UserHomeDir()
			configHome = filepath.Join(home, ".config")
		}
		return filepath.Join(configHome, appName)
	}
}

// Returns directory for the redirect database
func GetStateDir() string {
	return filepath.Join(GetSnipDir(), "state")
}

// Returns directory for logs
func GetLogsDir() string {
	return filepath.Join(GetSnipDir(), "logs")
}

// GetDBPath returns the path of the redirect database.
func GetDBPath() string {
	return filepath.Join(GetStateDir(), "snip.db")
}

// EnsureDirs creates all required directories
func EnsureDirs() error {
	dirs := []string{GetSnipDir(), GetStateDir(), GetLogsDir()}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
