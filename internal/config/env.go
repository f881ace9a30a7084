package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/snip-links/snip/internal/utils"
)

// Environment variables recognised on top of settings.json.
const (
	EnvPort       = "PORT"
	EnvHost       = "HOST"
	EnvFlyAppName = "FLY_APP_NAME"
	EnvToken      = "SNIP_TOKEN"
)

// GetPort returns $PORT when it parses, otherwise the configured port.
func GetPort(s *Settings) int {
	port := DefaultPort
	if s != nil && s.Server.Port > 0 {
		port = s.Server.Port
	}

	if v := os.Getenv(EnvPort); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 || p > 65535 {
			utils.Debug("Failed to parse %s=%q, using %d", EnvPort, v, port)
			return port
		}
		return p
	}
	return port
}

// GetHostURI returns the base URL short links are published under.
func GetHostURI(s *Settings) string {
	if host := os.Getenv(EnvHost); host != "" {
		return "https://" + host
	}
	if s != nil && s.Server.PublicHost != "" {
		return "https://" + s.Server.PublicHost
	}
	if app := os.Getenv(EnvFlyAppName); app != "" {
		return fmt.Sprintf("https://%s.fly.dev", app)
	}
	return fmt.Sprintf("http://localhost:%d", GetPort(s))
}
