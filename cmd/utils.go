package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/snip-links/snip/internal/config"
	"github.com/snip-links/snip/internal/core"
	"github.com/snip-links/snip/internal/utils"
)

var errNoServer = errors.New("no running snip server found; start one with 'snip' or pass --server")

func portPath() string {
	return filepath.Join(config.GetSnipDir(), "port")
}

// readActivePort reads the port from the port file
func readActivePort() int {
	data, err := os.ReadFile(portPath())
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return port
}

// saveActivePort writes the active port for CLI discovery
func saveActivePort(port int) {
	if err := os.WriteFile(portPath(), []byte(strconv.Itoa(port)), 0o644); err != nil {
		utils.Debug("Error writing port file: %v", err)
	}
	utils.Debug("HTTP server listening on port %d", port)
}

// removeActivePort cleans up the port file on exit
func removeActivePort() {
	if err := os.Remove(portPath()); err != nil && !os.IsNotExist(err) {
		utils.Debug("Error removing port file: %v", err)
	}
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// normalizeServerURL accepts "host:port" or a full URL.
func normalizeServerURL(target string) (string, error) {
	target = strings.TrimSpace(target)
	if !strings.Contains(target, "://") {
		target = "http://" + target
	}
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid server address %q", target)
	}
	return strings.TrimRight(u.Scheme+"://"+u.Host+u.Path, "/"), nil
}

// resolveServer picks the server to talk to: the --server flag, or the
// locally running instance found through the port file.
func resolveServer(cmd *cobra.Command) (string, error) {
	server, _ := cmd.Flags().GetString("server")
	if server != "" {
		return normalizeServerURL(server)
	}
	port := readActivePort()
	if port == 0 {
		return "", errNoServer
	}
	return fmt.Sprintf("http://127.0.0.1:%d", port), nil
}

// resolveToken picks the bearer token: --token, then $SNIP_TOKEN, then the
// local token file for loopback servers.
func resolveToken(cmd *cobra.Command, baseURL string) (string, error) {
	tokenFlag, _ := cmd.Flags().GetString("token")
	if token := strings.TrimSpace(tokenFlag); token != "" {
		return token, nil
	}
	if token := strings.TrimSpace(os.Getenv(config.EnvToken)); token != "" {
		return token, nil
	}

	u, err := url.Parse(baseURL)
	if err == nil && isLoopback(u.Hostname()) {
		return ensureAuthToken(), nil
	}
	return "", fmt.Errorf("no token provided; use --token or set %s", config.EnvToken)
}

// resolveAPIConnection returns the server URL and token for CLI commands.
func resolveAPIConnection(cmd *cobra.Command) (string, string, error) {
	baseURL, err := resolveServer(cmd)
	if err != nil {
		return "", "", err
	}
	token, err := resolveToken(cmd, baseURL)
	if err != nil {
		return "", "", err
	}
	return baseURL, token, nil
}

// newRemoteService connects to the configured server.
func newRemoteService(cmd *cobra.Command) (*core.RemoteRedirectService, error) {
	baseURL, token, err := resolveAPIConnection(cmd)
	if err != nil {
		return nil, err
	}
	return core.NewRemoteRedirectService(baseURL, token), nil
}

// doAPIRequest sends a raw request for endpoints that do not speak JSON.
func doAPIRequest(method, baseURL, token, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 60 * time.Second}
	return client.Do(req)
}

// responseError turns a non-2xx answer into an error carrying the server's
// message.
func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &core.APIError{StatusCode: resp.StatusCode, Message: msg}
}

// exitWithError prints err in the CLI's format and exits.
func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
