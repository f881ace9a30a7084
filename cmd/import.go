package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/snip-links/snip/internal/utils"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import redirects from a YAML or JSON file",
	Long:  `Upload redirects to the running snip server. Keys that already exist are skipped.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()

		baseURL, token, err := resolveAPIConnection(cmd)
		if err != nil {
			exitWithError(err)
		}
		n, err := runImport(baseURL, token, args[0])
		if err != nil {
			exitWithError(err)
		}
		fmt.Printf("Imported %d redirects.\n", n)
	},
}

// runImport uploads path as is; the server detects the format.
func runImport(baseURL, token, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	resp, err := doAPIRequest(http.MethodPost, baseURL, token, "/api/redirect/import", f)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			utils.Debug("Error closing response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, responseError(resp)
	}

	var result struct {
		Imported int `json:"imported"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("invalid server response: %w", err)
	}
	return result.Imported, nil
}

func init() {
	rootCmd.AddCommand(importCmd)
}
