package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/vfaronov/httpheader"

	"github.com/snip-links/snip/internal/utils"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download every redirect as a YAML file",
	Long:  `Export all redirects of the running snip server. Use -o - to write to stdout.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()

		output, _ := cmd.Flags().GetString("output")

		baseURL, token, err := resolveAPIConnection(cmd)
		if err != nil {
			exitWithError(err)
		}
		path, err := runExport(baseURL, token, output, os.Stdout)
		if err != nil {
			exitWithError(err)
		}
		if path != "" {
			fmt.Printf("Exported redirects to %s\n", path)
		}
	},
}

// runExport fetches the export and writes it to output. An empty output uses
// the filename suggested by the server; "-" writes to stdout. It returns the
// path written, or "" for stdout.
func runExport(baseURL, token, output string, stdout io.Writer) (string, error) {
	resp, err := doAPIRequest(http.MethodGet, baseURL, token, "/api/redirect/export", nil)
	if err != nil {
		return "", fmt.Errorf("failed to connect to server: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			utils.Debug("Error closing response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", responseError(resp)
	}

	if output == "-" {
		_, err := io.Copy(stdout, resp.Body)
		return "", err
	}

	if output == "" {
		_, filename, _ := httpheader.ContentDisposition(resp.Header)
		// Never trust a path from the server
		output = filepath.Base(filename)
		if output == "." || output == "/" || output == "" {
			output = "snip-export.yaml"
		}
	}

	f, err := os.Create(output)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", output, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write %s: %w", output, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return output, nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringP("output", "o", "", "Output file (default: name suggested by the server, - for stdout)")
}
