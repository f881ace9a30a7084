package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/snip-links/snip/internal/core"
	"github.com/snip-links/snip/internal/store"
)

var lsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List redirects on the running snip server",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()

		jsonOutput, _ := cmd.Flags().GetBool("json")

		service, err := newRemoteService(cmd)
		if err != nil {
			exitWithError(err)
		}
		if err := runList(os.Stdout, service, jsonOutput); err != nil {
			exitWithError(err)
		}
	},
}

func runList(out io.Writer, service core.RedirectService, jsonOutput bool) error {
	list, err := service.List()
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No redirects.")
		return nil
	}
	printRedirectTable(out, list)
	return nil
}

func printRedirectTable(out io.Writer, list []store.Redirect) {
	keyWidth, urlWidth := len("KEY"), len("URL")
	for _, r := range list {
		keyWidth = max(keyWidth, len(r.Key))
		urlWidth = max(urlWidth, len(r.URL))
	}
	urlWidth = min(urlWidth, 60)

	fmt.Fprintf(out, "%-*s  %-*s  %6s  %s\n", keyWidth, "KEY", urlWidth, "URL", "VISITS", "CREATED")
	for _, r := range list {
		u := r.URL
		if len(u) > urlWidth {
			u = u[:urlWidth-3] + "..."
		}
		fmt.Fprintf(out, "%-*s  %-*s  %6d  %s\n", keyWidth, r.Key, urlWidth, u, r.Visits, r.CreatedUTC.Format("2006-01-02 15:04"))
	}
}

func init() {
	rootCmd.AddCommand(lsCmd)
	lsCmd.Flags().Bool("json", false, "Print JSON instead of a table")
}
