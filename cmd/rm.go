package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/snip-links/snip/internal/core"
)

var rmCmd = &cobra.Command{
	Use:     "rm <key>...",
	Aliases: []string{"delete"},
	Short:   "Remove redirects from the running snip server",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()

		service, err := newRemoteService(cmd)
		if err != nil {
			exitWithError(err)
		}
		if failed := runRemove(os.Stdout, service, args); failed > 0 {
			os.Exit(1)
		}
	},
}

// runRemove deletes every key and returns how many deletions failed.
func runRemove(out io.Writer, service core.RedirectService, keys []string) int {
	failed := 0
	for _, key := range keys {
		if err := service.Delete(key); err != nil {
			fmt.Fprintf(os.Stderr, "Error removing %s: %v\n", key, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "Removed redirect %s\n", key)
	}
	return failed
}

func init() {
	rootCmd.AddCommand(rmCmd)
}
