package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/snip-links/snip/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the snip version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		check, _ := cmd.Flags().GetBool("check")
		if err := runVersion(cmd.Context(), os.Stdout, check); err != nil {
			exitWithError(err)
		}
	},
}

func runVersion(ctx context.Context, out io.Writer, check bool) error {
	fmt.Fprintf(out, "snip %s (built %s)\n", Version, BuildTime)
	if !check {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rel, err := version.CheckForUpdate(ctx, Version)
	if err != nil {
		return err
	}
	switch {
	case rel == nil:
		fmt.Fprintln(out, "Development build, update check skipped.")
	case rel.Available:
		fmt.Fprintf(out, "Update available: %s\n%s\n", rel.Latest, rel.URL)
	default:
		fmt.Fprintln(out, "snip is up to date.")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("check", false, "Check for a newer release")
}
