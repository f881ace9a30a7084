package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/snip-links/snip/internal/clipboard"
	"github.com/snip-links/snip/internal/config"
	"github.com/snip-links/snip/internal/core"
	"github.com/snip-links/snip/internal/notify"
	"github.com/snip-links/snip/internal/utils"
)

var addCmd = &cobra.Command{
	Use:     "add <url>",
	Aliases: []string{"shorten"},
	Short:   "Shorten a URL through the running snip server",
	Long:    `Create a short link on the running snip server. Without --key a random key is generated.`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		initializeGlobalState()

		key, _ := cmd.Flags().GetString("key")
		notifyFlag, _ := cmd.Flags().GetBool("notify")

		settings, err := config.LoadSettings()
		if err != nil {
			settings = config.DefaultSettings()
		}

		baseURL, token, err := resolveAPIConnection(cmd)
		if err != nil {
			exitWithError(err)
		}
		service := core.NewRemoteRedirectService(baseURL, token)

		opts := addOptions{
			Key:      key,
			URL:      args[0],
			BaseURL:  baseURL,
			Copy:     settings.General.CopyToClipboard,
			Notifier: notify.New(os.Stdout, notifyFlag || settings.General.DesktopNotifications),
		}
		if err := runAdd(os.Stdout, service, opts); err != nil {
			os.Exit(1)
		}
	},
}

type addOptions struct {
	Key      string
	URL      string
	BaseURL  string
	Copy     bool
	Notifier *notify.Notifier
}

// runAdd creates the redirect and reports the outcome through a toast.
func runAdd(out io.Writer, service core.RedirectService, opts addOptions) error {
	r, err := service.Create(opts.Key, opts.URL)
	if err != nil {
		opts.Notifier.Toast(false, "Failed to create redirect")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	fmt.Fprintf(out, "%s/%s -> %s\n", opts.BaseURL, r.Key, r.URL)

	if !opts.Copy {
		opts.Notifier.Toast(true, "Redirect created successfully")
		return nil
	}
	if err := clipboard.Write(r.Key); err != nil {
		utils.Debug("Failed to copy: %v", err)
		opts.Notifier.Toast(true, "Redirect created successfully")
		return nil
	}
	opts.Notifier.Toast(true, "Shortend URL copied to clipboard")
	return nil
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringP("key", "k", "", "Short key to use (default: random)")
	addCmd.Flags().Bool("notify", false, "Show a desktop notification")
}
