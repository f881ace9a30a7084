package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/snip-links/snip/internal/config"
	"github.com/snip-links/snip/internal/core"
	"github.com/snip-links/snip/internal/tui"
)

var connectCmd = &cobra.Command{
	Use:   "connect [host:port]",
	Short: "Open the dashboard against a running snip server",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) > 0 {
			_ = cmd.Flags().Set("server", args[0])
		}

		baseURL, token, err := resolveAPIConnection(cmd)
		if err != nil {
			exitWithError(err)
		}
		fmt.Printf("Connecting to %s...\n", baseURL)

		service := core.NewRemoteRedirectService(baseURL, token)
		defer func() { _ = service.Shutdown() }()

		// Verify connection
		if _, err := service.List(); err != nil {
			exitWithError(fmt.Errorf("failed to connect: %w", err))
		}

		stream, cleanup, err := service.StreamEvents(context.Background())
		if err != nil {
			exitWithError(fmt.Errorf("failed to start event stream: %w", err))
		}
		defer cleanup()

		settings, err := config.LoadSettings()
		if err != nil {
			settings = config.DefaultSettings()
		}
		tui.ApplyTheme(settings.General.Theme)

		m := tui.InitialRootModel(service, baseURL, stream)
		p := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := p.Run(); err != nil {
			exitWithError(fmt.Errorf("running TUI: %w", err))
		}
	},
}

func init() {
	rootCmd.AddCommand(connectCmd)
}
