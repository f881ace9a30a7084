package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/snip-links/snip/internal/config"
	"github.com/snip-links/snip/internal/core"
	"github.com/snip-links/snip/internal/events"
	"github.com/snip-links/snip/internal/store"
	"github.com/snip-links/snip/internal/tui"
	"github.com/snip-links/snip/internal/utils"
)

// Version information - set via ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// GlobalService is the redirect service of the running server.
var GlobalService *core.LocalRedirectService

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "snip",
	Short:   "A self-hosted URL shortener",
	Long:    `snip serves short links from a local SQLite database and manages them from a terminal dashboard.`,
	Version: Version,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		settings := initializeGlobalState()

		// Attempt to acquire lock
		isMaster, err := AcquireLock()
		if err != nil {
			exitWithError(fmt.Errorf("acquiring lock: %w", err))
		}
		if !isMaster {
			fmt.Fprintln(os.Stderr, "Error: snip is already running.")
			fmt.Fprintln(os.Stderr, "Use 'snip add <url>' to shorten a URL through the running instance.")
			os.Exit(1)
		}
		defer func() {
			if err := ReleaseLock(); err != nil {
				utils.Debug("Error releasing lock: %v", err)
			}
		}()

		portFlag, _ := cmd.Flags().GetInt("port")
		bindFlag, _ := cmd.Flags().GetString("bind")
		headless, _ := cmd.Flags().GetBool("headless")
		if portFlag > 0 {
			settings.Server.Port = portFlag
		}
		if bindFlag != "" {
			settings.Server.BindAddress = bindFlag
		}

		GlobalService = core.NewLocalRedirectService(settings)
		defer func() { _ = GlobalService.Shutdown() }()
		defer store.CloseDB()

		port := config.GetPort(settings)
		addr := net.JoinHostPort(settings.Server.BindAddress, strconv.Itoa(port))
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			exitWithError(fmt.Errorf("could not bind to %s: %w", addr, err))
		}

		saveActivePort(port)
		defer removeActivePort()

		server := startHTTPServer(listener, GlobalService, settings)
		defer shutdownHTTPServer(server)

		if headless {
			runHeadless(addr, settings)
			return
		}
		startTUI(settings)
	},
}

// startTUI runs the dashboard against the local service
func startTUI(settings *config.Settings) {
	tui.ApplyTheme(settings.General.Theme)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, cleanup, err := GlobalService.StreamEvents(ctx)
	if err != nil {
		exitWithError(fmt.Errorf("getting event stream: %w", err))
	}
	defer cleanup()

	m := tui.InitialRootModel(GlobalService, config.GetHostURI(settings), stream)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		exitWithError(fmt.Errorf("running program: %w", err))
	}
}

// runHeadless logs redirect events to stdout until interrupted
func runHeadless(addr string, settings *config.Settings) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("snip listening on %s, short links at %s\n", addr, config.GetHostURI(settings))
	StartHeadlessConsumer(ctx)
	<-ctx.Done()
	fmt.Println("Shutting down...")
}

// StartHeadlessConsumer starts a goroutine to consume redirect events and log to stdout
func StartHeadlessConsumer(ctx context.Context) {
	if GlobalService == nil {
		return
	}
	stream, cleanup, err := GlobalService.StreamEvents(ctx)
	if err != nil {
		utils.Debug("Failed to start event stream: %v", err)
		return
	}

	go func() {
		defer cleanup()
		for msg := range stream {
			if line := describeEvent(msg); line != "" {
				fmt.Println(line)
			}
		}
	}()
}

// describeEvent renders an event as a single log line, or "" for events
// that are not worth printing.
func describeEvent(msg any) string {
	switch m := msg.(type) {
	case events.RedirectCreatedMsg:
		return fmt.Sprintf("Created: %s -> %s", m.Key, m.URL)
	case events.RedirectUpdatedMsg:
		return fmt.Sprintf("Updated: %s -> %s", m.Key, m.URL)
	case events.RedirectDeletedMsg:
		return fmt.Sprintf("Deleted: %s", m.Key)
	case events.RedirectsImportedMsg:
		return fmt.Sprintf("Imported: %d redirects", m.Count)
	}
	return ""
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().IntP("port", "p", 0, "Port to listen on (default: settings, $PORT or 8080)")
	rootCmd.Flags().String("bind", "", "Address to bind the HTTP server to (default: settings)")
	rootCmd.Flags().Bool("headless", false, "Serve short links without the dashboard")
	rootCmd.PersistentFlags().String("server", "", "Server address for client commands (default: the local instance)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token for the server (or set SNIP_TOKEN)")
	rootCmd.SetVersionTemplate("snip version {{.Version}}\n")
}

// initializeGlobalState prepares directories, logging and the database, and
// returns the loaded settings
func initializeGlobalState() *config.Settings {
	if err := config.EnsureDirs(); err != nil {
		exitWithError(fmt.Errorf("creating config directories: %w", err))
	}

	logsDir := config.GetLogsDir()
	utils.ConfigureDebug(logsDir)

	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v, using defaults\n", err)
		settings = config.DefaultSettings()
	}
	if err := utils.SetLevel(settings.General.LogLevel); err != nil {
		utils.Debug("%v", err)
	}

	// Clean up old logs
	if n, err := utils.CleanupLogs(logsDir, settings.General.LogRetentionCount); err != nil {
		utils.Debug("Log cleanup failed: %v", err)
	} else if n > 0 {
		utils.Debug("Removed %d old log files", n)
	}

	store.Configure(config.GetDBPath())
	return settings
}
