package tui

import (
	"github.com/snip-links/snip/internal/tui/colors"

	"github.com/charmbracelet/lipgloss"
)

// Re-export colors from colors package
var (
	ColorNeonPurple   = colors.NeonPurple
	ColorNeonPink     = colors.NeonPink
	ColorNeonCyan     = colors.NeonCyan
	ColorDarkGray     = colors.DarkGray
	ColorGray         = colors.Gray
	ColorLightGray    = colors.LightGray
	ColorWhite        = colors.White
	ColorStateError   = colors.StateError
	ColorStateWarning = colors.StateWarning
	ColorStateSuccess = colors.StateSuccess
	ColorStateInfo    = colors.StateInfo
)

// === Layout Styles ===
var (
	// Standard pane border
	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 1)

	// Focus style for the active pane
	ActivePaneStyle = PaneStyle.
			BorderForeground(ColorNeonPink)

	// The "snip" header
	LogoStyle = lipgloss.NewStyle().
			Foreground(ColorNeonPurple).
			Bold(true)

	HostStyle = lipgloss.NewStyle().
			Foreground(ColorLightGray)

	// === Text Styles ===

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorNeonCyan).
			Bold(true).
			MarginBottom(1)

	// Redirect rows
	KeyStyle = lipgloss.NewStyle().
			Foreground(ColorNeonPink).
			Bold(true)

	URLStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	VisitsStyle = lipgloss.NewStyle().
			Foreground(ColorStateInfo)

	SelectedRowStyle = lipgloss.NewStyle().
				Background(ColorGray)

	EmptyStyle = lipgloss.NewStyle().
			Foreground(ColorLightGray).
			Italic(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorStateError)

	// Toasts
	ToastSuccessStyle = lipgloss.NewStyle().
				Foreground(colors.ToastText).
				Background(colors.ToastSuccess).
				Padding(1, 2).
				MarginTop(1)

	ToastErrorStyle = lipgloss.NewStyle().
			Foreground(colors.ToastText).
			Background(colors.ToastError).
			Padding(1, 2).
			MarginTop(1)
)
