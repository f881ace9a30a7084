package components

import (
	"github.com/snip-links/snip/internal/tui/colors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
)

// ConfirmationModal renders a styled confirmation dialog box
type ConfirmationModal struct {
	Title       string
	Message     string
	Detail      string      // Optional additional detail line (e.g., short link, URL)
	Keys        help.KeyMap // Key bindings to show in help
	Help        help.Model
	BorderColor lipgloss.TerminalColor
	Width       int
}

// ConfirmationKeyMap defines keybindings for a confirmation modal
type ConfirmationKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// ShortHelp returns keybindings to show
func (k ConfirmationKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k ConfirmationKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// NewConfirmationModal creates a modal with default styling
func NewConfirmationModal(title, message, detail string, keys help.KeyMap, helpModel help.Model, borderColor lipgloss.TerminalColor) ConfirmationModal {
	return ConfirmationModal{
		Title:       title,
		Message:     message,
		Detail:      detail,
		Keys:        keys,
		Help:        helpModel,
		BorderColor: borderColor,
		Width:       60,
	}
}

// View renders the modal content (without the box wrapper or help text)
func (m ConfirmationModal) View() string {
	detailStyle := lipgloss.NewStyle().
		Foreground(colors.NeonPurple).
		Bold(true)

	content := m.Message
	if m.Detail != "" {
		content = lipgloss.JoinVertical(lipgloss.Center,
			content,
			"",
			detailStyle.Render(m.Detail),
		)
	}
	return content
}

// Centered returns the modal centered in the given dimensions.
// Help text is pushed to the last line
func (m ConfirmationModal) Centered(width, height int) string {
	titleStyle := lipgloss.NewStyle().
		Foreground(m.BorderColor).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(m.BorderColor).
		Padding(1, 4).
		Width(m.Width)

	helpStyle := lipgloss.NewStyle().
		Foreground(colors.Gray).
		Align(lipgloss.Center)

	fullContent := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render(m.Title),
		"",
		m.View(),
		"",
		helpStyle.Render(m.Help.View(m.Keys)),
	)

	if width <= 0 || height <= 0 {
		return boxStyle.Render(fullContent)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		boxStyle.Render(fullContent))
}
