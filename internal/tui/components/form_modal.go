package components

import (
	"github.com/snip-links/snip/internal/tui/colors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

// FormModal renders a labelled column of inputs with a validation message
// under each field that reports one.
type FormModal struct {
	Title        string
	Inputs       []textinput.Model
	Labels       []string
	Errors       []string
	FocusedInput int
	Help         help.Model
	HelpKeys     help.KeyMap
	BorderColor  lipgloss.TerminalColor
	Width        int
}

// View renders the inner content (without border box).
func (m FormModal) View() string {
	labelStyle := lipgloss.NewStyle().Width(10).Foreground(colors.LightGray)
	focusedLabel := labelStyle.Foreground(colors.NeonPink).Bold(true)
	errorStyle := lipgloss.NewStyle().MarginLeft(10).Foreground(colors.StateError)

	content := []string{""}
	for i := 0; i < len(m.Inputs) && i < len(m.Labels); i++ {
		style := labelStyle
		if i == m.FocusedInput {
			style = focusedLabel
		}
		content = append(content, lipgloss.JoinHorizontal(lipgloss.Left, style.Render(m.Labels[i]), m.Inputs[i].View()))
		if i < len(m.Errors) && m.Errors[i] != "" {
			content = append(content, errorStyle.Render(m.Errors[i]))
		}
		content = append(content, "")
	}

	content = append(content, m.Help.View(m.HelpKeys))
	return lipgloss.NewStyle().Padding(0, 2).Render(lipgloss.JoinVertical(lipgloss.Left, content...))
}

// Boxed renders the form inside a rounded border with the title on top.
func (m FormModal) Boxed() string {
	titleStyle := lipgloss.NewStyle().Foreground(m.BorderColor).Bold(true).Padding(0, 2)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.BorderColor)
	if m.Width > 0 {
		box = box.Width(m.Width)
	}
	return box.Render(lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(m.Title), m.View()))
}
