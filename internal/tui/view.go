package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/snip-links/snip/internal/store"
	"github.com/snip-links/snip/internal/tui/components"
)

const (
	keyColumnWidth    = 14
	visitsColumnWidth = 10
	minURLWidth       = 20
)

func (m RootModel) View() string {
	var body string
	switch m.state {
	case FormState:
		body = lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.renderForm())
	case ConfirmDeleteState:
		body = m.renderConfirm()
	default:
		body = lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.renderList(), m.help.View(m.keys.Dashboard))
	}

	toasts := m.renderToasts()
	if toasts == "" {
		return body
	}
	if m.height > 0 {
		// Pin toasts to the bottom of the screen
		bodyHeight := m.height - lipgloss.Height(toasts)
		if bodyHeight > lipgloss.Height(body) {
			body = lipgloss.PlaceVertical(bodyHeight, lipgloss.Top, body)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, toasts)
}

func (m RootModel) renderHeader() string {
	logo := LogoStyle.Render("✂ snip")
	host := HostStyle.Render(m.HostURI)
	return lipgloss.JoinHorizontal(lipgloss.Bottom, logo, "  ", host) + "\n"
}

func (m RootModel) renderList() string {
	style := ActivePaneStyle
	if m.width > 2 {
		style = style.Width(m.width - 2)
	}

	title := TitleStyle.Render(fmt.Sprintf("Redirects (%d)", len(m.redirects)))
	if m.err != nil {
		return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, ErrorTextStyle.Render("Error: "+m.err.Error())))
	}
	if len(m.redirects) == 0 {
		return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, EmptyStyle.Render("No redirects yet. Press a to shorten a URL.")))
	}

	urlWidth := minURLWidth
	if m.width > 0 {
		urlWidth = max(m.width-keyColumnWidth-visitsColumnWidth-8, minURLWidth)
	}

	rows := []string{title}
	for i, r := range m.redirects {
		row := renderRow(r, urlWidth)
		if i == m.cursor {
			row = SelectedRowStyle.Render(row)
		}
		rows = append(rows, row)
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderRow(r store.Redirect, urlWidth int) string {
	k := KeyStyle.Width(keyColumnWidth).Render(truncate(r.Key, keyColumnWidth-1))
	u := URLStyle.Width(urlWidth).Render(truncate(r.URL, urlWidth-1))
	v := VisitsStyle.Width(visitsColumnWidth).Align(lipgloss.Right).Render(fmt.Sprintf("%d", r.Visits))
	return lipgloss.JoinHorizontal(lipgloss.Top, k, u, v)
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	runes := []rune(s)
	if n <= 0 || len(runes) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}

func (m RootModel) renderForm() string {
	modal := components.FormModal{
		Title:        "Shorten a URL",
		Inputs:       m.form.inputs,
		Labels:       m.form.labels,
		Errors:       m.form.validity,
		FocusedInput: m.form.focused,
		Help:         m.help,
		HelpKeys:     m.keys.Form,
		BorderColor:  ColorNeonPink,
	}
	if m.width > 2 {
		modal.Width = m.width - 2
	}
	out := modal.Boxed()
	if m.submitting {
		out += "\n" + HostStyle.Render("Creating…")
	}
	return out
}

func (m RootModel) renderConfirm() string {
	r, _ := m.selected()
	detail := strings.TrimSpace(m.ShortURL(r.Key) + "\n" + r.URL)
	modal := components.NewConfirmationModal(
		"Delete redirect?",
		"The short link will stop working.",
		detail,
		m.keys.Confirm,
		m.help,
		ColorStateError,
	)
	return modal.Centered(m.width, m.height)
}
