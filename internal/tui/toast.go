package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ToastDuration is how long a toast stays on screen.
const ToastDuration = 3000 * time.Millisecond

type toast struct {
	id      int
	success bool
	message string
}

// toastExpiredMsg removes the toast with the matching id.
type toastExpiredMsg struct {
	id int
}

// Toast shows message pinned to the bottom-right corner, green when success
// is true and red otherwise. The returned command removes it after
// ToastDuration.
func (m *RootModel) Toast(success bool, message string) tea.Cmd {
	m.nextToastID++
	id := m.nextToastID
	m.toasts = append(m.toasts, toast{id: id, success: success, message: message})
	return tea.Tick(ToastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (m *RootModel) dismissToast(id int) {
	for i, t := range m.toasts {
		if t.id == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

func (m RootModel) renderToasts() string {
	if len(m.toasts) == 0 {
		return ""
	}
	var rendered []string
	for _, t := range m.toasts {
		style := ToastErrorStyle
		if t.success {
			style = ToastSuccessStyle
		}
		rendered = append(rendered, style.Render(t.message))
	}
	block := lipgloss.JoinVertical(lipgloss.Right, rendered...)
	if m.width > 0 {
		block = lipgloss.PlaceHorizontal(m.width, lipgloss.Right, block)
	}
	return strings.TrimPrefix(block, "\n")
}
