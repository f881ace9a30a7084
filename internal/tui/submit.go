package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/snip-links/snip/internal/events"
	"github.com/snip-links/snip/internal/utils"
)

// CreateRedirectPath is the request path of a form submission.
const CreateRedirectPath = "/api/redirect"

const (
	createdToast      = "Shortend URL copied to clipboard"
	createFailedToast = "Failed to create redirect"
)

func submitRedirect(m RootModel) tea.Cmd {
	service := m.Service
	key := m.form.Value(FieldRedirectKey)
	url := m.form.Value(FieldURL)
	return func() tea.Msg {
		r, err := service.Create(key, url)
		msg := events.RequestCompletedMsg{
			RequestPath: CreateRedirectPath,
			Successful:  err == nil,
			Key:         key,
			Err:         err,
		}
		if r != nil {
			msg.Key = r.Key
		}
		return msg
	}
}

// HandleRequestCompleted reacts to a finished form request. Requests for
// other paths are ignored. On success the key is copied to the clipboard,
// falling back to the key returned by the server when the field was empty,
// the URL field is cleared and a new random key is requested.
func (m *RootModel) HandleRequestCompleted(msg events.RequestCompletedMsg) tea.Cmd {
	if msg.RequestPath != CreateRedirectPath {
		return nil
	}
	m.submitting = false

	if !msg.Successful {
		if msg.Err != nil {
			utils.Debug("%s: create redirect failed: %v", m.form.ID, msg.Err)
		}
		return m.Toast(false, createFailedToast)
	}

	// An empty key field means the server picked the key
	key := m.form.Value(FieldRedirectKey)
	if key == "" {
		key = msg.Key
	}
	if err := m.writeClipboard(key); err != nil {
		utils.Debug("Failed to copy: %v", err)
	}
	cmds := []tea.Cmd{m.Toast(true, createdToast)}

	m.form.SetValue(FieldURL, "")
	cmds = append(cmds, m.Trigger(RandomizeButton), loadRedirects(m.Service))
	return tea.Batch(cmds...)
}
