package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/snip-links/snip/internal/events"
	"github.com/snip-links/snip/internal/utils"
)

// Update handles messages and updates the model
func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case redirectsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.redirects = msg.redirects
		if m.cursor >= len(m.redirects) {
			m.cursor = max(len(m.redirects)-1, 0)
		}
		return m, nil

	case randomKeyMsg:
		if msg.err != nil {
			utils.Debug("Random key request failed: %v", msg.err)
			return m, nil
		}
		m.form.SetValue(FieldRedirectKey, msg.key)
		return m, nil

	case events.RequestCompletedMsg:
		cmd := m.HandleRequestCompleted(msg)
		return m, cmd

	case deleteCompletedMsg:
		if msg.err != nil {
			utils.Debug("Delete %s failed: %v", msg.key, msg.err)
			cmd := m.Toast(false, "Failed to delete redirect")
			return m, cmd
		}
		cmd := m.Toast(true, "Redirect deleted successfully")
		return m, tea.Batch(cmd, loadRedirects(m.Service))

	case toastExpiredMsg:
		m.dismissToast(msg.id)
		return m, nil

	// Changes made elsewhere (CLI, API, other dashboards)
	case events.RedirectCreatedMsg, events.RedirectUpdatedMsg,
		events.RedirectDeletedMsg, events.RedirectsImportedMsg:
		return m, tea.Batch(loadRedirects(m.Service), listenForActivity(m.events))

	case events.RedirectVisitedMsg:
		for i := range m.redirects {
			if m.redirects[i].Key == msg.Key {
				m.redirects[i].Visits = msg.Visits
				break
			}
		}
		return m, listenForActivity(m.events)

	case eventsClosedMsg:
		utils.Debug("Event stream closed")
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case DashboardState:
			return m.updateDashboard(msg)
		case FormState:
			return m.updateForm(msg)
		case ConfirmDeleteState:
			return m.updateConfirm(msg)
		}
	}

	// Cursor blink and other input internals
	if m.state == FormState {
		cmd := m.form.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m RootModel) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.keys.Dashboard
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.redirects)-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.New):
		m.state = FormState
		cmd := m.form.Focus(0)
		return m, cmd

	case key.Matches(msg, keys.Copy):
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.writeClipboard(m.ShortURL(r.Key)); err != nil {
			utils.Debug("Failed to copy: %v", err)
			cmd := m.Toast(false, "Failed to copy link")
			return m, cmd
		}
		cmd := m.Toast(true, "Link copied to clipboard")
		return m, cmd

	case key.Matches(msg, keys.Delete):
		if _, ok := m.selected(); ok {
			m.state = ConfirmDeleteState
		}

	case key.Matches(msg, keys.Refresh):
		return m, loadRedirects(m.Service)
	}
	return m, nil
}

func (m RootModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.keys.Form
	switch {
	case key.Matches(msg, keys.Close):
		m.state = DashboardState
		return m, nil

	case key.Matches(msg, keys.Next):
		cmd := m.form.Focus(m.form.focused + 1)
		return m, cmd

	case key.Matches(msg, keys.Prev):
		cmd := m.form.Focus(m.form.focused - 1)
		return m, cmd

	case key.Matches(msg, keys.Randomize):
		return m, m.Trigger(RandomizeButton)

	case key.Matches(msg, keys.Submit):
		if m.submitting || !m.form.ReportValidity() {
			return m, nil
		}
		m.submitting = true
		return m, submitRedirect(m)
	}

	cmd := m.form.Update(msg)
	return m, cmd
}

func (m RootModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm.Confirm):
		m.state = DashboardState
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, deleteRedirect(m.Service, r.Key)

	case key.Matches(msg, m.keys.Confirm.Cancel):
		m.state = DashboardState
	}
	return m, nil
}
