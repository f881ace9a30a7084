package tui

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/snip-links/snip/internal/clipboard"
	"github.com/snip-links/snip/internal/core"
	"github.com/snip-links/snip/internal/store"
)

type UIState int

const (
	DashboardState UIState = iota
	FormState
	ConfirmDeleteState
)

// redirectsLoadedMsg carries the result of a List call.
type redirectsLoadedMsg struct {
	redirects []store.Redirect
	err       error
}

// randomKeyMsg carries a freshly suggested short key.
type randomKeyMsg struct {
	key string
	err error
}

// deleteCompletedMsg reports the outcome of a delete request.
type deleteCompletedMsg struct {
	key string
	err error
}

// eventsClosedMsg is returned once the event stream has been closed.
type eventsClosedMsg struct{}

type RootModel struct {
	Service core.RedirectService
	HostURI string

	redirects []store.Redirect
	cursor    int
	err       error

	width  int
	height int
	state  UIState

	form        Form
	submitting  bool
	toasts      []toast
	nextToastID int

	keys KeyMap
	help help.Model

	events         <-chan any
	writeClipboard func(string) error
}

// InitialRootModel builds the dashboard for service. events may be nil when
// the caller does not stream changes.
func InitialRootModel(service core.RedirectService, hostURI string, events <-chan any) RootModel {
	form := NewForm()
	if u := clipboard.ReadURL(); u != "" {
		form.SetValue(FieldURL, u)
	}

	return RootModel{
		Service:        service,
		HostURI:        hostURI,
		state:          DashboardState,
		form:           form,
		keys:           Keys,
		help:           help.New(),
		events:         events,
		writeClipboard: clipboard.Write,
	}
}

func (m RootModel) Init() tea.Cmd {
	return tea.Batch(
		loadRedirects(m.Service),
		randomizeKey(m.Service),
		listenForActivity(m.events),
	)
}

func listenForActivity(sub <-chan any) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-sub
		if !ok {
			return eventsClosedMsg{}
		}
		return msg
	}
}

func loadRedirects(service core.RedirectService) tea.Cmd {
	return func() tea.Msg {
		list, err := service.List()
		return redirectsLoadedMsg{redirects: list, err: err}
	}
}

func randomizeKey(service core.RedirectService) tea.Cmd {
	return func() tea.Msg {
		key, err := service.RandomKey()
		return randomKeyMsg{key: key, err: err}
	}
}

func deleteRedirect(service core.RedirectService, key string) tea.Cmd {
	return func() tea.Msg {
		return deleteCompletedMsg{key: key, err: service.Delete(key)}
	}
}

// Trigger runs the named form action.
func (m *RootModel) Trigger(action string) tea.Cmd {
	switch action {
	case RandomizeButton:
		return randomizeKey(m.Service)
	}
	return nil
}

// ShortURL returns the public link for key.
func (m RootModel) ShortURL(key string) string {
	if m.HostURI == "" {
		return key
	}
	return m.HostURI + "/" + key
}

func (m RootModel) selected() (store.Redirect, bool) {
	if m.cursor < 0 || m.cursor >= len(m.redirects) {
		return store.Redirect{}, false
	}
	return m.redirects[m.cursor], true
}
