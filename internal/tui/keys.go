package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the entire application
type KeyMap struct {
	Dashboard DashboardKeyMap
	Form      FormKeyMap
	Confirm   ConfirmKeyMap
}

// DashboardKeyMap defines keybindings for the redirect list
type DashboardKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	New     key.Binding
	Copy    key.Binding
	Delete  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// FormKeyMap defines keybindings for the create redirect form
type FormKeyMap struct {
	Next      key.Binding
	Prev      key.Binding
	Randomize key.Binding
	Submit    key.Binding
	Close     key.Binding
}

// ConfirmKeyMap defines keybindings for the delete confirmation
type ConfirmKeyMap struct {
	Confirm key.Binding
	Cancel  key.Binding
}

// Keys contains all the keybindings for the application
var Keys = KeyMap{
	Dashboard: DashboardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		New: key.NewBinding(
			key.WithKeys("a", "n"),
			key.WithHelp("a", "new redirect"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c", "y"),
			key.WithHelp("c", "copy link"),
		),
		Delete: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "delete"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	},
	Form: FormKeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Randomize: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "random key"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "shorten"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "ctrl+c"),
			key.WithHelp("esc", "back"),
		),
	},
	Confirm: ConfirmKeyMap{
		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "delete"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n", "cancel"),
		),
	},
}

// ShortHelp returns keybindings to show in the mini help view
func (k DashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.New, k.Copy, k.Delete, k.Refresh, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k DashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.New, k.Copy, k.Delete},
		{k.Refresh, k.Quit},
	}
}

func (k FormKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Randomize, k.Submit, k.Close}
}

func (k FormKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev}, {k.Randomize, k.Submit, k.Close}}
}

func (k ConfirmKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}

func (k ConfirmKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
