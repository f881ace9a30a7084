package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/snip-links/snip/internal/keygen"
	"github.com/snip-links/snip/internal/urlcheck"
)

// Field and action names of the create redirect form.
const (
	FormID           = "createRedirectForm"
	FieldURL         = "url"
	FieldRedirectKey = "redirectKeyInput"
	RandomizeButton  = "randomizeButton"
)

// InputWidth is the visible width of each form field in cells.
const InputWidth = 48

// Form is the create redirect form: a URL field and a short key field, each
// with a custom validity message shown under it.
type Form struct {
	// ID names the form in logs.
	ID       string
	inputs   []textinput.Model
	names    []string
	labels   []string
	validity []string
	focused  int
}

// NewForm builds an empty form with the URL field focused.
func NewForm() Form {
	urlInput := textinput.New()
	urlInput.Placeholder = "https://example.com/some/long/path"
	urlInput.Width = InputWidth
	urlInput.Prompt = ""
	urlInput.CharLimit = 2048
	urlInput.Focus()

	keyInput := textinput.New()
	keyInput.Placeholder = "abcd"
	keyInput.Width = InputWidth
	keyInput.Prompt = ""
	keyInput.CharLimit = keygen.MaxLength

	return Form{
		ID:       FormID,
		inputs:   []textinput.Model{urlInput, keyInput},
		names:    []string{FieldURL, FieldRedirectKey},
		labels:   []string{"URL", "Key"},
		validity: make([]string, 2),
	}
}

func (f *Form) index(name string) int {
	for i, n := range f.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Value returns the current value of the named field, or "" for unknown names.
func (f *Form) Value(name string) string {
	if i := f.index(name); i >= 0 {
		return f.inputs[i].Value()
	}
	return ""
}

// SetValue replaces the value of the named field without running validation.
func (f *Form) SetValue(name, value string) {
	if i := f.index(name); i >= 0 {
		f.inputs[i].SetValue(value)
		f.inputs[i].CursorEnd()
		f.validity[i] = ""
	}
}

// SetCustomValidity sets the message shown under the named field; "" marks it valid.
func (f *Form) SetCustomValidity(name, message string) {
	if i := f.index(name); i >= 0 {
		f.validity[i] = message
	}
}

// Validity returns the message currently attached to the named field.
func (f *Form) Validity(name string) string {
	if i := f.index(name); i >= 0 {
		return f.validity[i]
	}
	return ""
}

// ValidateURL runs the URL check against the url field.
func (f *Form) ValidateURL() {
	f.SetCustomValidity(FieldURL, urlcheck.FieldValidity(f.Value(FieldURL)))
}

// ValidateKey checks the short key field. An empty key is left to the server.
func (f *Form) ValidateKey() {
	msg := ""
	if k := f.Value(FieldRedirectKey); k != "" {
		if err := keygen.Validate(k); err != nil {
			msg = err.Error()
		}
	}
	f.SetCustomValidity(FieldRedirectKey, msg)
}

// ReportValidity validates every field and reports whether the form may be
// submitted.
func (f *Form) ReportValidity() bool {
	f.ValidateURL()
	f.ValidateKey()
	for _, msg := range f.validity {
		if msg != "" {
			return false
		}
	}
	return true
}

// Focused returns the name of the focused field.
func (f *Form) Focused() string {
	return f.names[f.focused]
}

// Focus moves the cursor to field i, wrapping around.
func (f *Form) Focus(i int) tea.Cmd {
	n := len(f.inputs)
	i = ((i % n) + n) % n
	f.inputs[f.focused].Blur()
	// Leaving the URL field counts as a blur
	if f.names[f.focused] == FieldURL && i != f.focused {
		f.ValidateURL()
	}
	f.focused = i
	return f.inputs[i].Focus()
}

// Update forwards msg to the focused input and revalidates it on change.
func (f *Form) Update(msg tea.Msg) tea.Cmd {
	before := f.inputs[f.focused].Value()
	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	if f.inputs[f.focused].Value() != before {
		switch f.names[f.focused] {
		case FieldURL:
			f.ValidateURL()
		case FieldRedirectKey:
			f.ValidateKey()
		}
	}
	return cmd
}
