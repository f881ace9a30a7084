// Package notify reports the outcome of CLI commands as a coloured line and,
// when enabled, a desktop notification.
package notify

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/gen2brain/beeep"

	"github.com/snip-links/snip/internal/tui/colors"
	"github.com/snip-links/snip/internal/utils"
)

const appTitle = "snip"

var desktopNotify = func(title, message string) error {
	return beeep.Notify(title, message, "")
}

var (
	successStyle = lipgloss.NewStyle().Foreground(colors.StateSuccess).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(colors.StateError).Bold(true)
)

// Notifier prints toasts to Out and optionally mirrors them to the desktop.
type Notifier struct {
	Out     io.Writer
	Desktop bool
}

// New returns a Notifier writing to out.
func New(out io.Writer, desktop bool) *Notifier {
	return &Notifier{Out: out, Desktop: desktop}
}

// Toast shows message in green when success is true and in red otherwise.
func (n *Notifier) Toast(success bool, message string) {
	marker, style := "✔", successStyle
	if !success {
		marker, style = "✘", failureStyle
	}
	fmt.Fprintln(n.Out, style.Render(marker+" "+message))

	if !n.Desktop {
		return
	}
	if err := desktopNotify(appTitle, message); err != nil {
		utils.Debug("Desktop notification failed: %v", err)
	}
}
