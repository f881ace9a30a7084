// Package clipboard moves short links and URLs between the dashboard and the
// system clipboard.
package clipboard

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/snip-links/snip/internal/urlcheck"
)

const maxURLLength = 2048

var (
	clipboardReadAll  = clipboard.ReadAll
	clipboardWriteAll = clipboard.WriteAll
)

// Write places text on the system clipboard.
func Write(text string) error {
	if err := clipboardWriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// ExtractURL returns text when it is an acceptable URL with an explicit
// scheme, or "".
func ExtractURL(text string) string {
	text = strings.TrimSpace(text)

	// Quick reject: too long, contains newlines, or obviously not a URL
	if len(text) > maxURLLength || strings.ContainsAny(text, "\n\r") {
		return ""
	}

	lower := strings.ToLower(text)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") && !strings.HasPrefix(lower, "ftp://") {
		return ""
	}

	if !urlcheck.IsValid(text) {
		return ""
	}
	return text
}

// ReadURL returns the clipboard contents when they hold a URL, or "".
func ReadURL() string {
	text, err := clipboardReadAll()
	if err != nil {
		return ""
	}
	return ExtractURL(text)
}
