// Package urlcheck decides whether user input plausibly names a fetchable
// web URL (http, https or ftp) that does not point into a private or loopback
// IPv4 range.
//
// The grammar is evaluated as a chain of small checks rather than one
// regular expression, so every call runs in time linear in the input length.
package urlcheck

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// InvalidURLMessage is the field-level error shown for a rejected URL.
const InvalidURLMessage = "Please provide a valid URL"

// DefaultScheme is prepended to input that carries no "://".
const DefaultScheme = "http://"

var (
	ErrInvalidURL  = errors.New("invalid URL")
	ErrWhitespace  = fmt.Errorf("%w: contains whitespace", ErrInvalidURL)
	ErrScheme      = fmt.Errorf("%w: unsupported scheme", ErrInvalidURL)
	ErrHost        = fmt.Errorf("%w: malformed host", ErrInvalidURL)
	ErrPrivateHost = fmt.Errorf("%w: private or loopback address", ErrInvalidURL)
	ErrPort        = fmt.Errorf("%w: malformed port", ErrInvalidURL)
)

// Normalize trims the input and prepends DefaultScheme when no "://" is present.
func Normalize(input string) string {
	input = strings.TrimFunc(input, isSpace)
	if !strings.Contains(input, "://") {
		input = DefaultScheme + input
	}
	return input
}

// IsValid reports whether input, once normalized, is an acceptable URL.
func IsValid(input string) bool {
	return Validate(input) == nil
}

// FieldValidity returns the message a form field should display for value,
// or "" when the value is acceptable.
func FieldValidity(value string) string {
	if IsValid(value) {
		return ""
	}
	return InvalidURLMessage
}

// Validate normalizes input and checks it against the URL grammar. The
// returned error wraps ErrInvalidURL and names the first failing part.
func Validate(input string) error {
	s := Normalize(input)

	if strings.IndexFunc(s, isSpace) >= 0 {
		return ErrWhitespace
	}

	rest, ok := stripScheme(s)
	if !ok {
		return ErrScheme
	}

	return matchAuthority(rest)
}

// stripScheme removes an optional "http:", "https:" or "ftp:" prefix followed
// by the mandatory "//".
func stripScheme(s string) (string, bool) {
	if i := strings.IndexByte(s, ':'); i >= 0 && !strings.HasPrefix(s, "//") {
		switch strings.ToLower(s[:i]) {
		case "http", "https", "ftp":
			s = s[i+1:]
		default:
			return "", false
		}
	}
	if !strings.HasPrefix(s, "//") {
		return "", false
	}
	return s[2:], true
}

// matchAuthority tries every userinfo split of rest. The host and port never
// contain '@' or a path delimiter, so only the last '@' of each
// delimiter-bounded segment can end a userinfo; that keeps the scan linear.
func matchAuthority(rest string) error {
	firstErr := matchHostPort(rest[:delimIndex(rest)])
	if firstErr == nil {
		return nil
	}

	for seg := 0; seg < len(rest); {
		end := seg + delimIndex(rest[seg:])
		if at := strings.LastIndexByte(rest[seg:end], '@'); at >= 0 {
			at += seg
			if at > 0 && matchHostPort(rest[at+1:end]) == nil {
				return nil
			}
		}
		seg = end + 1
	}

	return firstErr
}

// delimIndex returns the index of the first path, query or fragment
// delimiter in s, or len(s).
func delimIndex(s string) int {
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		return i
	}
	return len(s)
}

// matchHostPort checks "host" or "host:port" with a 2-5 digit port.
func matchHostPort(hp string) error {
	host := hp
	if i := strings.IndexByte(hp, ':'); i >= 0 {
		host = hp[:i]
		if !isPort(hp[i+1:]) {
			return ErrPort
		}
	}
	if host == "" {
		return ErrHost
	}
	if isPrivatePrefix(host) {
		return ErrPrivateHost
	}
	if isPublicIPv4(host) || isDomain(host) {
		return nil
	}
	return ErrHost
}

func isPort(s string) bool {
	if len(s) < 2 || len(s) > 5 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isSpace matches the whitespace set of browser URL inputs: Unicode space
// separators plus U+FEFF, but not U+0085.
func isSpace(r rune) bool {
	if r == '\uFEFF' {
		return true
	}
	return r != '\u0085' && unicode.IsSpace(r)
}
