package urlcheck

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// maxLabelLength is the DNS label limit, one below what the dashboard pattern
// would accept.
const maxLabelLength = 63

// isPrivatePrefix reports whether host starts with a dotted form inside
// 10/8, 127/8, 169.254/16, 192.168/16 or 172.16/12. The test is a prefix
// test, so "10.0.0.1.example.com" is refused as well.
func isPrivatePrefix(host string) bool {
	switch {
	case strings.HasPrefix(host, "10"):
		return hasDottedDigits(host[2:], 3)
	case strings.HasPrefix(host, "127"):
		return hasDottedDigits(host[3:], 3)
	case strings.HasPrefix(host, "169.254"), strings.HasPrefix(host, "192.168"):
		return hasDottedDigits(host[7:], 2)
	case strings.HasPrefix(host, "172.") && len(host) >= 6:
		second := host[4:6]
		if (second[0] == '1' && second[1] >= '6' && second[1] <= '9') ||
			(second[0] == '2' && isDigit(second[1])) ||
			(second[0] == '3' && (second[1] == '0' || second[1] == '1')) {
			return hasDottedDigits(host[6:], 2)
		}
	}
	return false
}

// hasDottedDigits reports whether s starts with n groups of "." followed by
// one to three digits.
func hasDottedDigits(s string, n int) bool {
	for g := 0; g < n; g++ {
		if s == "" || s[0] != '.' {
			return false
		}
		s = s[1:]
		d := 0
		for d < len(s) && isDigit(s[d]) {
			d++
		}
		if d == 0 {
			return false
		}
		if g < n-1 && d > 3 {
			return false
		}
		s = s[min(d, 3):]
	}
	return true
}

// isPublicIPv4 checks a dotted quad whose first octet is 1-223, whose middle
// octets are 0-255 and whose last octet is 1-254.
func isPublicIPv4(host string) bool {
	parts := strings.Split(host, ".")
	if len(parts) != 4 {
		return false
	}
	return isLeadOctet(parts[0], 223) &&
		isMiddleOctet(parts[1]) &&
		isMiddleOctet(parts[2]) &&
		isLeadOctet(parts[3], 254)
}

// isLeadOctet accepts decimal values 1..limit without leading zeros.
func isLeadOctet(s string, limit int) bool {
	if len(s) == 0 || len(s) > 3 || s[0] == '0' {
		return false
	}
	v, ok := atoi(s)
	return ok && v >= 1 && v <= limit
}

// isMiddleOctet accepts one or two digits of any kind ("07" included) or a
// three digit value from 100 to 255.
func isMiddleOctet(s string) bool {
	v, ok := atoi(s)
	if !ok {
		return false
	}
	switch len(s) {
	case 1, 2:
		return true
	case 3:
		return v >= 100 && v <= 255
	}
	return false
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	v := 0
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
		v = v*10 + int(s[i]-'0')
	}
	return v, true
}

// isDomain checks one or more labels, each followed by a dot, then a
// top-level label of two or more letters and an optional trailing dot.
func isDomain(host string) bool {
	host = strings.TrimSuffix(host, ".")
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, l := range labels[:len(labels)-1] {
		if !isLabel(l) {
			return false
		}
	}
	return isTLD(labels[len(labels)-1])
}

// isLabel accepts 1-63 letters, digits or non-Latin-1 runes, with '-' and
// '_' allowed only between them.
func isLabel(l string) bool {
	if l == "" {
		return false
	}
	n := 0
	for i, w := 0, 0; i < len(l); i += w {
		var r rune
		r, w = utf8.DecodeRuneInString(l[i:])
		switch {
		case isLabelRune(r, w):
		case (r == '-' || r == '_') && i > 0 && i+w < len(l):
		default:
			return false
		}
		n += utf16.RuneLen(r)
	}
	return n <= maxLabelLength
}

// isTLD accepts two or more letters or non-Latin-1 runes, counted in UTF-16
// units as a browser would.
func isTLD(l string) bool {
	n := 0
	for i, w := 0, 0; i < len(l); i += w {
		var r rune
		r, w = utf8.DecodeRuneInString(l[i:])
		if !isLetter(r) && !isExtended(r, w) {
			return false
		}
		n += utf16.RuneLen(r)
	}
	return n >= 2
}

func isLabelRune(r rune, width int) bool {
	return isLetter(r) || (r >= '0' && r <= '9') || isExtended(r, width)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isExtended matches runes at or above U+00A1 that are not whitespace and
// not the product of invalid UTF-8.
func isExtended(r rune, width int) bool {
	if r == utf8.RuneError && width <= 1 {
		return false
	}
	return r >= '\u00A1' && !isSpace(r)
}
