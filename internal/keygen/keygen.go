// Package keygen produces and checks the short keys that name a redirect.
package keygen

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// DefaultLength is the size of a generated key.
	DefaultLength = 4
	// MaxLength bounds user supplied keys.
	MaxLength = 64

	alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// reserved keys collide with routes served by the HTTP server.
var reserved = map[string]bool{
	"api":              true,
	"ui":               true,
	"auth":             true,
	"assets":           true,
	"healthcheck":      true,
	"metrics":          true,
	"favicon.ico":      true,
	"site.webmanifest": true,
}

// ValidationError is returned from Validate.
type ValidationError string

func (v ValidationError) Error() string {
	return string(v)
}

// Generate returns a random key of n lowercase letters and digits.
// n <= 0 selects DefaultLength.
func Generate(n int) (string, error) {
	if n <= 0 {
		n = DefaultLength
	}
	limit := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}

// Validate returns nil if key can be stored and routed.
func Validate(key string) error {
	if key == "" {
		return ValidationError("key must not be empty")
	}
	if len(key) > MaxLength {
		return ValidationError(fmt.Sprintf("key must be at most %d characters", MaxLength))
	}
	if IsReserved(key) {
		return ValidationError(fmt.Sprintf("key %q is reserved", key))
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			// OK.
		default:
			return ValidationError("key may only contain letters, digits, '-' and '_'")
		}
	}
	return nil
}

// IsReserved reports whether key names a built-in route.
func IsReserved(key string) bool {
	return reserved[key]
}
