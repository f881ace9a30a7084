package keygen

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, DefaultLength},
		{-3, DefaultLength},
		{1, 1},
		{12, 12},
	}

	for _, tt := range tests {
		key, err := Generate(tt.n)
		require.NoError(t, err)
		assert.Len(t, key, tt.want)
		for _, c := range key {
			assert.Contains(t, alphabet, string(c))
		}
		assert.NoError(t, Validate(key))
	}
}

func TestGenerate_Varies(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		key, err := Generate(8)
		require.NoError(t, err)
		seen[key] = true
	}
	if len(seen) < 45 {
		t.Errorf("expected mostly distinct keys, got %d of 50", len(seen))
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"abcd", false},
		{"My_Link-2", false},
		{"x", false},
		{strings.Repeat("a", MaxLength), false},
		{strings.Repeat("a", MaxLength+1), true},
		{"", true},
		{"has space", true},
		{"slash/key", true},
		{"dot.key", true},
		{"ümlaut", true},
		{"api", true},
		{"healthcheck", true},
		{"favicon.ico", true},
		{"API", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := Validate(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil {
				var ve ValidationError
				assert.True(t, errors.As(err, &ve))
			}
		})
	}
}
