package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLogs(t *testing.T, dir string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "debug-*.log"))
	require.NoError(t, err)
	var b strings.Builder
	for _, m := range matches {
		data, err := os.ReadFile(m)
		require.NoError(t, err)
		b.Write(data)
	}
	return b.String()
}

func TestDebug_WritesToConfiguredDir(t *testing.T) {
	dir := t.TempDir()
	ConfigureDebug(dir)
	t.Cleanup(func() { ConfigureDebug("") })

	Debug("created redirect %s", "abcd")

	out := readLogs(t, dir)
	assert.Contains(t, out, "created redirect abcd")
	assert.Contains(t, out, `"level":"debug"`)
}

func TestDebug_NoDirIsNoop(t *testing.T) {
	ConfigureDebug("")
	Debug("nothing to see")
}

func TestSetLevel(t *testing.T) {
	dir := t.TempDir()
	ConfigureDebug(dir)
	t.Cleanup(func() {
		_ = SetLevel("debug")
		ConfigureDebug("")
	})

	require.NoError(t, SetLevel("INFO"))
	assert.Equal(t, zerolog.InfoLevel, Logger().GetLevel())

	Debug("hidden message")
	l := Logger()
	l.Info().Msg("visible message")

	out := readLogs(t, dir)
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visible message")

	assert.Error(t, SetLevel("loud"))
}

func TestCleanupLogs(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"debug-20240101-000000.log",
		"debug-20240102-000000.log",
		"debug-20240103-000000.log",
		"debug-20240104-000000.log",
		"notes.txt",
	}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o644))
	}

	removed, err := CleanupLogs(dir, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	for _, n := range names[:2] {
		_, err := os.Stat(filepath.Join(dir, n))
		assert.True(t, os.IsNotExist(err), "%s should be removed", n)
	}
	for _, n := range names[2:] {
		_, err := os.Stat(filepath.Join(dir, n))
		assert.NoError(t, err, "%s should be kept", n)
	}
}

func TestCleanupLogs_MissingDir(t *testing.T) {
	removed, err := CleanupLogs(filepath.Join(t.TempDir(), "missing"), 1)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
