//go:build !windows && !darwin

package deeplink

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXDGRegistrarWritesEntry(t *testing.T) {
	dir := t.TempDir()
	var calls [][]string
	r := &XDGRegistrar{
		DataHome: dir,
		Run: func(name string, args ...string) error {
			calls = append(calls, append([]string{name}, args...))
			return nil
		},
	}
	require.NoError(t, r.Register("hermes", "/opt/hermes/hermes"))

	data, err := os.ReadFile(filepath.Join(dir, "applications", "hermes-handler.desktop"))
	require.NoError(t, err)
	entry := string(data)
	assert.True(t, strings.HasPrefix(entry, "[Desktop Entry]\n"))
	assert.Contains(t, entry, `Exec="/opt/hermes/hermes" %u`)
	assert.Contains(t, entry, "MimeType=x-scheme-handler/hermes;")

	require.NotEmpty(t, calls)
	assert.Equal(t, []string{"xdg-mime", "default", "hermes-handler.desktop", "x-scheme-handler/hermes"}, calls[0])
}

func TestXDGRegistrarMimeFailure(t *testing.T) {
	r := &XDGRegistrar{
		DataHome: t.TempDir(),
		Run:      func(string, ...string) error { return errors.New("not found") },
	}
	assert.Error(t, r.Register("hermes", "/bin/true"))
}

func TestXDGDataHomeEnv(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	assert.Equal(t, "/tmp/xdg-data", (&XDGRegistrar{}).dataHome())
}
