//go:build !windows

package discord

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndpointPaths_PrefersRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	t.Setenv("TMPDIR", "")
	t.Setenv("TMP", "")
	t.Setenv("TEMP", "")

	paths := endpointPaths()
	assert.Equal(t, filepath.Join("/run/user/1000", "discord-ipc-0"), paths[0])
	assert.Contains(t, paths, filepath.Join("/run/user/1000", "app/com.discordapp.Discord", "discord-ipc-3"))
	assert.Contains(t, paths, filepath.Join("/tmp", "snap.discord", "discord-ipc-9"))
	assert.Len(t, paths, 2*len(endpointSubdirs)*10)
}
