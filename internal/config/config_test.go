package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets the override variables for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvClientID, EnvShowButtons, EnvOsuDir, EnvListen} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	require.NoError(t, err)

	assert.Equal(t, defaultListen, cfg.Listen)
	assert.Equal(t, filepath.Join(home, "osu!"), cfg.OsuDir)
	assert.Equal(t, DefaultClientID, cfg.Presence.ClientID)
	assert.False(t, cfg.Presence.ShowButtons)
	assert.Equal(t, 10*time.Second, cfg.Presence.ConnectTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Presence.Debounce)
	assert.Equal(t, 2*time.Second, cfg.Presence.PositionTolerance)
	assert.False(t, cfg.MPD.Enabled)
	assert.Equal(t, "tcp", cfg.MPD.Network)
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen = "  0.0.0.0:4000  "
osu_dir = "  ~/games/osu  "
log_level = "DEBUG"

[presence]
client_id = " 42 "
show_buttons = true
debounce = "250ms"
position_tolerance = "3s"

[mpd]
enabled = true
address = "/run/mpd/socket"
network = "unix"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:4000", cfg.Listen)
	assert.Equal(t, filepath.Join(home, "games/osu"), cfg.OsuDir)
	assert.Equal(t, filepath.Join(home, "games/osu", "Songs"), cfg.SongsDir())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "42", cfg.Presence.ClientID)
	assert.True(t, cfg.Presence.ShowButtons)
	assert.Equal(t, 250*time.Millisecond, cfg.Presence.Debounce)
	assert.Equal(t, 3*time.Second, cfg.Presence.PositionTolerance)
	assert.Equal(t, 10*time.Second, cfg.Presence.ConnectTimeout, "unset durations keep defaults")
	assert.True(t, cfg.MPD.Enabled)
	assert.Equal(t, "unix", cfg.MPD.Network)
	assert.Equal(t, "/run/mpd/socket", cfg.MPD.Address)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[presence]
client_id = "from-file"
show_buttons = true
`), 0o600))

	t.Setenv(EnvClientID, "from-env")
	t.Setenv(EnvShowButtons, "false")
	t.Setenv(EnvListen, "127.0.0.1:9000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Presence.ClientID)
	assert.False(t, cfg.Presence.ShowButtons)
	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
}

func TestLoad_ShowButtonsEnvOnMissingFile(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvShowButtons, "true")

	cfg, err := Load(filepath.Join(home, "nope.toml"))
	require.NoError(t, err)
	assert.True(t, cfg.Presence.ShowButtons)
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`listen = [`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_InvalidDurationFails(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[presence]\nconnect_timeout = \"soon\"\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "presence.connect_timeout")
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "a/b"), got)
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	_, err := expandPath("   ")
	assert.Error(t, err)
}

func TestLogPath_DefaultsWhenLogDirEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.LogPath()
	assert.True(t, strings.HasPrefix(got, home), "LogPath = %q, want it under HOME", got)
	assert.True(t, strings.HasSuffix(got, filepath.FromSlash("/osuradio.log")))
}
