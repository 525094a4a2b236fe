package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything the osuradio daemon and monitor read at startup.
type Config struct {
	Listen   string
	OsuDir   string
	WebDir   string
	LogDir   string
	LogLevel string
	Presence PresenceConfig
	MPD      MPDConfig
}

// PresenceConfig tunes the presence sync engine.
type PresenceConfig struct {
	ClientID          string
	ShowButtons       bool
	ProjectURL        string
	ConnectTimeout    time.Duration
	Debounce          time.Duration
	PositionTolerance time.Duration
	ReconnectMin      time.Duration
	ReconnectMax      time.Duration
}

// MPDConfig enables the optional MPD playback source.
type MPDConfig struct {
	Enabled  bool
	Network  string
	Address  string
	Password string
}

const (
	defaultConfigPath = "~/.config/osuradio/config.toml"
	defaultListen     = "127.0.0.1:3000"
	defaultOsuDir     = "~/osu!"
	defaultLogDir     = "~/.local/share/osuradio/logs"
	defaultLogLevel   = "info"

	// DefaultClientID is the application id registered with the presence service.
	DefaultClientID   = "1037879885772890232"
	defaultProjectURL = "https://github.com/five82/osuradio"

	defaultConnectTimeout    = 10 * time.Second
	defaultDebounce          = 100 * time.Millisecond
	defaultPositionTolerance = 2 * time.Second
	defaultReconnectMin      = 5 * time.Second
	defaultReconnectMax      = 2 * time.Minute

	defaultMPDNetwork = "tcp"
	defaultMPDAddress = "127.0.0.1:6600"
)

// Environment overrides applied after the config file.
const (
	EnvClientID    = "DISCORD_CLIENT_ID"
	EnvShowButtons = "DISCORD_SHOW_BUTTONS"
	EnvOsuDir      = "OSURADIO_OSU_DIR"
	EnvListen      = "OSURADIO_LISTEN"
)

type rawConfig struct {
	Listen   string `toml:"listen"`
	OsuDir   string `toml:"osu_dir"`
	WebDir   string `toml:"web_dir"`
	LogDir   string `toml:"log_dir"`
	LogLevel string `toml:"log_level"`
	Presence struct {
		ClientID          string `toml:"client_id"`
		ShowButtons       bool   `toml:"show_buttons"`
		ProjectURL        string `toml:"project_url"`
		ConnectTimeout    string `toml:"connect_timeout"`
		Debounce          string `toml:"debounce"`
		PositionTolerance string `toml:"position_tolerance"`
		ReconnectMin      string `toml:"reconnect_min"`
		ReconnectMax      string `toml:"reconnect_max"`
	} `toml:"presence"`
	MPD struct {
		Enabled  bool   `toml:"enabled"`
		Network  string `toml:"network"`
		Address  string `toml:"address"`
		Password string `toml:"password"`
	} `toml:"mpd"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Listen:   defaultListen,
		OsuDir:   mustExpand(defaultOsuDir),
		LogDir:   mustExpand(defaultLogDir),
		LogLevel: defaultLogLevel,
		Presence: PresenceConfig{
			ClientID:          DefaultClientID,
			ProjectURL:        defaultProjectURL,
			ConnectTimeout:    defaultConnectTimeout,
			Debounce:          defaultDebounce,
			PositionTolerance: defaultPositionTolerance,
			ReconnectMin:      defaultReconnectMin,
			ReconnectMax:      defaultReconnectMax,
		},
		MPD: MPDConfig{
			Network: defaultMPDNetwork,
			Address: defaultMPDAddress,
		},
	}
}

// Load locates and parses the osuradio config, falling back to defaults when
// missing. Environment overrides are applied last.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := merge(&cfg, raw); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

// LogPath returns the daemon's JSON log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/osuradio.log")
	}
	return filepath.Join(c.LogDir, "osuradio.log")
}

// SongsDir returns the osu! Songs folder scanned for beatmaps.
func (c Config) SongsDir() string {
	return filepath.Join(c.OsuDir, "Songs")
}

func merge(cfg *Config, raw rawConfig) error {
	if v := strings.TrimSpace(raw.Listen); v != "" {
		cfg.Listen = v
	}
	if v := strings.TrimSpace(raw.OsuDir); v != "" {
		cfg.OsuDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.WebDir); v != "" {
		cfg.WebDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.LogDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	p := raw.Presence
	if v := strings.TrimSpace(p.ClientID); v != "" {
		cfg.Presence.ClientID = v
	}
	cfg.Presence.ShowButtons = p.ShowButtons
	if v := strings.TrimSpace(p.ProjectURL); v != "" {
		cfg.Presence.ProjectURL = v
	}
	durations := []struct {
		name string
		raw  string
		dest *time.Duration
	}{
		{"presence.connect_timeout", p.ConnectTimeout, &cfg.Presence.ConnectTimeout},
		{"presence.debounce", p.Debounce, &cfg.Presence.Debounce},
		{"presence.position_tolerance", p.PositionTolerance, &cfg.Presence.PositionTolerance},
		{"presence.reconnect_min", p.ReconnectMin, &cfg.Presence.ReconnectMin},
		{"presence.reconnect_max", p.ReconnectMax, &cfg.Presence.ReconnectMax},
	}
	for _, d := range durations {
		if err := parseDuration(d.name, d.raw, d.dest); err != nil {
			return err
		}
	}
	if cfg.Presence.ReconnectMax < cfg.Presence.ReconnectMin {
		cfg.Presence.ReconnectMax = cfg.Presence.ReconnectMin
	}

	cfg.MPD.Enabled = raw.MPD.Enabled
	if v := strings.TrimSpace(raw.MPD.Network); v != "" {
		cfg.MPD.Network = v
	}
	if v := strings.TrimSpace(raw.MPD.Address); v != "" {
		cfg.MPD.Address = v
	}
	cfg.MPD.Password = raw.MPD.Password
	return nil
}

func parseDuration(name, raw string, dest *time.Duration) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	if d <= 0 {
		return fmt.Errorf("parse %s: must be positive, got %s", name, trimmed)
	}
	*dest = d
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvClientID)); v != "" {
		cfg.Presence.ClientID = v
	}
	if v, ok := os.LookupEnv(EnvShowButtons); ok {
		cfg.Presence.ShowButtons = strings.TrimSpace(v) == "true"
	}
	if v := strings.TrimSpace(os.Getenv(EnvOsuDir)); v != "" {
		cfg.OsuDir = mustExpand(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvListen)); v != "" {
		cfg.Listen = v
	}
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading tilde and makes the path absolute.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
