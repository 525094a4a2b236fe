package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/five82/osuradio/internal/config"
	"github.com/five82/osuradio/internal/logging"
	"github.com/five82/osuradio/internal/prefs"
	"github.com/five82/osuradio/internal/radio"
	"github.com/five82/osuradio/internal/state"
	"github.com/five82/osuradio/internal/ui"
)

// Options configure the terminal monitor.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/osuradio/tui.toml
	Listen     string // daemon address; empty uses the config value
	LogLevel   string
	PollEvery  time.Duration // zero uses default
}

const tuiLogName = "osuradio-tui.log"

// Run boots the monitor TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.Listen); v != "" {
		cfg.Listen = v
	}
	if v := strings.TrimSpace(opts.LogLevel); v != "" {
		cfg.LogLevel = v
	}

	// The alternate screen owns the terminal, so the monitor only logs to a file.
	logger, closer, err := logging.New(logging.Options{
		Level: cfg.LogLevel,
		File:  filepath.Join(filepath.Dir(cfg.LogPath()), tuiLogName),
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn().Err(err).Msg("load tui prefs")
	}

	client, err := radio.NewClient(cfg.Listen)
	if err != nil {
		return fmt.Errorf("init api client: %w", err)
	}

	store := &state.Store{}

	interval := defaultPollInterval
	if opts.PollEvery > 0 {
		interval = opts.PollEvery
	}

	// Populate the store before the first frame.
	_ = refresh(ctx, store, client, logger)

	StartPoller(ctx, store, client, interval, logging.Component(logger, "poller"))

	return ui.Run(ui.Options{
		Context:   ctx,
		Client:    client,
		Store:     store,
		Config:    &cfg,
		PollTick:  time.Second,
		ThemeName: userPrefs.Theme,
		ViewName:  userPrefs.View,
		PrefsPath: opts.PrefsPath,
		Logger:    logging.Component(logger, "ui"),
	})
}
