package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/osuradio/internal/config"
	"github.com/five82/osuradio/internal/library"
	"github.com/five82/osuradio/internal/logging"
	"github.com/five82/osuradio/internal/mpd"
	"github.com/five82/osuradio/internal/prefs"
	"github.com/five82/osuradio/internal/presence"
	"github.com/five82/osuradio/internal/server"
)

// DaemonOptions configure the presence daemon. Non-empty string fields
// override the config file.
type DaemonOptions struct {
	ConfigPath string
	Listen     string
	OsuDir     string
	LogLevel   string
	LikesPath  string // empty uses ~/.local/share/osuradio/likes.toml
	Console    io.Writer

	// Dialer replaces the local IPC client. Nil uses presence.DiscordDialer.
	Dialer presence.Dialer
	// Listener replaces binding cfg.Listen.
	Listener net.Listener
}

const mpdRefresh = 10 * time.Second

// Serve runs the daemon until ctx is cancelled: the presence connection
// supervisor, the optional MPD source and the HTTP API.
func Serve(ctx context.Context, opts DaemonOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(opts.Listen); v != "" {
		cfg.Listen = v
	}
	if v := strings.TrimSpace(opts.OsuDir); v != "" {
		dir, err := config.ExpandPath(v)
		if err != nil {
			return fmt.Errorf("osu dir: %w", err)
		}
		cfg.OsuDir = dir
	}
	if v := strings.TrimSpace(opts.LogLevel); v != "" {
		cfg.LogLevel = v
	}

	logger, closer, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		File:    cfg.LogPath(),
		Console: opts.Console,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()

	likes, err := prefs.OpenLikes(opts.LikesPath)
	if err != nil {
		return fmt.Errorf("open likes: %w", err)
	}

	dialer := opts.Dialer
	if dialer == nil {
		dialer = presence.DiscordDialer{Logger: logging.Component(logger, "discord")}
	}

	g, gctx := errgroup.WithContext(ctx)

	lib := library.New(cfg.SongsDir(), logging.Component(logger, "library"))
	assets := presence.NewAssetCache(presence.NewHTTPProber(), logging.Component(logger, "assets"))
	builder := presence.NewBuilder(assets, presence.BuilderOptions{
		ShowButtons: cfg.Presence.ShowButtons,
		ProjectURL:  cfg.Presence.ProjectURL,
	})
	manager := presence.NewManager(dialer, presence.ManagerOptions{
		ClientID:     cfg.Presence.ClientID,
		Timeout:      cfg.Presence.ConnectTimeout,
		ReconnectMin: cfg.Presence.ReconnectMin,
		ReconnectMax: cfg.Presence.ReconnectMax,
		Logger:       logging.Component(logger, "presence"),
	})
	coalescer := presence.NewCoalescer(gctx, manager, builder, presence.CoalescerOptions{
		Debounce:  cfg.Presence.Debounce,
		Tolerance: cfg.Presence.PositionTolerance,
		Logger:    logging.Component(logger, "coalescer"),
	})
	defer coalescer.Close()

	srv := server.New(gctx, server.Options{
		Library:    lib,
		Likes:      likes,
		Engine:     coalescer,
		Connection: manager,
		ClientID:   cfg.Presence.ClientID,
		WebDir:     cfg.WebDir,
		MPD:        cfg.MPD.Enabled,
		Logger:     logging.Component(logger, "server"),
	})
	coalescer.OnDispatch(srv.ObserveDispatch)
	manager.OnStateChange(srv.ObserveState)

	logger.Info().
		Str("listen", cfg.Listen).
		Str("songs_dir", lib.Dir()).
		Str("client_id", cfg.Presence.ClientID).
		Bool("mpd", cfg.MPD.Enabled).
		Msg("osuradio starting")

	g.Go(func() error {
		manager.Run(gctx)
		return nil
	})

	if cfg.MPD.Enabled {
		source := mpd.New(coalescer, mpd.Options{
			Network:      cfg.MPD.Network,
			Address:      cfg.MPD.Address,
			Password:     cfg.MPD.Password,
			ReconnectMin: cfg.Presence.ReconnectMin,
			ReconnectMax: cfg.Presence.ReconnectMax,
			Refresh:      mpdRefresh,
			Logger:       logging.Component(logger, "mpd"),
		})
		g.Go(func() error { return source.Run(gctx) })
	}

	g.Go(func() error {
		if opts.Listener != nil {
			return srv.Serve(gctx, opts.Listener)
		}
		return srv.ListenAndServe(gctx, cfg.Listen)
	})

	err = g.Wait()
	logger.Info().Msg("osuradio stopped")
	return err
}
