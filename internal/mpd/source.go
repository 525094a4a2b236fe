// Package mpd feeds playback state from a Music Player Daemon into the
// presence engine, for listening to the osu! library outside the browser.
package mpd

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	gompd "github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog"

	"github.com/five82/osuradio/internal/library"
	"github.com/five82/osuradio/internal/presence"
)

// Notifier receives playback updates.
type Notifier interface {
	Notify(t presence.Track)
}

// Session is one connection to MPD plus its idle watcher.
type Session interface {
	Status() (gompd.Attrs, error)
	CurrentSong() (gompd.Attrs, error)
	Events() <-chan string
	Errors() <-chan error
	Close() error
}

// DialFunc opens a Session.
type DialFunc func(network, addr, password string) (Session, error)

// Options configure the source.
type Options struct {
	Network      string
	Address      string
	Password     string
	ReconnectMin time.Duration
	ReconnectMax time.Duration
	// Refresh re-reads the position while playing so seeks inside the
	// tolerance window still reach the engine. Zero disables it.
	Refresh time.Duration
	Dial    DialFunc
	Logger  zerolog.Logger
}

// Source watches MPD's player subsystem.
type Source struct {
	notifier Notifier
	opts     Options
	logger   zerolog.Logger
}

var errWatcherClosed = errors.New("mpd watcher closed")

// New returns a Source that reports to n.
func New(n Notifier, opts Options) *Source {
	if opts.Network == "" {
		opts.Network = "tcp"
	}
	if opts.ReconnectMin <= 0 {
		opts.ReconnectMin = time.Second
	}
	if opts.ReconnectMax < opts.ReconnectMin {
		opts.ReconnectMax = max(time.Minute, opts.ReconnectMin)
	}
	if opts.Dial == nil {
		opts.Dial = Dial
	}
	return &Source{notifier: n, opts: opts, logger: opts.Logger}
}

// Run watches MPD until ctx is cancelled, reconnecting with backoff.
func (s *Source) Run(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.opts.ReconnectMin
	bo.MaxInterval = s.opts.ReconnectMax
	bo.Reset()

	for {
		connected, err := s.watch(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			bo.Reset()
		}
		wait := bo.NextBackOff()
		s.logger.Warn().Err(err).Dur("retry_in", wait).Msg("mpd connection lost")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// watch runs one session. connected reports whether the dial succeeded.
func (s *Source) watch(ctx context.Context) (connected bool, err error) {
	sess, err := s.opts.Dial(s.opts.Network, s.opts.Address, s.opts.Password)
	if err != nil {
		return false, fmt.Errorf("dial mpd: %w", err)
	}
	defer func() { _ = sess.Close() }()
	s.logger.Info().Str("addr", s.opts.Address).Msg("watching mpd")

	if err := s.push(sess); err != nil {
		return true, err
	}

	var refresh <-chan time.Time
	if s.opts.Refresh > 0 {
		ticker := time.NewTicker(s.opts.Refresh)
		defer ticker.Stop()
		refresh = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return true, ctx.Err()
		case _, ok := <-sess.Events():
			if !ok {
				return true, errWatcherClosed
			}
			if err := s.push(sess); err != nil {
				return true, err
			}
		case err, ok := <-sess.Errors():
			if !ok {
				return true, errWatcherClosed
			}
			return true, err
		case <-refresh:
			if err := s.push(sess); err != nil {
				return true, err
			}
		}
	}
}

func (s *Source) push(sess Session) error {
	status, err := sess.Status()
	if err != nil {
		return fmt.Errorf("mpd status: %w", err)
	}
	song, err := sess.CurrentSong()
	if err != nil {
		return fmt.Errorf("mpd current song: %w", err)
	}
	track, ok := TrackFromAttrs(status, song)
	if !ok {
		return nil
	}
	s.notifier.Notify(track)
	return nil
}

// TrackFromAttrs maps MPD status and current song onto a Track. It reports
// false when nothing is queued.
func TrackFromAttrs(status, song gompd.Attrs) (presence.Track, bool) {
	file := song["file"]
	if file == "" {
		return presence.Track{}, false
	}

	folder := path.Base(path.Dir(file))
	if folder == "." || folder == "/" {
		folder = ""
	}

	title := strings.TrimSpace(song["Title"])
	if title == "" {
		base := path.Base(file)
		title = strings.TrimSuffix(base, path.Ext(base))
	}

	duration := parseFloat(status["duration"])
	if duration == 0 {
		duration = parseFloat(song["duration"])
	}
	elapsed := parseFloat(status["elapsed"])
	if t := status["time"]; (duration == 0 || elapsed == 0) && t != "" {
		if e, d, ok := strings.Cut(t, ":"); ok {
			if elapsed == 0 {
				elapsed = parseFloat(e)
			}
			if duration == 0 {
				duration = parseFloat(d)
			}
		}
	}

	return presence.Track{
		ID:           folder,
		Title:        title,
		Artist:       strings.TrimSpace(song["Artist"]),
		BeatmapSetID: library.FolderSetID(folder),
		Position:     elapsed,
		Duration:     duration,
		Playing:      status["state"] == "play",
	}, true
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}
