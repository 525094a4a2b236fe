package mpd

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gompd "github.com/fhs/gompd/v2/mpd"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/osuradio/internal/presence"
)

type recordingNotifier struct {
	mu     sync.Mutex
	tracks []presence.Track
}

func (r *recordingNotifier) Notify(t presence.Track) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks = append(r.tracks, t)
}

func (r *recordingNotifier) all() []presence.Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]presence.Track(nil), r.tracks...)
}

type fakeSession struct {
	mu     sync.Mutex
	status gompd.Attrs
	song   gompd.Attrs
	events chan string
	errs   chan error
	closed atomic.Bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		status: gompd.Attrs{"state": "play", "elapsed": "12.5", "duration": "200.1"},
		song:   gompd.Attrs{"file": "osu/Songs/292301 xi - Blue Zenith/audio.mp3", "Title": "Blue Zenith", "Artist": "xi"},
		events: make(chan string, 4),
		errs:   make(chan error, 1),
	}
}

func (f *fakeSession) Status() (gompd.Attrs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status, nil
}

func (f *fakeSession) CurrentSong() (gompd.Attrs, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.song, nil
}

func (f *fakeSession) Events() <-chan string { return f.events }
func (f *fakeSession) Errors() <-chan error  { return f.errs }
func (f *fakeSession) Close() error {
	f.closed.Store(true)
	return nil
}

func (f *fakeSession) setState(state string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = gompd.Attrs{"state": state, "elapsed": "30", "duration": "200.1"}
}

func TestTrackFromAttrs(t *testing.T) {
	track, ok := TrackFromAttrs(
		gompd.Attrs{"state": "play", "elapsed": "12.5", "duration": "200.1"},
		gompd.Attrs{"file": "Songs/292301 xi - Blue Zenith/audio.mp3", "Title": "Blue Zenith", "Artist": "xi"},
	)
	require.True(t, ok)
	assert.Equal(t, presence.Track{
		ID:           "292301 xi - Blue Zenith",
		Title:        "Blue Zenith",
		Artist:       "xi",
		BeatmapSetID: "292301",
		Position:     12.5,
		Duration:     200.1,
		Playing:      true,
	}, track)
}

func TestTrackFromAttrs_FallbacksAndLegacyTime(t *testing.T) {
	track, ok := TrackFromAttrs(
		gompd.Attrs{"state": "pause", "time": "42:180"},
		gompd.Attrs{"file": "loose/untagged song.ogg"},
	)
	require.True(t, ok)
	assert.Equal(t, "untagged song", track.Title)
	assert.False(t, track.Playing)
	assert.InDelta(t, 42, track.Position, 0.001)
	assert.InDelta(t, 180, track.Duration, 0.001)
}

func TestTrackFromAttrs_NothingQueued(t *testing.T) {
	_, ok := TrackFromAttrs(gompd.Attrs{"state": "stop"}, gompd.Attrs{})
	assert.False(t, ok)
}

func TestSource_PushesOnConnectAndEvents(t *testing.T) {
	sess := newFakeSession()
	n := &recordingNotifier{}
	src := New(n, Options{
		Address: "fake",
		Dial:    func(string, string, string) (Session, error) { return sess, nil },
		Logger:  zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx) }()

	require.Eventually(t, func() bool { return len(n.all()) == 1 }, time.Second, time.Millisecond)
	assert.True(t, n.all()[0].Playing)

	sess.setState("pause")
	sess.events <- "player"
	require.Eventually(t, func() bool { return len(n.all()) == 2 }, time.Second, time.Millisecond)
	assert.False(t, n.all()[1].Playing)

	cancel()
	require.NoError(t, <-done)
	assert.True(t, sess.closed.Load())
}

func TestSource_ReconnectsAfterWatcherError(t *testing.T) {
	var dials atomic.Int32
	first := newFakeSession()
	n := &recordingNotifier{}
	src := New(n, Options{
		ReconnectMin: 5 * time.Millisecond,
		ReconnectMax: 10 * time.Millisecond,
		Dial: func(string, string, string) (Session, error) {
			switch dials.Add(1) {
			case 1:
				return first, nil
			case 2:
				return nil, errors.New("connection refused")
			default:
				return newFakeSession(), nil
			}
		},
		Logger: zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = src.Run(ctx) }()

	require.Eventually(t, func() bool { return len(n.all()) == 1 }, time.Second, time.Millisecond)
	first.errs <- errors.New("connection reset")

	require.Eventually(t, func() bool { return dials.Load() >= 3 && len(n.all()) == 2 }, 2*time.Second, time.Millisecond)
	assert.True(t, first.closed.Load())
}
