package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/osuradio/internal/library"
	"github.com/five82/osuradio/internal/radio"
	"github.com/five82/osuradio/internal/state"
)

type fakeFetcher struct {
	mu           sync.Mutex
	status       *radio.Status
	statusErr    error
	songs        []library.Song
	likes        []string
	libraryCalls int
	statusCalls  int
}

func (f *fakeFetcher) FetchStatus(context.Context) (*radio.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	s := *f.status
	return &s, nil
}

func (f *fakeFetcher) FetchLibrary(context.Context) ([]library.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.libraryCalls++
	return f.songs, nil
}

func (f *fakeFetcher) FetchLikes(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.likes, nil
}

func (f *fakeFetcher) calls() (status, lib int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls, f.libraryCalls
}

func TestNextDelay(t *testing.T) {
	baseInterval := 2 * time.Second
	bo := newPollBackoff(baseInterval)
	boom := errors.New("boom")

	// Each failure doubles the wait until the cap.
	for i, want := range []time.Duration{
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	} {
		assert.Equal(t, want, nextDelay(bo, baseInterval, boom), "failure %d", i+1)
	}

	// Success returns to the base cadence and restarts the sequence.
	assert.Equal(t, baseInterval, nextDelay(bo, baseInterval, nil))
	assert.Equal(t, 4*time.Second, nextDelay(bo, baseInterval, boom))
}

func TestNextDelay_MaxCap(t *testing.T) {
	baseInterval := 2 * time.Second
	bo := newPollBackoff(baseInterval)
	for failures := 0; failures <= 20; failures++ {
		got := nextDelay(bo, baseInterval, errors.New("down"))
		assert.LessOrEqual(t, got, maxBackoff, "failure %d", failures)
	}
}

func TestRefresh_PopulatesStore(t *testing.T) {
	songs := []library.Song{{ID: "1 a"}, {ID: "2 b"}}
	f := &fakeFetcher{
		status: &radio.Status{Connection: "ready", LibrarySize: 2},
		songs:  songs,
		likes:  []string{"2 b"},
	}
	store := &state.Store{}

	require.NoError(t, refresh(context.Background(), store, f, zerolog.Nop()))

	snap := store.Snapshot()
	assert.True(t, snap.HasStatus)
	assert.True(t, snap.Status.Ready())
	assert.Equal(t, songs, snap.Songs)
	assert.True(t, snap.IsLiked("2 b"))
	assert.False(t, snap.IsLiked("1 a"))

	// The library is only refetched when its size changes.
	require.NoError(t, refresh(context.Background(), store, f, zerolog.Nop()))
	_, libCalls := f.calls()
	assert.Equal(t, 1, libCalls)
}

func TestRefresh_ErrorKeepsLibrary(t *testing.T) {
	f := &fakeFetcher{
		status: &radio.Status{LibrarySize: 1},
		songs:  []library.Song{{ID: "1 a"}},
	}
	store := &state.Store{}
	require.NoError(t, refresh(context.Background(), store, f, zerolog.Nop()))

	f.mu.Lock()
	f.statusErr = errors.New("connection refused")
	f.mu.Unlock()

	err := refresh(context.Background(), store, f, zerolog.Nop())
	require.Error(t, err)

	snap := store.Snapshot()
	assert.Len(t, snap.Songs, 1)
	assert.Equal(t, 1, snap.ConsecutiveFailures)
	assert.EqualError(t, snap.LastError, "connection refused")
}

func TestStartPoller_RefreshesUntilCancelled(t *testing.T) {
	f := &fakeFetcher{status: &radio.Status{Connection: "connecting"}}
	store := &state.Store{}
	ctx, cancel := context.WithCancel(context.Background())

	StartPoller(ctx, store, f, 10*time.Millisecond, zerolog.Nop())

	require.Eventually(t, func() bool {
		calls, _ := f.calls()
		return calls >= 3
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "connecting", store.Snapshot().Status.Connection)

	cancel()
	// Let an in-flight refresh finish, then expect no further polls.
	time.Sleep(30 * time.Millisecond)
	before, _ := f.calls()
	time.Sleep(50 * time.Millisecond)
	after, _ := f.calls()
	assert.Equal(t, before, after)
}
