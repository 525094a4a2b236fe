package app

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/five82/osuradio/internal/radio"
	"github.com/five82/osuradio/internal/state"
)

const (
	defaultPollInterval = 2 * time.Second
	maxBackoff          = 30 * time.Second
)

// StartPoller launches a background goroutine that refreshes the store. The
// cadence backs off exponentially while the daemon is unreachable and returns
// to interval after the first successful poll. It returns immediately.
func StartPoller(ctx context.Context, store *state.Store, client radio.StatusFetcher, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		bo := newPollBackoff(interval)
		for {
			err := refresh(ctx, store, client, logger)
			wait := nextDelay(bo, interval, err)

			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
		}
	}()
}

func newPollBackoff(interval time.Duration) *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * interval
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = max(maxBackoff, interval)
	bo.Reset()
	return bo
}

func nextDelay(bo *backoff.ExponentialBackOff, interval time.Duration, err error) time.Duration {
	if err == nil {
		bo.Reset()
		return interval
	}
	return bo.NextBackOff()
}

// refresh polls status every time and pulls the library only when its size
// changed since the last fetch.
func refresh(ctx context.Context, store *state.Store, client radio.StatusFetcher, logger zerolog.Logger) error {
	status, err := client.FetchStatus(ctx)
	if err != nil {
		store.Update(nil, err)
		logger.Debug().Err(err).Msg("status poll failed")
		return err
	}
	store.Update(status, nil)

	if len(store.Snapshot().Songs) != status.LibrarySize {
		songs, err := client.FetchLibrary(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("library poll failed")
		} else {
			store.SetLibrary(songs)
		}
	}

	ids, err := client.FetchLikes(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("likes poll failed")
		return nil
	}
	store.SetLikes(ids)
	return nil
}
