package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/osuradio/internal/library"
	"github.com/five82/osuradio/internal/radio"
)

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Status              radio.Status
	HasStatus           bool
	Songs               []library.Song
	Liked               map[string]struct{}
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive poll failures
}

// IsOffline returns true when the daemon has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// IsLiked reports whether the song id is in the liked set.
func (s Snapshot) IsLiked(id string) bool {
	_, ok := s.Liked[id]
	return ok
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored status. When err is non-nil the previous data is
// kept but the error is recorded for visibility.
func (s *Store) Update(status *radio.Status, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
		return
	}

	if status != nil {
		s.snapshot.Status = *status
		s.snapshot.HasStatus = true
	} else {
		s.snapshot.HasStatus = false
	}
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
}

// SetLibrary replaces the cached song list.
func (s *Store) SetLibrary(songs []library.Song) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Songs = cloneSongs(songs)
}

// SetLikes replaces the liked set.
func (s *Store) SetLikes(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	liked := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		liked[id] = struct{}{}
	}
	s.snapshot.Liked = liked
}

// MarkLiked updates a single entry after a toggle so the UI reflects it
// before the next poll.
func (s *Store) MarkLiked(id string, liked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := cloneLiked(s.snapshot.Liked)
	if next == nil {
		next = make(map[string]struct{})
	}
	if liked {
		next[id] = struct{}{}
	} else {
		delete(next, id)
	}
	s.snapshot.Liked = next
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Songs = cloneSongs(s.snapshot.Songs)
	snap.Liked = cloneLiked(s.snapshot.Liked)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneSongs(songs []library.Song) []library.Song {
	if len(songs) == 0 {
		return nil
	}
	dup := make([]library.Song, len(songs))
	copy(dup, songs)
	return dup
}

func cloneLiked(liked map[string]struct{}) map[string]struct{} {
	if liked == nil {
		return nil
	}
	dup := make(map[string]struct{}, len(liked))
	for id := range liked {
		dup[id] = struct{}{}
	}
	return dup
}
