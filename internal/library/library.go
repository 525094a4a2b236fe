package library

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Library caches the result of the last scan.
type Library struct {
	songsDir string
	logger   zerolog.Logger

	mu      sync.RWMutex
	scanned bool
	songs   []Song
	byID    map[string]int
	byPath  map[string]int
}

// New returns a Library over songsDir. Nothing is read until first use.
func New(songsDir string, logger zerolog.Logger) *Library {
	return &Library{songsDir: songsDir, logger: logger}
}

// Dir returns the Songs directory being scanned.
func (l *Library) Dir() string { return l.songsDir }

// Songs returns the cached songs, scanning on first use.
func (l *Library) Songs(ctx context.Context) ([]Song, error) {
	l.mu.RLock()
	if l.scanned {
		songs := cloneSongs(l.songs)
		l.mu.RUnlock()
		return songs, nil
	}
	l.mu.RUnlock()
	return l.Rescan(ctx)
}

// Rescan rereads the Songs directory and replaces the cache.
func (l *Library) Rescan(ctx context.Context) ([]Song, error) {
	songs, err := Scan(ctx, l.songsDir, l.logger)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]int, len(songs))
	byPath := make(map[string]int, len(songs))
	for i, s := range songs {
		byID[s.ID] = i
		byPath[filepath.Clean(s.AudioPath)] = i
	}

	l.mu.Lock()
	l.songs = songs
	l.byID = byID
	l.byPath = byPath
	l.scanned = true
	l.mu.Unlock()

	l.logger.Info().Int("songs", len(songs)).Str("dir", l.songsDir).Msg("library scanned")
	return cloneSongs(songs), nil
}

// Lookup finds a song by folder id.
func (l *Library) Lookup(id string) (Song, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.byID[id]
	if !ok {
		return Song{}, false
	}
	return l.songs[i], true
}

// AudioPath reports whether path is the audio file of a scanned song. Only
// such paths may be served.
func (l *Library) AudioPath(path string) (Song, bool) {
	if path == "" {
		return Song{}, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	i, ok := l.byPath[filepath.Clean(path)]
	if !ok {
		return Song{}, false
	}
	return l.songs[i], true
}

// Len returns the number of cached songs.
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.songs)
}

func cloneSongs(songs []Song) []Song {
	if len(songs) == 0 {
		return []Song{}
	}
	dup := make([]Song, len(songs))
	copy(dup, songs)
	return dup
}
