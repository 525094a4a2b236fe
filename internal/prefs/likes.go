package prefs

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

const defaultLikesPath = "~/.local/share/osuradio/likes.toml"

// DefaultLikesPath returns the default liked songs file path.
func DefaultLikesPath() string {
	return defaultLikesPath
}

type likesFile struct {
	Liked []string `toml:"liked"`
}

// Likes is the persisted set of liked song ids.
type Likes struct {
	path string

	mu  sync.RWMutex
	ids map[string]struct{}
}

// OpenLikes loads the liked set from path. A missing file is an empty set.
func OpenLikes(path string) (*Likes, error) {
	resolved, err := resolvePath(path, defaultLikesPath)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	l := &Likes{path: resolved, ids: make(map[string]struct{})}

	bytes, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return l, nil
		}
		return nil, fmt.Errorf("read likes: %w", err)
	}

	var file likesFile
	if err := toml.Unmarshal(bytes, &file); err != nil {
		return nil, fmt.Errorf("parse likes: %w", err)
	}
	for _, id := range file.Liked {
		if id = strings.TrimSpace(id); id != "" {
			l.ids[id] = struct{}{}
		}
	}
	return l, nil
}

// Path returns the resolved backing file.
func (l *Likes) Path() string { return l.path }

// Toggle flips id in the set, persists it, and reports whether id is now liked.
// The in-memory set is left unchanged when the write fails.
func (l *Likes) Toggle(id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, errors.New("song id is empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_, liked := l.ids[id]
	if liked {
		delete(l.ids, id)
	} else {
		l.ids[id] = struct{}{}
	}

	if err := l.saveLocked(); err != nil {
		if liked {
			l.ids[id] = struct{}{}
		} else {
			delete(l.ids, id)
		}
		return liked, err
	}
	return !liked, nil
}

// Has reports whether id is liked.
func (l *Likes) Has(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.ids[id]
	return ok
}

// IDs returns the liked ids in sorted order.
func (l *Likes) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.ids))
	for id := range l.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of liked songs.
func (l *Likes) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.ids)
}

func (l *Likes) saveLocked() error {
	ids := make([]string, 0, len(l.ids))
	for id := range l.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	bytes, err := toml.Marshal(likesFile{Liked: ids})
	if err != nil {
		return fmt.Errorf("marshal likes: %w", err)
	}
	return writeFile(l.path, bytes)
}
