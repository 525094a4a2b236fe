package mpd

import (
	"fmt"

	gompd "github.com/fhs/gompd/v2/mpd"
)

type gompdSession struct {
	client  *gompd.Client
	watcher *gompd.Watcher
}

// Dial connects a command client and a player watcher to MPD.
func Dial(network, addr, password string) (Session, error) {
	client, err := gompd.DialAuthenticated(network, addr, password)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	watcher, err := gompd.NewWatcher(network, addr, password, "player")
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("watch: %w", err)
	}
	return &gompdSession{client: client, watcher: watcher}, nil
}

func (s *gompdSession) Status() (gompd.Attrs, error)      { return s.client.Status() }
func (s *gompdSession) CurrentSong() (gompd.Attrs, error) { return s.client.CurrentSong() }
func (s *gompdSession) Events() <-chan string             { return s.watcher.Event }
func (s *gompdSession) Errors() <-chan error              { return s.watcher.Error }

func (s *gompdSession) Close() error {
	werr := s.watcher.Close()
	cerr := s.client.Close()
	if werr != nil {
		return werr
	}
	return cerr
}
