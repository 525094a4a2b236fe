package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/five82/osuradio/internal/library"
	"github.com/five82/osuradio/internal/prefs"
	"github.com/five82/osuradio/internal/presence"
	"github.com/five82/osuradio/internal/radio"
)

// Engine is the presence coalescer as seen by the API.
type Engine interface {
	Notify(t presence.Track)
	Current() (presence.Track, time.Time, bool)
	Last() (presence.LastUpdate, bool)
}

// Connection is the presence connection manager as seen by the API.
type Connection interface {
	Connect(ctx context.Context) error
	State() presence.ConnectionState
}

// Options wire the server to the rest of the daemon.
type Options struct {
	Library          *library.Library
	Likes            *prefs.Likes
	Engine           Engine
	Connection       Connection
	ClientID         string
	WebDir           string
	MPD              bool
	Throttle         time.Duration
	SnapshotInterval time.Duration
	Logger           zerolog.Logger
}

const (
	defaultThrottle         = 250 * time.Millisecond
	defaultSnapshotInterval = 15 * time.Second
	maxUpdateBody           = 64 << 10
	shutdownTimeout         = 5 * time.Second
)

var audioContentTypes = map[string]string{
	".mp3": "audio/mpeg",
	".ogg": "audio/ogg",
}

// Server is the daemon's HTTP API.
type Server struct {
	ctx         context.Context
	opts        Options
	logger      zerolog.Logger
	broadcaster *Broadcaster
	startedAt   time.Time

	mu          sync.Mutex
	lastPayload *presence.Payload
}

// New builds a Server. Background work started by handlers runs under ctx.
func New(ctx context.Context, opts Options) *Server {
	if opts.Throttle <= 0 {
		opts.Throttle = defaultThrottle
	}
	if opts.SnapshotInterval == 0 {
		opts.SnapshotInterval = defaultSnapshotInterval
	}
	s := &Server{
		ctx:       ctx,
		opts:      opts,
		logger:    opts.Logger,
		startedAt: time.Now(),
	}
	s.broadcaster = NewBroadcaster(s.statusMessage, opts.Throttle, opts.SnapshotInterval, opts.Logger)
	return s
}

// ObserveDispatch records the payload last sent to the presence service.
func (s *Server) ObserveDispatch(_ presence.Track, p presence.Payload) {
	s.mu.Lock()
	s.lastPayload = &p
	s.mu.Unlock()
	s.broadcaster.Queue()
}

// ObserveState pushes connection state changes to /ws clients.
func (s *Server) ObserveState(presence.ConnectionState) {
	s.broadcaster.Queue()
}

// Broadcaster exposes the /ws fan-out.
func (s *Server) Broadcaster() *Broadcaster {
	return s.broadcaster
}

// Status assembles the current daemon status.
func (s *Server) Status() radio.Status {
	st := radio.Status{
		Connection:  s.opts.Connection.State().String(),
		ClientID:    s.opts.ClientID,
		LibrarySize: s.opts.Library.Len(),
		MPD:         s.opts.MPD,
		StartedAt:   s.startedAt,
	}
	if s.opts.Likes != nil {
		st.LikedCount = s.opts.Likes.Len()
	}
	if t, at, ok := s.opts.Engine.Current(); ok {
		st.NowPlaying = radio.NowPlayingFromTrack(t, at)
	}
	if last, ok := s.opts.Engine.Last(); ok {
		st.LastSent = &last
	}
	s.mu.Lock()
	if s.lastPayload != nil {
		p := *s.lastPayload
		st.Presence = &p
	}
	s.mu.Unlock()
	return st
}

func (s *Server) statusMessage() Message {
	return Message{Type: MsgStatus, Payload: s.Status()}
}

// Handler returns the API routes wrapped in the server middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/library", s.handleLibrary)
	mux.HandleFunc("POST /api/scan", s.handleScan)
	mux.HandleFunc("GET /api/audio", s.handleAudio)
	mux.HandleFunc("POST /api/update", s.handleUpdate)
	mux.HandleFunc("POST /api/connect", s.handleConnect)
	mux.HandleFunc("GET /api/likes", s.handleLikes)
	mux.HandleFunc("POST /api/likes/{id}", s.handleToggleLike)

	if dir := strings.TrimSpace(s.opts.WebDir); dir != "" {
		s.logger.Info().Str("dir", dir).Msg("serving frontend from filesystem")
		mux.Handle("/", http.FileServer(http.Dir(dir)))
	}

	return s.logRequests(securityHeaders(mux))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("api listening")

	select {
	case err := <-errCh:
		s.broadcaster.Stop()
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.broadcaster.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("ws upgrade failed")
		return
	}

	s.logger.Debug().Str("remote", r.RemoteAddr).Msg("ws client connected")
	c := s.broadcaster.AddClient(conn)

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			s.logger.Debug().Str("remote", r.RemoteAddr).Msg("ws client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Status())
}

func (s *Server) handleLibrary(w http.ResponseWriter, r *http.Request) {
	songs, err := s.opts.Library.Songs(r.Context())
	if err != nil {
		if errors.Is(err, library.ErrNoSongsDir) {
			s.logger.Warn().Err(err).Msg("library unavailable")
			writeJSON(w, http.StatusOK, []library.Song{})
			return
		}
		writeJSON(w, http.StatusInternalServerError, radio.Result{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	songs, err := s.opts.Library.Rescan(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("library scan failed")
		writeJSON(w, http.StatusInternalServerError, radio.ScanResponse{Songs: []library.Song{}, Error: err.Error()})
		return
	}
	s.broadcaster.Queue()
	writeJSON(w, http.StatusOK, radio.ScanResponse{Success: true, Songs: songs})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	path, id := query.Get("path"), query.Get("id")
	if path == "" && id == "" {
		writeJSON(w, http.StatusBadRequest, radio.Result{Error: "missing path"})
		return
	}

	if _, err := s.opts.Library.Songs(r.Context()); err != nil && !errors.Is(err, library.ErrNoSongsDir) {
		s.logger.Warn().Err(err).Msg("library scan failed")
	}

	var (
		song library.Song
		ok   bool
	)
	if id != "" {
		song, ok = s.opts.Library.Lookup(id)
	} else {
		song, ok = s.opts.Library.AudioPath(path)
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, radio.Result{Error: "file not found"})
		return
	}

	f, err := os.Open(song.AudioPath)
	if err != nil {
		writeJSON(w, http.StatusNotFound, radio.Result{Error: "file not found"})
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		writeJSON(w, http.StatusNotFound, radio.Result{Error: "file not found"})
		return
	}

	if ct, ok := audioContentTypes[strings.ToLower(filepath.Ext(song.AudioPath))]; ok {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeContent(w, r, filepath.Base(song.AudioPath), info.ModTime(), f)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req radio.UpdateRequest
	body := http.MaxBytesReader(w, r.Body, maxUpdateBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, radio.Result{Error: fmt.Sprintf("invalid body: %v", err)})
		return
	}

	s.opts.Engine.Notify(req.Track())
	s.broadcaster.Queue()
	writeJSON(w, http.StatusOK, radio.Result{Success: true})
}

func (s *Server) handleConnect(w http.ResponseWriter, _ *http.Request) {
	go func() {
		if err := s.opts.Connection.Connect(s.ctx); err != nil {
			s.logger.Warn().Err(err).Msg("requested presence connect failed")
		}
	}()
	writeJSON(w, http.StatusOK, radio.Result{Success: true})
}

func (s *Server) handleLikes(w http.ResponseWriter, _ *http.Request) {
	if s.opts.Likes == nil {
		writeJSON(w, http.StatusOK, radio.LikesResponse{IDs: []string{}})
		return
	}
	writeJSON(w, http.StatusOK, radio.LikesResponse{IDs: s.opts.Likes.IDs()})
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	if s.opts.Likes == nil {
		writeJSON(w, http.StatusServiceUnavailable, radio.Result{Error: "likes unavailable"})
		return
	}
	id := r.PathValue("id")
	liked, err := s.opts.Likes.Toggle(id)
	if err != nil {
		s.logger.Warn().Err(err).Str("song", id).Msg("toggle like failed")
		writeJSON(w, http.StatusInternalServerError, radio.Result{Error: err.Error()})
		return
	}
	s.broadcaster.Queue()
	writeJSON(w, http.StatusOK, radio.LikesResponse{IDs: s.opts.Likes.IDs(), ID: id, Liked: liked})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// checkOrigin admits same-host and loopback browser origins.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Host == r.Host {
		return true
	}
	switch parsed.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}
