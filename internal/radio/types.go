package radio

import (
	"math"
	"time"

	"github.com/five82/osuradio/internal/library"
	"github.com/five82/osuradio/internal/presence"
)

// Status mirrors the payload returned by /api/status and pushed over /ws.
type Status struct {
	Connection  string               `json:"connection"`
	ClientID    string               `json:"clientId"`
	NowPlaying  *NowPlaying          `json:"nowPlaying,omitempty"`
	LastSent    *presence.LastUpdate `json:"lastSent,omitempty"`
	Presence    *presence.Payload    `json:"presence,omitempty"`
	LibrarySize int                  `json:"librarySize"`
	LikedCount  int                  `json:"likedCount"`
	MPD         bool                 `json:"mpd"`
	StartedAt   time.Time            `json:"startedAt"`
}

// Ready reports whether the presence connection is up.
func (s Status) Ready() bool {
	return s.Connection == presence.Ready.String()
}

// NowPlaying is the most recently reported playback state.
type NowPlaying struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	Creator      string    `json:"creator,omitempty"`
	BeatmapSetID string    `json:"beatmapSetID"`
	Position     float64   `json:"position"`
	Duration     float64   `json:"duration"`
	Playing      bool      `json:"isPlaying"`
	ReportedAt   time.Time `json:"reportedAt"`
}

// NowPlayingFromTrack converts a reported track for the wire.
func NowPlayingFromTrack(t presence.Track, at time.Time) *NowPlaying {
	return &NowPlaying{
		ID:           t.ID,
		Title:        t.Title,
		Artist:       t.Artist,
		Creator:      t.Creator,
		BeatmapSetID: t.BeatmapSetID,
		Position:     t.Position,
		Duration:     t.Duration,
		Playing:      t.Playing,
		ReportedAt:   at,
	}
}

// Elapsed extrapolates the playback position to now while playing.
func (n NowPlaying) Elapsed(now time.Time) float64 {
	pos := n.Position
	if n.Playing && !n.ReportedAt.IsZero() {
		pos += now.Sub(n.ReportedAt).Seconds()
	}
	if n.Duration > 0 {
		pos = math.Min(pos, n.Duration)
	}
	return math.Max(pos, 0)
}

// Progress returns the elapsed fraction in [0, 1], or 0 when the duration is unknown.
func (n NowPlaying) Progress(now time.Time) float64 {
	if n.Duration <= 0 {
		return 0
	}
	return n.Elapsed(now) / n.Duration
}

// UpdateRequest is the body of POST /api/update.
type UpdateRequest struct {
	Song        library.Song `json:"song"`
	IsPlaying   bool         `json:"isPlaying"`
	CurrentTime float64      `json:"currentTime"`
	Duration    float64      `json:"duration"`
}

// Track converts the request into the presence engine's input.
func (r UpdateRequest) Track() presence.Track {
	return presence.Track{
		ID:           r.Song.ID,
		Title:        r.Song.Title,
		Artist:       r.Song.Artist,
		Creator:      r.Song.Creator,
		BeatmapSetID: r.Song.BeatmapSetID,
		Position:     r.CurrentTime,
		Duration:     r.Duration,
		Playing:      r.IsPlaying,
	}
}

// Result is the generic acknowledgement body.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ScanResponse mirrors POST /api/scan.
type ScanResponse struct {
	Success bool           `json:"success"`
	Songs   []library.Song `json:"songs"`
	Error   string         `json:"error,omitempty"`
}

// LikesResponse mirrors /api/likes. ID and Liked are set on toggle.
type LikesResponse struct {
	IDs   []string `json:"ids"`
	ID    string   `json:"id,omitempty"`
	Liked bool     `json:"liked,omitempty"`
}
