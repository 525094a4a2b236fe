package presence

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/five82/osuradio/internal/discord"
)

// Track is the playback state reported by the player on every update.
type Track struct {
	ID           string
	Title        string
	Artist       string
	Creator      string
	BeatmapSetID string
	Position     float64 // seconds
	Duration     float64 // seconds
	Playing      bool
}

// Button is an action link attached to the presence.
type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Payload is the presence document handed to the connection manager.
// Timestamps are Unix seconds; zero means omitted.
type Payload struct {
	Details        string               `json:"details"`
	State          string               `json:"state,omitempty"`
	Type           discord.ActivityType `json:"type"`
	StartTimestamp int64                `json:"startTimestamp,omitempty"`
	EndTimestamp   int64                `json:"endTimestamp,omitempty"`
	LargeImageKey  string               `json:"largeImageKey"`
	LargeImageText string               `json:"largeImageText,omitempty"`
	Buttons        []Button             `json:"buttons,omitempty"`
}

// HasTimestamps reports whether the payload carries a progress window.
func (p Payload) HasTimestamps() bool {
	return p.StartTimestamp != 0 || p.EndTimestamp != 0
}

const (
	// FallbackImageKey names the uploaded logo asset used when no cover exists.
	FallbackImageKey = "logo"
	// PausedLabel replaces the progress bar while playback is paused.
	PausedLabel = "Paused"

	idleDetails   = "zZz"
	idleImageURL  = "https://upload.wikimedia.org/wikipedia/commons/thumb/1/1e/Osu%21_Logo_2016.svg/2048px-Osu%21_Logo_2016.svg.png"
	assetBaseURL  = "https://assets.ppy.sh/beatmaps"
	beatmapSetURL = "https://osu.ppy.sh/beatmapsets/"
	maxTextRunes  = 128
)

// AssetURL is the remote cover image for a beatmap set.
func AssetURL(beatmapSetID string) string {
	return coverURL(assetBaseURL, beatmapSetID)
}

func coverURL(base, beatmapSetID string) string {
	return fmt.Sprintf("%s/%s/covers/list@2x.jpg", strings.TrimRight(base, "/"), url.PathEscape(beatmapSetID))
}

// IdlePayload is published as soon as the connection becomes ready.
func IdlePayload() Payload {
	return Payload{
		Details:       idleDetails,
		Type:          discord.ActivityListening,
		LargeImageKey: idleImageURL,
	}
}

// AssetChecker answers whether a beatmap set has a remote cover image.
type AssetChecker interface {
	Exists(ctx context.Context, beatmapSetID string) bool
}

// BuilderOptions configure payload construction.
type BuilderOptions struct {
	ShowButtons bool
	ProjectURL  string
	Now         func() time.Time
}

// Builder maps playback state onto presence payloads.
type Builder struct {
	assets AssetChecker
	opts   BuilderOptions
}

// NewBuilder returns a Builder that consults assets for cover images.
func NewBuilder(assets AssetChecker, opts BuilderOptions) *Builder {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Builder{assets: assets, opts: opts}
}

// Build produces the payload for t. It never fails: a cover that cannot be
// confirmed falls back to the logo asset.
func (b *Builder) Build(ctx context.Context, t Track) Payload {
	p := Payload{
		Details:       clampText(t.Title),
		State:         clampText(t.Artist),
		Type:          discord.ActivityListening,
		LargeImageKey: FallbackImageKey,
	}

	setID := strings.TrimSpace(t.BeatmapSetID)
	if setID != "" && b.assets != nil && b.assets.Exists(ctx, setID) {
		p.LargeImageKey = AssetURL(setID)
	}

	if t.Playing && t.Duration > 0 {
		remaining := math.Max(t.Duration-t.Position, 0)
		p.EndTimestamp = b.opts.Now().Unix() + int64(math.Round(remaining))
		p.StartTimestamp = p.EndTimestamp - int64(math.Round(t.Duration))
	} else {
		p.LargeImageText = PausedLabel
	}

	if b.opts.ShowButtons && setID != "" {
		p.Buttons = b.buttons(setID)
	}
	return p
}

func (b *Builder) buttons(setID string) []Button {
	buttons := make([]Button, 0, discord.MaxButtons)
	if u := strings.TrimSpace(b.opts.ProjectURL); u != "" {
		buttons = append(buttons, Button{Label: "osu! Radio", URL: u})
	}
	buttons = append(buttons, Button{Label: "Go to this map on osu!", URL: beatmapSetURL + url.PathEscape(setID)})
	return buttons
}

// clampText enforces the service's 128 character field limit.
func clampText(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= maxTextRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxTextRunes-1]) + "…"
}
