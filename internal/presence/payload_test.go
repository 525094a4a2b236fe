package presence

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/osuradio/internal/discord"
)

type staticAssets map[string]bool

func (s staticAssets) Exists(_ context.Context, id string) bool { return s[id] }

var fixedNow = time.Unix(1_700_000_000, 0)

func newTestBuilder(assets AssetChecker, buttons bool, project string) *Builder {
	return NewBuilder(assets, BuilderOptions{
		ShowButtons: buttons,
		ProjectURL:  project,
		Now:         func() time.Time { return fixedNow },
	})
}

func TestBuilder_PlayingTrackHasProgressWindow(t *testing.T) {
	b := newTestBuilder(staticAssets{"123": true}, false, "")

	p := b.Build(context.Background(), Track{
		Title:        "Blue Zenith",
		Artist:       "xi",
		BeatmapSetID: "123",
		Position:     30.4,
		Duration:     200.6,
		Playing:      true,
	})

	assert.Equal(t, "Blue Zenith", p.Details)
	assert.Equal(t, "xi", p.State)
	assert.Equal(t, discord.ActivityListening, p.Type)
	assert.Equal(t, AssetURL("123"), p.LargeImageKey)
	assert.Equal(t, "https://assets.ppy.sh/beatmaps/123/covers/list@2x.jpg", p.LargeImageKey)
	assert.Empty(t, p.LargeImageText)

	now := fixedNow.Unix()
	assert.Equal(t, now+170, p.EndTimestamp)
	assert.Equal(t, p.EndTimestamp-201, p.StartTimestamp)
	assert.True(t, p.HasTimestamps())
	assert.Empty(t, p.Buttons)
}

func TestBuilder_PausedOmitsTimestamps(t *testing.T) {
	b := newTestBuilder(staticAssets{}, false, "")

	p := b.Build(context.Background(), Track{Title: "t", Artist: "a", Position: 12, Duration: 100})
	assert.False(t, p.HasTimestamps())
	assert.Equal(t, PausedLabel, p.LargeImageText)
}

func TestBuilder_UnknownDurationTreatedAsPaused(t *testing.T) {
	b := newTestBuilder(staticAssets{}, false, "")

	p := b.Build(context.Background(), Track{Title: "t", Playing: true, Duration: 0})
	assert.False(t, p.HasTimestamps())
	assert.Equal(t, PausedLabel, p.LargeImageText)
}

func TestBuilder_PositionPastEndClampsRemaining(t *testing.T) {
	b := newTestBuilder(staticAssets{}, false, "")

	p := b.Build(context.Background(), Track{Title: "t", Playing: true, Position: 150, Duration: 100})
	assert.Equal(t, fixedNow.Unix(), p.EndTimestamp)
	assert.Equal(t, fixedNow.Unix()-100, p.StartTimestamp)
}

func TestBuilder_MissingCoverFallsBackToLogo(t *testing.T) {
	b := newTestBuilder(staticAssets{"123": false}, false, "")

	p := b.Build(context.Background(), Track{Title: "t", BeatmapSetID: "123"})
	assert.Equal(t, FallbackImageKey, p.LargeImageKey)

	p = b.Build(context.Background(), Track{Title: "t"})
	assert.Equal(t, FallbackImageKey, p.LargeImageKey)

	p = NewBuilder(nil, BuilderOptions{}).Build(context.Background(), Track{Title: "t", BeatmapSetID: "123"})
	assert.Equal(t, FallbackImageKey, p.LargeImageKey)
}

func TestBuilder_ButtonsRequireFlagAndSetID(t *testing.T) {
	withButtons := newTestBuilder(staticAssets{}, true, "https://example.com/radio")

	p := withButtons.Build(context.Background(), Track{Title: "t", BeatmapSetID: "42"})
	require.Len(t, p.Buttons, 2)
	assert.Equal(t, Button{Label: "osu! Radio", URL: "https://example.com/radio"}, p.Buttons[0])
	assert.Equal(t, Button{Label: "Go to this map on osu!", URL: "https://osu.ppy.sh/beatmapsets/42"}, p.Buttons[1])

	p = withButtons.Build(context.Background(), Track{Title: "t"})
	assert.Empty(t, p.Buttons)

	p = newTestBuilder(staticAssets{}, false, "https://example.com").Build(context.Background(), Track{Title: "t", BeatmapSetID: "42"})
	assert.Empty(t, p.Buttons)

	p = newTestBuilder(staticAssets{}, true, "").Build(context.Background(), Track{Title: "t", BeatmapSetID: "42"})
	require.Len(t, p.Buttons, 1)
	assert.Equal(t, "Go to this map on osu!", p.Buttons[0].Label)
}

func TestBuilder_ClampsLongText(t *testing.T) {
	b := newTestBuilder(staticAssets{}, false, "")

	p := b.Build(context.Background(), Track{Title: strings.Repeat("ä", 300), Artist: "  spaced  "})
	assert.Equal(t, maxTextRunes, utf8.RuneCountInString(p.Details))
	assert.True(t, strings.HasSuffix(p.Details, "…"))
	assert.Equal(t, "spaced", p.State)
}

func TestIdlePayload(t *testing.T) {
	p := IdlePayload()
	assert.Equal(t, "zZz", p.Details)
	assert.Equal(t, discord.ActivityListening, p.Type)
	assert.False(t, p.HasTimestamps())
	assert.Contains(t, p.LargeImageKey, "Osu%21_Logo_2016")
}

func TestPayload_ActivityConvertsToMilliseconds(t *testing.T) {
	p := Payload{
		Details:        "d",
		State:          "s",
		Type:           discord.ActivityListening,
		StartTimestamp: 100,
		EndTimestamp:   300,
		LargeImageKey:  "logo",
		LargeImageText: PausedLabel,
		Buttons: []Button{
			{Label: "a", URL: "https://a"},
			{Label: "b", URL: "https://b"},
			{Label: "c", URL: "https://c"},
		},
	}

	a := p.Activity()
	assert.Equal(t, "d", a.Details)
	assert.Equal(t, "s", a.State)
	require.NotNil(t, a.Timestamps)
	assert.Equal(t, int64(100_000), a.Timestamps.Start)
	assert.Equal(t, int64(300_000), a.Timestamps.End)
	require.NotNil(t, a.Assets)
	assert.Equal(t, "logo", a.Assets.LargeImage)
	assert.Equal(t, PausedLabel, a.Assets.LargeText)
	assert.Len(t, a.Buttons, discord.MaxButtons)
}

func TestPayload_ActivityOmitsEmptyParts(t *testing.T) {
	a := Payload{Details: "d"}.Activity()
	assert.Nil(t, a.Timestamps)
	assert.Nil(t, a.Assets)
	assert.Empty(t, a.Buttons)
}
