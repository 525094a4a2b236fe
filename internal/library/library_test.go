package library

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func beatmap(fields map[string]string) string {
	var b strings.Builder
	b.WriteString("osu file format v14\n\n[General]\n")
	if v, ok := fields["AudioFilename"]; ok {
		b.WriteString("AudioFilename: " + v + "\n")
	}
	b.WriteString("\n[Metadata]\n")
	for _, k := range []string{"Title", "Artist", "Creator", "BeatmapSetID"} {
		if v, ok := fields[k]; ok {
			b.WriteString(k + ":" + v + "\n")
		}
	}
	b.WriteString("\n[HitObjects]\nTitle:not metadata\n")
	return b.String()
}

func TestScan_ReadsBeatmapFolders(t *testing.T) {
	songs := t.TempDir()

	writeFile(t, filepath.Join(songs, "123 xi - Blue Zenith", "map [Hard].osu"), beatmap(map[string]string{
		"AudioFilename": "audio.mp3",
		"Title":         "Blue Zenith",
		"Artist":        "xi",
		"Creator":       "Asphyxia",
		"BeatmapSetID":  "292301",
	}))
	writeFile(t, filepath.Join(songs, "123 xi - Blue Zenith", "audio.mp3"), "mp3")
	writeFile(t, filepath.Join(songs, "123 xi - Blue Zenith", "hitsound.ogg"), "ogg")

	writeFile(t, filepath.Join(songs, "456 nekodex - new beginnings", "a.osu"), beatmap(map[string]string{
		"AudioFilename": "missing.mp3",
		"Title":         "new beginnings",
		"Artist":        "nekodex",
		"BeatmapSetID":  "-1",
	}))
	writeFile(t, filepath.Join(songs, "456 nekodex - new beginnings", "song.ogg"), "ogg")

	writeFile(t, filepath.Join(songs, "789 no audio", "a.osu"), beatmap(map[string]string{"Title": "t", "Artist": "a"}))
	writeFile(t, filepath.Join(songs, "790 no artist", "a.osu"), beatmap(map[string]string{"Title": "t"}))
	writeFile(t, filepath.Join(songs, "790 no artist", "a.mp3"), "mp3")
	writeFile(t, filepath.Join(songs, "791 no beatmap", "a.mp3"), "mp3")
	writeFile(t, filepath.Join(songs, "stray.txt"), "x")

	got, err := Scan(context.Background(), songs, zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, Song{
		ID:           "123 xi - Blue Zenith",
		BeatmapSetID: "292301",
		Title:        "Blue Zenith",
		Artist:       "xi",
		Creator:      "Asphyxia",
		AudioPath:    filepath.Join(songs, "123 xi - Blue Zenith", "audio.mp3"),
		FolderPath:   filepath.Join(songs, "123 xi - Blue Zenith"),
	}, got[0])

	assert.Equal(t, "456", got[1].BeatmapSetID)
	assert.Equal(t, filepath.Join(songs, "456 nekodex - new beginnings", "song.ogg"), got[1].AudioPath)
	assert.Empty(t, got[1].Creator)
}

func TestScan_MissingDirectory(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "nope"), zerolog.Nop())
	require.ErrorIs(t, err, ErrNoSongsDir)
}

func TestScan_HonoursCancelledContext(t *testing.T) {
	songs := t.TempDir()
	writeFile(t, filepath.Join(songs, "1 a", "a.osu"), beatmap(map[string]string{"Title": "t", "Artist": "a"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Scan(ctx, songs, zerolog.Nop())
	require.ErrorIs(t, err, context.Canceled)
}

func TestFolderSetID(t *testing.T) {
	assert.Equal(t, "12345", FolderSetID("12345 Artist - Title"))
	assert.Equal(t, "solo", FolderSetID("solo"))
	assert.Equal(t, "", FolderSetID(""))
}

func TestParseMetadata_StopsAtHitObjects(t *testing.T) {
	meta, err := parseMetadata(strings.NewReader(beatmap(map[string]string{"Artist": "a"})))
	require.NoError(t, err)
	assert.Empty(t, meta.Title)
	assert.Equal(t, "a", meta.Artist)
}

func TestLibrary_CachesUntilRescan(t *testing.T) {
	songs := t.TempDir()
	writeFile(t, filepath.Join(songs, "1 a", "a.osu"), beatmap(map[string]string{"Title": "one", "Artist": "a"}))
	writeFile(t, filepath.Join(songs, "1 a", "a.mp3"), "mp3")

	lib := New(songs, zerolog.Nop())
	assert.Zero(t, lib.Len())

	got, err := lib.Songs(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	writeFile(t, filepath.Join(songs, "2 b", "b.osu"), beatmap(map[string]string{"Title": "two", "Artist": "b"}))
	writeFile(t, filepath.Join(songs, "2 b", "b.ogg"), "ogg")

	got, err = lib.Songs(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1, "Songs should serve the cached scan")

	got, err = lib.Rescan(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, lib.Len())

	song, ok := lib.Lookup("2 b")
	require.True(t, ok)
	assert.Equal(t, "two", song.Title)

	_, ok = lib.Lookup("3 c")
	assert.False(t, ok)
}

func TestLibrary_AudioPathOnlyKnowsScannedFiles(t *testing.T) {
	songs := t.TempDir()
	audio := filepath.Join(songs, "1 a", "a.mp3")
	writeFile(t, filepath.Join(songs, "1 a", "a.osu"), beatmap(map[string]string{"Title": "one", "Artist": "a"}))
	writeFile(t, audio, "mp3")

	lib := New(songs, zerolog.Nop())
	_, err := lib.Rescan(context.Background())
	require.NoError(t, err)

	song, ok := lib.AudioPath(filepath.Join(songs, "1 a", ".", "a.mp3"))
	require.True(t, ok)
	assert.Equal(t, "1 a", song.ID)

	_, ok = lib.AudioPath(filepath.Join(songs, "1 a", "a.osu"))
	assert.False(t, ok)
	_, ok = lib.AudioPath("")
	assert.False(t, ok)
}

func TestLibrary_SongsReturnsCopy(t *testing.T) {
	songs := t.TempDir()
	writeFile(t, filepath.Join(songs, "1 a", "a.osu"), beatmap(map[string]string{"Title": "one", "Artist": "a"}))
	writeFile(t, filepath.Join(songs, "1 a", "a.mp3"), "mp3")

	lib := New(songs, zerolog.Nop())
	got, err := lib.Songs(context.Background())
	require.NoError(t, err)
	got[0].Title = "mutated"

	again, err := lib.Songs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "one", again[0].Title)
}
