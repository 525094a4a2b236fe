package library

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Song is one playable beatmap set folder.
type Song struct {
	ID           string `json:"id"`
	BeatmapSetID string `json:"beatmapSetID"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Creator      string `json:"creator"`
	AudioPath    string `json:"audioPath"`
	FolderPath   string `json:"folderPath"`
}

// metadata holds the .osu fields the scanner reads.
type metadata struct {
	Title         string
	Artist        string
	Creator       string
	BeatmapSetID  string
	AudioFilename string
}

// ErrNoSongsDir is returned when the Songs folder does not exist.
var ErrNoSongsDir = errors.New("songs directory not found")

// Scan reads every beatmap folder directly under songsDir. Folders that lack
// a title, an artist or an audio file are skipped.
func Scan(ctx context.Context, songsDir string, logger zerolog.Logger) ([]Song, error) {
	entries, err := os.ReadDir(songsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoSongsDir, songsDir)
		}
		return nil, fmt.Errorf("read songs dir: %w", err)
	}

	songs := make([]Song, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		folder := filepath.Join(songsDir, entry.Name())
		song, ok, err := scanFolder(folder, entry.Name())
		if err != nil {
			logger.Debug().Err(err).Str("folder", entry.Name()).Msg("skipping unreadable beatmap folder")
			continue
		}
		if !ok {
			continue
		}
		songs = append(songs, song)
	}
	return songs, nil
}

func scanFolder(folder, name string) (Song, bool, error) {
	files, err := os.ReadDir(folder)
	if err != nil {
		return Song{}, false, err
	}

	var osuFile, fallbackAudio string
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(f.Name()))
		switch {
		case ext == ".osu" && osuFile == "":
			osuFile = f.Name()
		case (ext == ".mp3" || ext == ".ogg") && fallbackAudio == "":
			fallbackAudio = f.Name()
		}
	}
	if osuFile == "" {
		return Song{}, false, nil
	}

	meta, err := readMetadata(filepath.Join(folder, osuFile))
	if err != nil {
		return Song{}, false, err
	}
	if meta.Title == "" || meta.Artist == "" {
		return Song{}, false, nil
	}

	audio := ""
	if meta.AudioFilename != "" {
		candidate := filepath.Join(folder, meta.AudioFilename)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			audio = candidate
		}
	}
	if audio == "" && fallbackAudio != "" {
		audio = filepath.Join(folder, fallbackAudio)
	}
	if audio == "" {
		return Song{}, false, nil
	}

	setID := meta.BeatmapSetID
	if setID == "" || setID == "-1" {
		setID = FolderSetID(name)
	}

	return Song{
		ID:           name,
		BeatmapSetID: setID,
		Title:        meta.Title,
		Artist:       meta.Artist,
		Creator:      meta.Creator,
		AudioPath:    audio,
		FolderPath:   folder,
	}, true, nil
}

// FolderSetID returns the leading token of an osu! folder name, which by
// convention is the beatmap set id.
func FolderSetID(folder string) string {
	folder = strings.TrimSpace(folder)
	if i := strings.IndexByte(folder, ' '); i >= 0 {
		return folder[:i]
	}
	return folder
}

func readMetadata(path string) (metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return metadata{}, err
	}
	defer f.Close()
	return parseMetadata(f)
}

// parseMetadata scans key:value lines up to the first section that cannot
// contain metadata.
func parseMetadata(r io.Reader) (metadata, error) {
	var meta metadata
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "[TimingPoints]" || line == "[HitObjects]" {
			break
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Title":
			meta.Title = value
		case "Artist":
			meta.Artist = value
		case "Creator":
			meta.Creator = value
		case "BeatmapSetID":
			meta.BeatmapSetID = value
		case "AudioFilename":
			meta.AudioFilename = value
		}
	}
	if err := scanner.Err(); err != nil {
		return metadata{}, fmt.Errorf("read beatmap: %w", err)
	}
	return meta, nil
}
