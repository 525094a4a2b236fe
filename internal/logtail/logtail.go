package logtail

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// chunkSize is how far Read steps back from the end of the file per read.
const chunkSize = 32 * 1024

// Read returns the last maxLines lines of the file at path, oldest first.
// A non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	if maxLines <= 0 {
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return splitLines(data), nil
	}

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat log: %w", err)
	}

	// Walk backwards until the buffer holds more newlines than requested
	// lines, which guarantees maxLines complete lines after the first break.
	end := info.Size()
	var buf []byte
	for end > 0 && bytes.Count(buf, []byte{'\n'}) <= maxLines {
		start := max(end-chunkSize, 0)
		chunk := make([]byte, end-start)
		if _, err := file.ReadAt(chunk, start); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read log: %w", err)
		}
		buf = append(chunk, buf...)
		end = start
	}

	lines := splitLines(buf)
	if end > 0 && len(lines) > 0 {
		// The first line was cut by the chunk boundary.
		lines = lines[1:]
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines, nil
}

// Tail reads the last maxLines lines of the log at path and decodes them.
func Tail(path string, maxLines int) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	return ParseLines(lines), nil
}

func splitLines(data []byte) []string {
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
