package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v, want nil", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestRead_SpansChunks(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "big.log")

	var content strings.Builder
	var expectedAll []string
	for i := 0; content.Len() < 3*chunkSize; i++ {
		line := fmt.Sprintf("entry %05d %s", i, strings.Repeat("x", 90))
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}
	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	for _, n := range []int{1, 400, len(expectedAll) - 1, len(expectedAll)} {
		got, err := Read(logPath, n)
		if err != nil {
			t.Fatalf("Read(%d) error = %v", n, err)
		}
		want := expectedAll[len(expectedAll)-n:]
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("Read(%d) returned %d lines, first %q, want %d lines, first %q", n, len(got), first(got), len(want), first(want))
		}
	}
}

func TestRead_NoTrailingNewline(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "test.log")
	if err := os.WriteFile(logPath, []byte("one\r\ntwo\nthree"), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	got, err := Read(logPath, 2)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if want := []string{"two", "three"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Read() = %q, want %q", got, want)
	}

	got, err = Read(logPath, 0)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if want := []string{"one", "two", "three"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Read() = %q, want %q", got, want)
	}
}

func TestRead_EmptyFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "empty.log")
	if err := os.WriteFile(logPath, nil, 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}
	got, err := Read(logPath, 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Read() = %q, want no lines", got)
	}
}

func TestTail_DecodesEntries(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "osuradio.log")
	content := `{"level":"info","component":"server","message":"listening"}` + "\n\n" +
		`{"level":"warn","component":"presence","error":"boom","message":"connect failed"}` + "\n"
	if err := os.WriteFile(logPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	entries, err := Tail(logPath, 2)
	if err != nil {
		t.Fatalf("Tail() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Tail() returned %d entries, want 1 (blank line skipped)", len(entries))
	}
	if entries[0].Component != "presence" || entries[0].Error != "boom" {
		t.Fatalf("Tail()[0] = %+v", entries[0])
	}
}

func first(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}

func TestParse_ZerologLine(t *testing.T) {
	line := `{"level":"warn","component":"presence","attempt":3,"error":"dial failed","time":"2025-10-08T21:01:05Z","message":"connect failed"}`

	entry := Parse(line)

	if entry.Level != "warn" {
		t.Errorf("Level = %q, want warn", entry.Level)
	}
	if entry.Component != "presence" {
		t.Errorf("Component = %q, want presence", entry.Component)
	}
	if entry.Message != "connect failed" {
		t.Errorf("Message = %q, want %q", entry.Message, "connect failed")
	}
	if entry.Error != "dial failed" {
		t.Errorf("Error = %q, want %q", entry.Error, "dial failed")
	}
	want := time.Date(2025, 10, 8, 21, 1, 5, 0, time.UTC)
	if !entry.Time.Equal(want) {
		t.Errorf("Time = %v, want %v", entry.Time, want)
	}
	if len(entry.Fields) != 1 || entry.Fields[0] != (Field{Key: "attempt", Value: "3"}) {
		t.Errorf("Fields = %#v, want attempt=3", entry.Fields)
	}
	if entry.Raw != line {
		t.Errorf("Raw not preserved")
	}
}

func TestParse_PlainTextLine(t *testing.T) {
	entry := Parse("  panic: something broke  ")
	if entry.Message != "panic: something broke" {
		t.Fatalf("Message = %q", entry.Message)
	}
	if entry.Level != "" || !entry.Time.IsZero() {
		t.Fatalf("plain line should not carry level or time: %#v", entry)
	}
}

func TestParse_MalformedJSON(t *testing.T) {
	entry := Parse(`{"level":"info",`)
	if entry.Message != `{"level":"info",` {
		t.Fatalf("Message = %q, want raw line", entry.Message)
	}
}

func TestParse_FieldsSorted(t *testing.T) {
	entry := Parse(`{"level":"info","zeta":"z","alpha":true,"mid":{"a":1}}`)
	var keys []string
	for _, f := range entry.Fields {
		keys = append(keys, f.Key)
	}
	if !reflect.DeepEqual(keys, []string{"alpha", "mid", "zeta"}) {
		t.Fatalf("field keys = %v", keys)
	}
	if entry.Fields[0].Value != "true" || entry.Fields[1].Value != `{"a":1}` {
		t.Fatalf("field values = %#v", entry.Fields)
	}
}

func TestParseLines_SkipsBlank(t *testing.T) {
	got := ParseLines([]string{`{"message":"a"}`, "   ", `{"message":"b"}`})
	if len(got) != 2 || got[0].Message != "a" || got[1].Message != "b" {
		t.Fatalf("ParseLines = %#v", got)
	}
	if ParseLines(nil) != nil {
		t.Fatal("ParseLines(nil) should be nil")
	}
}

func TestEntryHeader(t *testing.T) {
	ts := time.Date(2025, 10, 8, 21, 1, 5, 0, time.Local)
	tests := []struct {
		name  string
		entry Entry
		want  string
	}{
		{
			name:  "full",
			entry: Entry{Time: ts, Level: "info", Component: "server", Message: "listening"},
			want:  "2025-10-08 21:01:05 INFO [server] – listening",
		},
		{
			name:  "no level defaults to info",
			entry: Entry{Message: "hello"},
			want:  "INFO – hello",
		},
		{
			name:  "no message",
			entry: Entry{Level: "debug", Component: "mpd"},
			want:  "DEBUG [mpd]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entry.Header(); got != tt.want {
				t.Errorf("Header() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEntryDetails(t *testing.T) {
	entry := Entry{
		Error:  "boom",
		Fields: []Field{{Key: "attempt", Value: "2"}, {Key: "empty", Value: " "}},
	}
	want := []string{"    - error: boom", "    - attempt: 2"}
	if got := entry.Details(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Details() = %#v, want %#v", got, want)
	}
}

func TestEntryIsError(t *testing.T) {
	for level, want := range map[string]bool{
		"error": true,
		"fatal": true,
		"warn":  false,
		"info":  false,
		"":      false,
		"bogus": false,
	} {
		if got := (Entry{Level: level}).IsError(); got != want {
			t.Errorf("IsError(%q) = %v, want %v", level, got, want)
		}
	}
}
