package logtail

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Entry is one decoded daemon log line.
type Entry struct {
	Time      time.Time
	Level     string
	Component string
	Message   string
	Error     string
	Fields    []Field
	Raw       string
}

// Field is an extra key/value pair attached to an entry.
type Field struct {
	Key   string
	Value string
}

const componentField = "component"

// Parse decodes a zerolog JSON line. Lines that are not JSON objects come
// back with only Raw and Message set.
func Parse(line string) Entry {
	entry := Entry{Raw: line}
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		entry.Message = trimmed
		return entry
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		entry.Message = trimmed
		return entry
	}

	for key, value := range fields {
		switch key {
		case zerolog.TimestampFieldName:
			if s, ok := value.(string); ok {
				if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
					entry.Time = ts
				}
			}
		case zerolog.LevelFieldName:
			entry.Level = stringify(value)
		case zerolog.MessageFieldName:
			entry.Message = stringify(value)
		case zerolog.ErrorFieldName:
			entry.Error = stringify(value)
		case componentField:
			entry.Component = stringify(value)
		default:
			entry.Fields = append(entry.Fields, Field{Key: key, Value: stringify(value)})
		}
	}
	sort.Slice(entry.Fields, func(i, j int) bool { return entry.Fields[i].Key < entry.Fields[j].Key })
	return entry
}

// ParseLines decodes each line in order.
func ParseLines(lines []string) []Entry {
	if len(lines) == 0 {
		return nil
	}
	out := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, Parse(line))
	}
	return out
}

// Header renders the single-line summary of the entry:
//
//	2025-10-08 21:01:05 INFO [presence] – connected
func (e Entry) Header() string {
	var parts []string
	if !e.Time.IsZero() {
		parts = append(parts, e.Time.In(time.Local).Format("2006-01-02 15:04:05"))
	}
	level := strings.ToUpper(strings.TrimSpace(e.Level))
	if level == "" {
		level = "INFO"
	}
	parts = append(parts, level)
	if c := strings.TrimSpace(e.Component); c != "" {
		parts = append(parts, "["+c+"]")
	}
	header := strings.Join(parts, " ")
	if msg := strings.TrimSpace(e.Message); msg != "" {
		header += " – " + msg
	}
	return header
}

// Details renders the error and extra fields as indented lines.
func (e Entry) Details() []string {
	var lines []string
	if e.Error != "" {
		lines = append(lines, "    - error: "+e.Error)
	}
	for _, f := range e.Fields {
		if strings.TrimSpace(f.Value) == "" {
			continue
		}
		lines = append(lines, "    - "+f.Key+": "+f.Value)
	}
	return lines
}

// IsError reports whether the entry is at error level or above.
func (e Entry) IsError() bool {
	level, err := zerolog.ParseLevel(strings.ToLower(e.Level))
	if err != nil {
		return false
	}
	return level >= zerolog.ErrorLevel && level < zerolog.NoLevel
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
