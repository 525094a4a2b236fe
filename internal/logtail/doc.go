// Package logtail reads the tail of the daemon's JSON log file and decodes
// it for the monitor's Logs view.
//
// # Reading Log Files
//
// Read steps backwards from the end of the file in fixed-size chunks until
// it holds enough lines, so a long-running daemon log is never scanned from
// the start. Lines come back in chronological order. A non-positive maxLines
// returns the whole file, and a missing file returns no lines and no error.
// Tail does the same and decodes the result.
//
//	entries, err := logtail.Tail(cfg.LogPath(), 400)
//
// # Decoding
//
// The daemon writes zerolog JSON lines. Parse maps the zerolog field names
// (time, level, message, error) and the "component" tag onto Entry; any
// other keys land in Fields, sorted by key. Lines that are not JSON objects,
// such as a panic trace, are kept as plain messages.
//
// Header and Details render an entry in the monitor's format:
//
//	2025-10-08 21:01:05 WARN [presence] – connect failed
//	    - error: dial unix /run/user/1000/discord-ipc-0: connect: no such file
//	    - attempt: 3
//
// Styling is left to the UI.
package logtail
