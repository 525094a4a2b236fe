// Package presence keeps the chat client's rich presence in sync with what
// osuradio is playing.
//
// # Components
//
// Manager owns the single connection to the presence service. Its state moves
// Disconnected → Connecting → Ready and back to Disconnected when the
// connection drops. Connect is idempotent while an attempt is in flight, and
// signals from superseded attempts are ignored by generation. Send is best
// effort: while not Ready it logs and returns, and transport failures never
// reach the caller. Run wraps Connect in an exponential backoff supervisor.
//
// Builder turns a Track into a Payload: title and artist as text, a progress
// window derived from position and duration while playing, the "Paused" label
// otherwise, and the beatmap cover image when AssetCache confirms it exists.
//
// AssetCache memoizes one HEAD probe per beatmap set for the process
// lifetime. Concurrent lookups share a probe. Only a 404 means absent; a
// failed probe also reads as absent and is cached that way.
//
// Coalescer sits in front of the Manager. A playing update for the same track
// within the position tolerance of the last dispatched one is dropped.
// Everything else is debounced so a burst of updates yields one dispatch of the
// newest state. A dispatch sequence discards builds that finish after a newer
// one has already been sent.
//
// # Timestamps
//
// Payload timestamps are Unix seconds. The IPC layer converts them to the
// milliseconds the wire format expects:
//
//	end   = now + round(duration - position)
//	start = end - round(duration)
package presence
