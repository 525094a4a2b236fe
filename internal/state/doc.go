// Package state provides thread-safe state management for the osuradio monitor.
//
// # Overview
//
// This package implements a small thread-safe store for sharing daemon
// status, the song library and the liked set between the background poller
// and the UI. It is the coordination point where polling updates meet UI
// rendering.
//
// # Architecture
//
//	Producer (Poller):             Consumer (UI):
//	┌────────────────┐            ┌─────────────────┐
//	│ FetchStatus()  │            │                 │
//	│ FetchLibrary() │            │                 │
//	│ FetchLikes()   │            │                 │
//	│      ↓         │            │                 │
//	│ store.Update() │───────────→│ store.Snapshot()│
//	│      ↓         │  (mutex)   │      ↓          │
//	│  repeat...     │            │  render UI      │
//	└────────────────┘            └─────────────────┘
//
// # Core Types
//
// Store:
//   - Thread-safe container for the latest daemon state
//   - Uses sync.RWMutex for concurrent access
//   - Written by the poller and by UI actions (like toggles, rescans)
//
// Snapshot:
//   - View of state at a point in time
//   - Contains status, songs, liked ids, timestamps and error info
//   - Returned by value with copies of slices and maps
//
// # Update Semantics
//
//	// Success: replace status, clear error
//	store.Update(status, nil)
//
//	// Error: keep old data, record error, count the failure
//	store.Update(nil, err)
//
// The library and liked set change far less often than status and have
// their own setters (SetLibrary, SetLikes, MarkLiked). A status error never
// clears them, so the Library view stays usable while the daemon restarts.
//
// # Offline Detection
//
// ConsecutiveFailures counts failed status polls since the last success.
// IsOffline reports true from the second failure on; a single dropped
// request does not flip the header to the offline badge.
//
// # Testing Considerations
//
// The zero value is ready to use:
//
//	store := &state.Store{}
//
// Snapshot on a never-updated store returns a zero Snapshot.
package state
