// Package app is the composition root for both osuradio binaries.
//
// # Overview
//
// Serve wires the daemon: configuration, logging, the song library, the
// liked set, the presence engine (asset cache, payload builder, connection
// manager, coalescer), the optional MPD source and the HTTP API. Run wires
// the terminal monitor: configuration, TUI preferences, the API client, the
// shared state.Store, the background poller and the bubbletea UI.
//
// # Components
//
//   - daemon.go: Serve, the daemon entry point
//   - app.go: Run, the monitor entry point
//   - poller.go: background goroutine that refreshes state.Store
//
// # Daemon Data Flow
//
//	browser / MPD ──Notify──> Coalescer ──Send──> Manager ──IPC──> chat client
//	                              │                  │
//	                   OnDispatch │                  │ OnStateChange
//	                              ↓                  ↓
//	                          server.Server ──/ws──> subscribers
//
// Serve runs three goroutines under one errgroup: the connection supervisor
// (Manager.Run), the MPD watcher when enabled, and the HTTP server. The first
// error cancels the others. Cancelling ctx shuts everything down and Serve
// returns nil.
//
// # Monitor Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()        Read daemon config (listen address, log dir)
//	       ├─────> prefs.Load()         Theme and last view
//	       ├─────> radio.NewClient()    HTTP client for the daemon API
//	       ├─────> refresh()            Populate the store before the first frame
//	       ├─────> StartPoller()        Launch background updates
//	       └─────> ui.Run()             Start TUI (blocks)
//
// # Polling Behavior
//
// The poller fetches /api/status every interval (default 2 seconds). The
// library is fetched again only when the reported size differs from the
// cached one; the liked set is fetched on every successful poll.
//
// While the daemon is unreachable the wait doubles from 2×interval up to
// 30 seconds using an exponential backoff without jitter, and snaps back to
// interval after the first success. Errors are recorded in the store, so the
// header can show the offline state, and the last good data stays on screen.
//
// # Logging
//
// The daemon logs JSON to <log_dir>/osuradio.log and, when a console writer
// is given, human-readable lines to it. The monitor owns the terminal, so it
// logs only to <log_dir>/osuradio-tui.log.
package app
