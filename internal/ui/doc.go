// Package ui implements the osuradio terminal monitor on Bubble Tea.
//
// The monitor is a client of the daemon's HTTP API. It reads everything it
// renders from a state.Store that the app package's poller keeps fresh, and
// sends the few write actions (rescan, connect, like) through Actions.
//
// Three views share a two-line header (status bar and key hints):
//
//   - Now Playing: the last reported track with an extrapolated progress
//     bar, and the presence card the daemon last sent
//   - Library: the scanned songs in a table with liked marks
//   - Logs: the tail of the daemon's JSON log, decoded by logtail
//
// The selected theme and view persist to the TUI preferences file whenever
// they change.
package ui
