// Package radio provides an HTTP client for the osuradio daemon API and the
// wire types shared by the daemon and its clients.
//
// # Overview
//
// The daemon exposes a small JSON API on its listen address. The terminal
// monitor polls it through Client; the daemon's server package encodes the
// same types. Keeping both sides on one set of structs means a field rename
// breaks the build rather than the monitor.
//
// # Client Usage
//
//	client, err := radio.NewClient("127.0.0.1:3000")
//	if err != nil {
//		return err
//	}
//
//	status, err := client.FetchStatus(ctx)
//	if err != nil {
//		return err
//	}
//	if status.Ready() && status.NowPlaying != nil {
//		fmt.Println(status.NowPlaying.Title)
//	}
//
// # API Endpoints
//
//   - GET /api/status: connection state, now playing, last sent presence
//   - GET /api/library: scanned songs
//   - POST /api/scan: rescan the Songs folder
//   - POST /api/connect: start a presence connection attempt
//   - GET /api/likes, POST /api/likes/{id}: liked songs
//   - POST /api/update: playback state from a player
//
// # Timeouts
//
// Requests use a 5 second client timeout; Rescan allows two minutes because
// large libraries take a while to walk. Callers pass a context for
// cancellation on top of that.
//
// # Error Handling
//
// Transport failures, non-2xx statuses and undecodable bodies are returned as
// wrapped errors. The client never retries; the poller decides when to try
// again.
package radio
