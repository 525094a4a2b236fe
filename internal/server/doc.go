// Package server is the daemon's local HTTP API. The browser player posts
// playback state to it, streams audio through it, and listens on /ws for
// status pushes. The terminal monitor polls the same routes.
//
// Status pushes are throttled: any number of changes inside one window
// produce a single message, and every new /ws client gets a snapshot on
// connect.
package server
