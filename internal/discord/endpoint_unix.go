//go:build !windows

package discord

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

var endpointSubdirs = []string{"", "app/com.discordapp.Discord", "snap.discord"}

func dialEndpoint(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	var lastErr error
	for _, path := range endpointPaths() {
		conn, err := d.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %v", ErrNotRunning, lastErr)
}

// endpointPaths lists candidate sockets in the order the client creates them.
func endpointPaths() []string {
	var bases []string
	seen := make(map[string]bool)
	for _, key := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if v := os.Getenv(key); v != "" && !seen[v] {
			seen[v] = true
			bases = append(bases, v)
		}
	}
	if !seen["/tmp"] {
		bases = append(bases, "/tmp")
	}

	paths := make([]string, 0, len(bases)*len(endpointSubdirs)*10)
	for _, base := range bases {
		for _, sub := range endpointSubdirs {
			for i := 0; i < 10; i++ {
				paths = append(paths, filepath.Join(base, sub, fmt.Sprintf("discord-ipc-%d", i)))
			}
		}
	}
	return paths
}
