//go:build windows

package discord

import (
	"context"
	"fmt"
	"net"

	"github.com/Microsoft/go-winio"
)

func dialEndpoint(ctx context.Context) (net.Conn, error) {
	var lastErr error
	for _, path := range endpointPaths() {
		conn, err := winio.DialPipeContext(ctx, path)
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

func endpointPaths() []string {
	paths := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		paths = append(paths, fmt.Sprintf(`\\?\pipe\discord-ipc-%d`, i))
	}
	return paths
}
