//go:build !windows

package player

import (
	"context"
	"net"
)

// DefaultIPCPath is the socket suggested for mpv on Unix systems.
const DefaultIPCPath = "/tmp/vlc-opener-mpv.sock"

// Connect to mpv IPC via Unix socket on Linux/macOS
func dialIPC(ctx context.Context, socketPath string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", socketPath)
}
