//go:build windows

package player

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"
)

// DefaultIPCPath is the named pipe suggested for mpv on Windows.
const DefaultIPCPath = `\\.\pipe\vlc-opener-mpv`

// Connect to mpv IPC via named pipe on Windows
func dialIPC(ctx context.Context, pipePath string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, pipePath)
}
