// Package ipc locates and opens the local control socket that clipmaster CLI
// sub-commands (clear/stop/history/watch) use to reach a running
// `clipmaster run`.
//
// On Linux and macOS the socket is a Unix domain socket; on Windows it is a
// named pipe. Either way the channel is local to the machine and restricted
// to the owning user by the OS, so it carries no authentication.
package ipc

import (
	"context"
	"errors"
	"net"
	"os"
	"time"
)

// EnvSocket overrides the socket path.
const EnvSocket = "CLIPMASTER_SOCKET"

// ErrRunning is returned by Listen when another instance already serves the
// socket.
var ErrRunning = errors.New("ipc: another clipmaster instance is already running")

const probeTimeout = time.Second

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - Linux / macOS: $XDG_RUNTIME_DIR/clipmaster.sock, else $TMPDIR/clipmaster.sock
//   - Windows:       \\.\pipe\clipmaster
//
// $CLIPMASTER_SOCKET takes precedence everywhere.
func SocketPath() string {
	if s := os.Getenv(EnvSocket); s != "" {
		return s
	}
	return defaultPath()
}

// Dial connects to the socket at path.
func Dial(ctx context.Context, path string) (net.Conn, error) {
	return dial(ctx, path)
}

// IsRunning reports whether something answers on the socket at path. It does
// a cheap dial-and-close; no data is exchanged.
func IsRunning(path string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	c, err := dial(ctx, path)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates a listener on path. A stale socket left by a crashed run is
// removed first; a live one yields ErrRunning.
func Listen(path string) (net.Listener, error) {
	if IsRunning(path) {
		return nil, ErrRunning
	}
	return listen(path)
}
