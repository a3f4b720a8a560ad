//go:build windows

package ipc

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"
)

const pipeName = `\\.\pipe\clipmaster`

func defaultPath() string { return pipeName }

func listen(path string) (net.Listener, error) {
	return winio.ListenPipe(path, nil)
}

func dial(ctx context.Context, path string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, path)
}
