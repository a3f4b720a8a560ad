package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"go.klb.dev/clipmaster/internal/history"
	"go.klb.dev/clipmaster/internal/ipc"
	"go.klb.dev/clipmaster/internal/manager"
)

// ErrNotRunning means no clipmaster daemon answered on the socket.
var ErrNotRunning = errors.New("control: no running clipmaster on the IPC socket")

// Client talks to a Control service.
type Client struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn
}

// NewClient wraps an existing connection. Close is then a no-op.
func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

// Dial returns a Client connected to the IPC socket at path.
// No auth: the socket is local and owner-restricted by the OS.
func Dial(path string) (*Client, error) {
	conn, err := grpc.NewClient("passthrough:///clipmaster",
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return ipc.Dial(ctx, path)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", path, err)
	}
	return &Client{cc: conn, conn: conn}, nil
}

// Close releases the connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Clear empties the daemon's history.
func (c *Client) Clear(ctx context.Context) error {
	if err := c.cc.Invoke(ctx, methodClear, &emptypb.Empty{}, new(emptypb.Empty)); err != nil {
		return fromStatus(err)
	}
	return nil
}

// History returns the daemon's current history, most recent first.
func (c *Client) History(ctx context.Context) ([]history.Entry, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, methodHistory, &emptypb.Empty{}, out); err != nil {
		return nil, fromStatus(err)
	}
	return decodeEntries(out)
}

// Stop ends the daemon's session and returns its final history.
func (c *Client) Stop(ctx context.Context) ([]history.Entry, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, methodStop, &emptypb.Empty{}, out); err != nil {
		return nil, fromStatus(err)
	}
	return decodeEntries(out)
}

// Watch calls fn for every entry the daemon records until ctx is done, the
// daemon stops, or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(history.Entry) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], methodWatch)
	if err != nil {
		return fromStatus(err)
	}
	if err := stream.SendMsg(&emptypb.Empty{}); err != nil {
		return fromStatus(err)
	}
	if err := stream.CloseSend(); err != nil {
		return fromStatus(err)
	}
	for {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fromStatus(err)
		}
		e, err := decodeEntry(msg)
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}

func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.FailedPrecondition:
		return manager.ErrStopped
	case codes.Unavailable:
		return fmt.Errorf("%w: %s", ErrNotRunning, st.Message())
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	default:
		return err
	}
}
