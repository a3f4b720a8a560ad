package control

import (
	"context"
	"errors"
	"net"
	"reflect"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"go.klb.dev/clipmaster/internal/history"
	"go.klb.dev/clipmaster/internal/manager"
)

var stamp = time.Date(2026, 10, 14, 12, 30, 0, 0, time.UTC)

type fakeSource struct{ ch chan string }

func (s *fakeSource) Changes() <-chan string { return s.ch }
func (s *fakeSource) Stop(time.Duration) error {
	return nil
}

// signalManager reports when a Watch subscription is in place.
type signalManager struct {
	*manager.Manager
	subscribed chan struct{}
}

func (s signalManager) Subscribe(ctx context.Context) (<-chan history.Entry, func(), error) {
	ch, cancel, err := s.Manager.Subscribe(ctx)
	s.subscribed <- struct{}{}
	return ch, cancel, err
}

type fixture struct {
	m          *manager.Manager
	src        *fakeSource
	client     *Client
	subscribed chan struct{}
}

func setup(t *testing.T) *fixture {
	t.Helper()
	src := &fakeSource{ch: make(chan string)}
	m := manager.New(src, nil,
		manager.WithReport(nil),
		manager.WithClock(func() time.Time { return stamp }),
	)
	go func() { _ = m.Run(context.Background()) }()

	f := &fixture{m: m, src: src, subscribed: make(chan struct{}, 4)}

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	Register(s, New(signalManager{Manager: m, subscribed: f.subscribed}))
	go func() { _ = s.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("grpc client: %v", err)
	}
	f.client = NewClient(conn)

	t.Cleanup(func() {
		_ = conn.Close()
		s.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_, _ = m.Stop(ctx)
	})
	return f
}

func ctxT(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestHistoryAndClear(t *testing.T) {
	f := setup(t)
	ctx := ctxT(t)

	f.src.ch <- "Hello"
	f.src.ch <- "World"

	got, err := f.client.History(ctx)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if texts := history.Texts(got); !reflect.DeepEqual(texts, []string{"World", "Hello"}) {
		t.Fatalf("history = %q", texts)
	}
	if !got[0].CopiedAt.Equal(stamp) {
		t.Fatalf("copied_at = %v, want %v", got[0].CopiedAt, stamp)
	}

	if err := f.client.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err = f.client.History(ctx)
	if err != nil || len(got) != 0 {
		t.Fatalf("History after clear = %v, %v", got, err)
	}
}

func TestStop(t *testing.T) {
	f := setup(t)
	ctx := ctxT(t)

	f.src.ch <- "only"
	final, err := f.client.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if texts := history.Texts(final); !reflect.DeepEqual(texts, []string{"only"}) {
		t.Fatalf("final = %q", texts)
	}
	select {
	case <-f.m.Done():
	default:
		t.Fatal("manager still running after Stop RPC")
	}
	if err := f.client.Clear(ctx); !errors.Is(err, manager.ErrStopped) {
		t.Fatalf("Clear after stop = %v, want ErrStopped", err)
	}
}

func TestWatch(t *testing.T) {
	f := setup(t)
	ctx := ctxT(t)

	got := make(chan history.Entry, 4)
	errc := make(chan error, 1)
	go func() {
		errc <- f.client.Watch(ctx, func(e history.Entry) error {
			got <- e
			return nil
		})
	}()
	<-f.subscribed

	f.src.ch <- "first"
	f.src.ch <- "first"
	f.src.ch <- "second"
	for _, want := range []string{"first", "second"} {
		select {
		case e := <-got:
			if e.Text != want {
				t.Fatalf("watched %q, want %q", e.Text, want)
			}
		case <-ctx.Done():
			t.Fatalf("no watch event for %q", want)
		}
	}

	if _, err := f.m.Stop(ctx); err != nil {
		t.Fatal(err)
	}
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Watch ended with %v, want nil", err)
		}
	case <-ctx.Done():
		t.Fatal("Watch did not end after stop")
	}
}

func TestWatchCallbackError(t *testing.T) {
	f := setup(t)
	ctx := ctxT(t)

	boom := errors.New("boom")
	errc := make(chan error, 1)
	go func() {
		errc <- f.client.Watch(ctx, func(history.Entry) error { return boom })
	}()
	<-f.subscribed
	f.src.ch <- "x"

	if err := <-errc; !errors.Is(err, boom) {
		t.Fatalf("Watch = %v, want boom", err)
	}
}

func TestDialNotRunning(t *testing.T) {
	c, err := Dial(t.TempDir() + "/missing.sock")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = c.History(ctx)
	if !errors.Is(err, ErrNotRunning) && !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("History with no daemon = %v", err)
	}
}

func TestDecodeEntries(t *testing.T) {
	entries := []history.Entry{
		{Text: "a", CopiedAt: stamp},
		{Text: "b"},
	}
	got, err := decodeEntries(encodeEntries(entries))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Text != "a" || !got[0].CopiedAt.Equal(stamp) || got[1].Text != "b" || !got[1].CopiedAt.IsZero() {
		t.Fatalf("decoded = %+v", got)
	}

	bad := &structpb.ListValue{Values: []*structpb.Value{structpb.NewStringValue("not a struct")}}
	if _, err := decodeEntries(bad); err == nil {
		t.Fatal("expected error for non-struct item")
	}
	noText, _ := structpb.NewStruct(map[string]any{"copied_at": "2026-01-01T00:00:00Z"})
	if _, err := decodeEntry(noText); err == nil {
		t.Fatal("expected error for missing text")
	}
	badTime, _ := structpb.NewStruct(map[string]any{"text": "x", "copied_at": "yesterday"})
	if _, err := decodeEntry(badTime); err == nil {
		t.Fatal("expected error for bad timestamp")
	}
}
