// Package manager owns the clipboard history for a session.
//
// A Manager runs one event loop goroutine. That goroutine is the only code
// that touches the history.Store: watcher notifications arrive on a channel and
// every command (Clear, History, Stop, Subscribe) is posted into the loop and
// executed there. The display only ever receives rendered strings.
package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"go.klb.dev/clipmaster/internal/history"
)

// DefaultJoinTimeout bounds how long Stop waits for the watcher to exit.
const DefaultJoinTimeout = 3 * time.Second

// subscriberBuffer is the per-subscriber backlog; a subscriber that falls
// further behind misses entries.
const subscriberBuffer = 16

// ErrStopped is returned by commands issued after the manager shut down.
var ErrStopped = errors.New("manager: stopped")

// Source is the watcher side: a stream of new clipboard values and a way to
// end it.
type Source interface {
	Changes() <-chan string
	Stop(timeout time.Duration) error
}

// Display shows the rendered history. Render is called from the manager
// goroutine; implementations backed by a UI toolkit must hand the text over
// to the toolkit's own thread.
type Display interface {
	Render(text string)
}

// Option configures a Manager.
type Option func(*Manager)

// WithJoinTimeout sets how long shutdown waits for the watcher.
func WithJoinTimeout(d time.Duration) Option { return func(m *Manager) { m.joinTimeout = d } }

// WithReport sets where the final history is written on shutdown. nil
// disables the report.
func WithReport(w io.Writer) Option { return func(m *Manager) { m.report = w } }

// WithSeparator sets the text placed between entries when rendering.
func WithSeparator(sep string) Option { return func(m *Manager) { m.sep = sep } }

// WithClock replaces time.Now for entry timestamps.
func WithClock(now func() time.Time) Option { return func(m *Manager) { m.now = now } }

// Manager coordinates a Source, a history.Store and a Display.
type Manager struct {
	src     Source
	display Display
	store   *history.Store

	sep         string
	joinTimeout time.Duration
	report      io.Writer
	now         func() time.Time

	cmds     chan func()
	done     chan struct{}
	stopping bool
	final    []history.Entry

	subs    map[int]chan history.Entry
	nextSub int
}

// New returns a Manager reading from src. display may be nil.
func New(src Source, display Display, opts ...Option) *Manager {
	m := &Manager{
		src:         src,
		display:     display,
		store:       history.NewStore(),
		sep:         history.DefaultSeparator,
		joinTimeout: DefaultJoinTimeout,
		report:      os.Stderr,
		now:         time.Now,
		cmds:        make(chan func()),
		done:        make(chan struct{}),
		subs:        make(map[int]chan history.Entry),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Run is the event loop. It returns after shutdown, which happens on Stop or
// when ctx is cancelled. Run must be called exactly once.
func (m *Manager) Run(ctx context.Context) error {
	changes := m.src.Changes()
	slog.Info("clipboard manager started")

	for {
		select {
		case text, ok := <-changes:
			if !ok {
				slog.Debug("clipboard watcher exited")
				changes = nil
				continue
			}
			m.record(text)

		case fn := <-m.cmds:
			fn()
			if m.stopping {
				m.shutdown()
				return nil
			}

		case <-ctx.Done():
			m.shutdown()
			return nil
		}
	}
}

// Done is closed once shutdown has completed.
func (m *Manager) Done() <-chan struct{} { return m.done }

// Final returns the history as it was at shutdown, or nil while running.
func (m *Manager) Final() []history.Entry {
	select {
	case <-m.done:
		out := make([]history.Entry, len(m.final))
		copy(out, m.final)
		return out
	default:
		return nil
	}
}

// Clear empties the history and the display.
func (m *Manager) Clear(ctx context.Context) error {
	return m.do(ctx, func() {
		m.store.Clear()
		m.render()
		slog.Info("clipboard history cleared")
	})
}

// History returns a snapshot of the history, most recent first. After
// shutdown it returns the final history.
func (m *Manager) History(ctx context.Context) ([]history.Entry, error) {
	var entries []history.Entry
	err := m.do(ctx, func() { entries = m.store.Entries() })
	if errors.Is(err, ErrStopped) {
		return m.Final(), nil
	}
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Stop ends the session: the watcher is stopped and joined, the final report
// is written and the loop exits. It returns the final history. Calling Stop
// again, or after a cancelled Run, returns the same history.
func (m *Manager) Stop(ctx context.Context) ([]history.Entry, error) {
	err := m.do(ctx, func() { m.stopping = true })
	if err != nil && !errors.Is(err, ErrStopped) {
		return nil, err
	}
	select {
	case <-m.done:
		return m.Final(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Subscribe returns a channel of newly recorded entries and a function that
// ends the subscription. The channel is closed on shutdown or cancel.
func (m *Manager) Subscribe(ctx context.Context) (<-chan history.Entry, func(), error) {
	ch := make(chan history.Entry, subscriberBuffer)
	var id int
	if err := m.do(ctx, func() {
		m.nextSub++
		id = m.nextSub
		m.subs[id] = ch
	}); err != nil {
		return nil, nil, err
	}
	cancel := func() {
		_ = m.do(context.Background(), func() {
			if c, ok := m.subs[id]; ok {
				delete(m.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel, nil
}

// do runs fn on the loop goroutine and waits for it to finish.
func (m *Manager) do(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	select {
	case m.cmds <- func() { fn(); close(ran) }:
	case <-m.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	// Once accepted the closure runs synchronously in the loop.
	<-ran
	return nil
}

func (m *Manager) record(text string) {
	e, ok := m.store.Record(text, m.now())
	if !ok {
		history.LogDuplicate(text)
		return
	}
	history.LogRecorded(e)
	m.render()
	m.publish(e)
}

func (m *Manager) render() {
	if m.display == nil {
		return
	}
	m.display.Render(m.store.Render(m.sep))
}

func (m *Manager) publish(e history.Entry) {
	for id, ch := range m.subs {
		select {
		case ch <- e:
		default:
			slog.Warn("history subscriber backlog full, dropping entry", "subscriber", id)
		}
	}
}

func (m *Manager) shutdown() {
	if err := m.src.Stop(m.joinTimeout); err != nil {
		slog.Warn("clipboard watcher did not stop cleanly", "timeout", m.joinTimeout, "err", err)
	}
	m.final = m.store.Entries()

	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}

	if m.report != nil {
		if err := writeReport(m.report, m.final); err != nil {
			slog.Warn("writing history report failed", "err", err)
		}
	}
	slog.Info("clipboard manager stopped", "entries", len(m.final))
	close(m.done)
}

func writeReport(w io.Writer, entries []history.Entry) error {
	if _, err := fmt.Fprintln(w, "\nClipboard Manager Stopped."); err != nil {
		return err
	}
	return history.WriteReport(w, entries)
}
