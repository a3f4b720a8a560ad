// Package watch polls a clipboard backend and reports each new text value
// exactly once.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.klb.dev/clipmaster/internal/clip"
)

const (
	DefaultInterval = time.Second
	DefaultSettle   = 500 * time.Millisecond
	DefaultBuffer   = 1
)

// ErrStopTimeout is returned by Stop when the poll loop did not exit in time.
var ErrStopTimeout = errors.New("watch: poll loop did not exit before timeout")

// State is the lifecycle state of a Watcher.
type State int32

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config tunes the poll loop. Zero fields take the package defaults.
type Config struct {
	// Interval is the sleep between two reads.
	Interval time.Duration
	// Settle is added to the sleep right after a value was emitted, so one
	// paste burst is not read twice. Negative disables it.
	Settle time.Duration
	// Buffer is the capacity of the Changes channel.
	Buffer int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}
	if c.Settle < 0 {
		c.Settle = 0
	} else if c.Settle == 0 {
		c.Settle = DefaultSettle
	}
	if c.Buffer <= 0 {
		c.Buffer = DefaultBuffer
	}
	return c
}

// Watcher owns one poll loop. Its last-emitted value is private to the loop
// goroutine.
type Watcher struct {
	backend clip.Backend
	cfg     Config
	changes chan string
	cancel  context.CancelFunc
	done    chan struct{}
	state   atomic.Int32
	stop    sync.Once
}

// Start launches a watcher on backend. The returned Watcher is Running; it
// reaches Stopped through Stop or cancellation of ctx and never runs again.
func Start(ctx context.Context, backend clip.Backend, cfg Config) *Watcher {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher{
		backend: backend,
		cfg:     cfg,
		changes: make(chan string, cfg.Buffer),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go w.run(ctx)
	return w
}

// Changes delivers each new non-empty trimmed clipboard value. It is closed
// when the poll loop exits.
func (w *Watcher) Changes() <-chan string { return w.changes }

// Done is closed once the poll loop has exited.
func (w *Watcher) Done() <-chan struct{} { return w.done }

// State reports whether the watcher is still running.
func (w *Watcher) State() State { return State(w.state.Load()) }

// Stop cancels the poll loop and waits up to timeout for it to exit. A
// non-positive timeout waits indefinitely. It is safe to call more than once.
func (w *Watcher) Stop(timeout time.Duration) error {
	w.stop.Do(func() {
		w.state.Store(int32(Stopped))
		w.cancel()
	})
	if timeout <= 0 {
		<-w.done
		return nil
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-w.done:
		return nil
	case <-t.C:
		return ErrStopTimeout
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	defer close(w.changes)
	defer w.state.Store(int32(Stopped))

	name := w.backend.Name()
	slog.Debug("clipboard watcher started",
		"backend", name,
		"interval", w.cfg.Interval,
		"settle", w.cfg.Settle,
	)

	var (
		last     string
		failures int
	)
	for {
		delay := w.cfg.Interval

		text, err := w.backend.ReadText()
		switch {
		case err != nil:
			failures++
			slog.Warn("clipboard read failed", "backend", name, "failures", failures, "err", err)
		default:
			if failures > 0 {
				slog.Info("clipboard read recovered", "backend", name, "failures", failures)
				failures = 0
			}
			if text = strings.TrimSpace(text); text != "" && text != last {
				select {
				case w.changes <- text:
					last = text
					delay += w.cfg.Settle
				case <-ctx.Done():
					slog.Debug("clipboard watcher stopped", "backend", name)
					return
				}
			}
		}

		if !sleep(ctx, delay) {
			slog.Debug("clipboard watcher stopped", "backend", name)
			return
		}
	}
}

// sleep waits for d or until ctx is done, reporting whether the full delay
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
