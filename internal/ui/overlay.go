// Package ui is the Fyne overlay window: the running history, the Clear
// History and Stop Manager buttons, and a Shrink/Expand toggle that folds the
// window into a small bubble.
package ui

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"go.klb.dev/clipmaster/internal/history"
)

const (
	DefaultTitle  = "Clipboard Manager"
	DefaultWidth  = 600
	DefaultHeight = 800

	bubbleSize     = 80
	commandTimeout = 5 * time.Second
)

// Controller receives the overlay's commands.
type Controller interface {
	Clear(ctx context.Context) error
	Stop(ctx context.Context) ([]history.Entry, error)
}

// Options tune the window.
type Options struct {
	Title     string
	Width     float32
	Height    float32
	Frameless bool
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	return o
}

// Overlay implements manager.Display on a Fyne window.
type Overlay struct {
	app  fyne.App
	win  fyne.Window
	ctrl Controller
	opts Options

	title     *widget.Label
	history   *widget.Label
	scroll    *container.Scroll
	clearBtn  *widget.Button
	stopBtn   *widget.Button
	shrinkBtn *widget.Button
	expandBtn *widget.Button
	full      *fyne.Container
	bubble    *fyne.Container

	// UI-thread state
	shrunk       bool
	expandedSize fyne.Size

	stopOnce sync.Once
}

// New builds the overlay window on a. It is not shown until Show.
func New(a fyne.App, ctrl Controller, opts Options) *Overlay {
	opts = opts.withDefaults()
	o := &Overlay{app: a, ctrl: ctrl, opts: opts}

	if drv, ok := a.Driver().(desktop.Driver); ok && opts.Frameless {
		o.win = drv.CreateSplashWindow()
	} else {
		o.win = a.NewWindow(opts.Title)
	}

	o.title = widget.NewLabelWithStyle(opts.Title, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	o.history = widget.NewLabel("")
	o.history.Wrapping = fyne.TextWrapWord
	o.scroll = container.NewVScroll(o.history)

	o.clearBtn = widget.NewButton("Clear History", o.requestClear)
	o.stopBtn = widget.NewButton("Stop Manager", o.requestStop)
	o.shrinkBtn = widget.NewButton("Shrink", o.ToggleShrink)
	o.expandBtn = widget.NewButton("Expand", o.ToggleShrink)

	buttons := container.NewGridWithColumns(3, o.clearBtn, o.stopBtn, o.shrinkBtn)
	o.full = container.NewBorder(o.title, buttons, nil, nil, o.scroll)
	o.bubble = container.NewCenter(o.expandBtn)
	o.bubble.Hide()

	o.win.SetContent(container.NewStack(o.full, o.bubble))
	o.win.Resize(fyne.NewSize(opts.Width, opts.Height))
	o.win.SetCloseIntercept(o.requestStop)

	if desk, ok := a.(desktop.App); ok {
		desk.SetSystemTrayMenu(fyne.NewMenu(opts.Title,
			fyne.NewMenuItem("Show", o.win.Show),
			fyne.NewMenuItem("Clear History", o.requestClear),
			fyne.NewMenuItem("Stop Manager", o.requestStop),
		))
	}
	return o
}

// Window returns the underlying Fyne window.
func (o *Overlay) Window() fyne.Window { return o.win }

// Show displays the window.
func (o *Overlay) Show() { o.win.Show() }

// Render replaces the history text. Safe to call from any goroutine.
func (o *Overlay) Render(text string) {
	runOnMain(func() {
		o.history.SetText(text)
		o.scroll.ScrollToTop()
	})
}

// Text returns the history text currently shown. It reads the label on the
// UI thread, so it must not be called from it.
func (o *Overlay) Text() string {
	var text string
	runOnMainAndWait(func() { text = o.history.Text })
	return text
}

// Shrunk reports whether the window is folded into the bubble.
func (o *Overlay) Shrunk() bool { return o.shrunk }

// ToggleShrink folds the window into a bubble or restores it. Must run on
// the UI thread (button taps do).
func (o *Overlay) ToggleShrink() {
	if o.shrunk {
		o.bubble.Hide()
		o.full.Show()
		o.shrinkBtn.SetText("Shrink")
		o.win.Resize(o.expandedSize)
		o.shrunk = false
		return
	}
	o.expandedSize = o.win.Canvas().Size()
	o.full.Hide()
	o.bubble.Show()
	o.shrinkBtn.SetText("Expand")
	o.win.Resize(fyne.NewSize(bubbleSize, bubbleSize))
	o.shrunk = true
}

// QuitWhenDone quits the app once done is closed.
func (o *Overlay) QuitWhenDone(done <-chan struct{}) {
	go func() {
		<-done
		runOnMain(o.app.Quit)
	}()
}

func (o *Overlay) requestClear() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := o.ctrl.Clear(ctx); err != nil {
			slog.Warn("clear history failed", "err", err)
		}
	}()
}

// requestStop asks the controller to stop once; the window stays up until
// the app quits.
func (o *Overlay) requestStop() {
	o.stopOnce.Do(func() {
		o.stopBtn.Disable()
		o.clearBtn.Disable()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			if _, err := o.ctrl.Stop(ctx); err != nil {
				slog.Warn("stop manager failed", "err", err)
			}
		}()
	})
}

// runOnMain runs fn on the Fyne UI thread, or inline when no app is running.
func runOnMain(fn func()) {
	if fyne.CurrentApp() == nil {
		fn()
		return
	}
	fyne.Do(fn)
}

// runOnMainAndWait is runOnMain that returns once fn has run.
func runOnMainAndWait(fn func()) {
	if fyne.CurrentApp() == nil {
		fn()
		return
	}
	fyne.DoAndWait(fn)
}
