package ui

import (
	"context"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"

	"go.klb.dev/clipmaster/internal/history"
)

type fakeController struct {
	clears chan struct{}
	stops  chan struct{}
}

func newFakeController() *fakeController {
	return &fakeController{clears: make(chan struct{}, 4), stops: make(chan struct{}, 4)}
}

func (f *fakeController) Clear(context.Context) error {
	f.clears <- struct{}{}
	return nil
}

func (f *fakeController) Stop(context.Context) ([]history.Entry, error) {
	f.stops <- struct{}{}
	return nil, nil
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatalf("expected %s", what)
	}
}

func waitText(t *testing.T, o *Overlay, want string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for o.Text() != want {
		if time.Now().After(deadline) {
			t.Fatalf("text = %q, want %q", o.Text(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestOverlay_Render(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	o := New(a, newFakeController(), Options{})
	o.Render("World" + history.DefaultSeparator + "Hello")
	waitText(t, o, "World"+history.DefaultSeparator+"Hello")

	o.Render("")
	waitText(t, o, "")
}

func TestOverlay_TextFromGoroutine(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	o := New(a, newFakeController(), Options{})
	o.Render("from the manager")

	got := make(chan string, 1)
	go func() { got <- o.Text() }()
	select {
	case text := <-got:
		if text != "from the manager" {
			t.Fatalf("Text = %q", text)
		}
	case <-time.After(time.Second):
		t.Fatal("Text did not return")
	}
}

func TestOverlay_ClearButton(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	ctrl := newFakeController()
	o := New(a, ctrl, Options{})
	test.Tap(o.clearBtn)
	waitSignal(t, ctrl.clears, "Clear call")
}

func TestOverlay_StopButtonOnce(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	ctrl := newFakeController()
	o := New(a, ctrl, Options{})
	test.Tap(o.stopBtn)
	waitSignal(t, ctrl.stops, "Stop call")

	if !o.stopBtn.Disabled() || !o.clearBtn.Disabled() {
		t.Fatal("buttons should be disabled after stop")
	}
	// Closing the window after Stop must not stop twice.
	o.requestStop()
	select {
	case <-ctrl.stops:
		t.Fatal("Stop called twice")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestOverlay_ToggleShrink(t *testing.T) {
	a := test.NewApp()
	defer a.Quit()

	o := New(a, newFakeController(), Options{Width: 300, Height: 400})
	test.Tap(o.shrinkBtn)
	if !o.Shrunk() {
		t.Fatal("expected shrunk after Shrink")
	}
	if o.full.Visible() || !o.bubble.Visible() {
		t.Fatal("bubble should replace the full view")
	}
	if o.shrinkBtn.Text != "Expand" {
		t.Fatalf("shrink label = %q", o.shrinkBtn.Text)
	}

	test.Tap(o.expandBtn)
	if o.Shrunk() {
		t.Fatal("expected expanded after Expand")
	}
	if !o.full.Visible() || o.bubble.Visible() {
		t.Fatal("full view should be back")
	}
	if o.shrinkBtn.Text != "Shrink" {
		t.Fatalf("shrink label = %q", o.shrinkBtn.Text)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	if o.Title != DefaultTitle || o.Width != DefaultWidth || o.Height != DefaultHeight {
		t.Fatalf("defaults = %+v", o)
	}
}
