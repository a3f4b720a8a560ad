package clip

import (
	"fmt"

	"golang.design/x/clipboard"
)

type nativeBackend struct{}

// newNative initialises golang.design/x/clipboard. Init is called here rather
// than in init() so that CLI sub-commands (clear, stop, history) that never
// construct a Backend don't fail on headless systems.
func newNative() (Backend, error) {
	if err := clipboard.Init(); err != nil {
		return nil, fmt.Errorf("clipboard init: %w", err)
	}
	return nativeBackend{}, nil
}

func (nativeBackend) Name() string { return "native (golang.design/x/clipboard)" }

func (nativeBackend) ReadText() (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (nativeBackend) WriteText(text string) error {
	// Write returns a channel that is closed when the content is overwritten
	// by another application; we have no use for it.
	_ = clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (nativeBackend) Close() {}
