// Package clip provides a unified text interface to the system clipboard.
// Backends:
//
//	native    golang.design/x/clipboard (cgo; X11, macOS, Windows)
//	cli       github.com/atotto/clipboard (xclip/xsel/wl-clipboard, pbpaste, powershell)
//	headless  no-op stub for containers and CI
//	memory    in-process clipboard, used in tests and demos
package clip

import (
	"fmt"
	"log/slog"
	"strings"
)

// Backend is the interface that all clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ReadText returns the current clipboard text. An empty clipboard, or one
	// holding only non-text content, yields "", nil.
	ReadText() (string, error)

	// WriteText replaces the clipboard contents with text.
	WriteText(text string) error

	// Close releases any resources held by the backend.
	Close()
}

// Kind selects a backend implementation.
type Kind string

const (
	KindAuto     Kind = "auto"
	KindNative   Kind = "native"
	KindCLI      Kind = "cli"
	KindHeadless Kind = "headless"
	KindMemory   Kind = "memory"
)

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindAuto, nil
	case KindAuto, KindNative, KindCLI, KindHeadless, KindMemory:
		return k, nil
	default:
		return "", fmt.Errorf("unknown clipboard backend %q (want auto|native|cli|headless|memory)", s)
	}
}

// New returns the backend of the given kind. KindAuto tries native, then cli,
// and settles on headless when neither is usable.
func New(kind Kind) (Backend, error) {
	switch kind {
	case KindNative:
		return newNative()
	case KindCLI:
		return newCLI()
	case KindHeadless:
		return Headless(), nil
	case KindMemory:
		return NewMemory(), nil
	case KindAuto, "":
		b, err := newNative()
		if err == nil {
			return b, nil
		}
		slog.Debug("native clipboard unavailable", "err", err)
		if b, err = newCLI(); err == nil {
			return b, nil
		}
		slog.Warn("no clipboard available, running headless", "err", err)
		return Headless(), nil
	default:
		return nil, fmt.Errorf("unknown clipboard backend %q", kind)
	}
}
