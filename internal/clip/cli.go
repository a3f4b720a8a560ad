package clip

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

var errNoClipboardTool = errors.New("no clipboard utility found (install xclip, xsel or wl-clipboard)")

type cliBackend struct{}

func newCLI() (Backend, error) {
	if clipboard.Unsupported {
		return nil, errNoClipboardTool
	}
	return cliBackend{}, nil
}

func (cliBackend) Name() string { return "cli (atotto/clipboard)" }

func (cliBackend) ReadText() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("clipboard read: %w", err)
	}
	return text, nil
}

func (cliBackend) WriteText(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	return nil
}

func (cliBackend) Close() {}
