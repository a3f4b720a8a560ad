package history

import (
	"context"
	"log/slog"
	"unicode/utf8"
)

const previewRunes = 120

// LogRecorded logs a newly recorded entry at INFO (size) and DEBUG (text
// preview up to 120 runes).
func LogRecorded(e Entry) {
	slog.Info("new copy", "chars", utf8.RuneCountInString(e.Text))

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	slog.Debug("clipboard entry", "preview", Preview(e.Text))
}

// LogDuplicate logs at DEBUG a value that was already in the history.
func LogDuplicate(text string) {
	slog.Debug("clipboard value already in history", "chars", utf8.RuneCountInString(text))
}

// Preview truncates text to 120 runes, marking the cut with an ellipsis.
func Preview(text string) string {
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	r := []rune(text)
	return string(r[:previewRunes]) + "…"
}
