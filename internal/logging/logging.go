// Package logging configures the global slog logger for clipmaster.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pwntr/tinter"
)

// Format selects the log output format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat converts a string to a Format, returning FormatAuto for unknown values.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "text", "tint", "human":
		return FormatText
	case "json":
		return FormatJSON
	default:
		return FormatAuto
	}
}

// ParseLevel converts a string to a slog.Level, defaulting to Info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// IsTTY reports whether w is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// Options are the user-facing logging knobs.
type Options struct {
	// Interactive selects debug as the default level.
	Interactive bool
	Format      string
	// Level overrides the default level when non-empty.
	Level string
}

// Resolve turns Options into a handler format and level.
func (o Options) Resolve() (Format, slog.Level) {
	level := slog.LevelInfo
	if o.Interactive {
		level = slog.LevelDebug
	}
	if o.Level != "" {
		level = ParseLevel(o.Level)
	}
	return ParseFormat(o.Format), level
}

// NewHandler builds the handler used by Setup: tinter when format is text, or
// auto on a terminal; JSON otherwise.
func NewHandler(w io.Writer, format Format, level slog.Level) slog.Handler {
	useTint := format == FormatText || (format == FormatAuto && IsTTY(w))
	if useTint {
		return tinter.NewHandler(w, &tinter.Options{
			Level:      level,
			TimeFormat: "15:04:05.000",
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// Setup configures the global slog logger on stderr. Call once after
// flag/viper parsing.
func Setup(o Options) {
	format, level := o.Resolve()
	slog.SetDefault(slog.New(NewHandler(os.Stderr, format, level)))
}
