package history

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestRecordOrderAndDedup(t *testing.T) {
	s := NewStore()
	for _, v := range []string{"one", "two", "one", "three", "two"} {
		s.Record(v, t0)
	}
	want := []string{"three", "two", "one"}
	if got := s.Texts(); !reflect.DeepEqual(got, want) {
		t.Fatalf("texts = %q, want %q", got, want)
	}
}

func TestRecordRejectsEmpty(t *testing.T) {
	s := NewStore()
	for _, v := range []string{"", "   ", "\n\t "} {
		if _, ok := s.Record(v, t0); ok {
			t.Fatalf("Record(%q) inserted", v)
		}
	}
	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0", s.Len())
	}
}

func TestRecordTrims(t *testing.T) {
	s := NewStore()
	e, ok := s.Record("  hello \n", t0)
	if !ok || e.Text != "hello" || !e.CopiedAt.Equal(t0) {
		t.Fatalf("Record = %+v, %v", e, ok)
	}
	if _, ok := s.Record("hello", t0); ok {
		t.Fatal("trimmed duplicate inserted")
	}
	if !s.Contains(" hello ") {
		t.Fatal("Contains should normalise its argument")
	}
}

func TestClearIdempotent(t *testing.T) {
	s := NewStore()
	s.Record("a", t0)
	s.Record("b", t0)
	s.Clear()
	s.Clear()
	if s.Len() != 0 || s.Render(DefaultSeparator) != "" {
		t.Fatalf("store not empty after clear: %q", s.Texts())
	}
	// A cleared value may be recorded again.
	if _, ok := s.Record("a", t0); !ok {
		t.Fatal("value not recordable after clear")
	}
}

func TestEntriesIsCopy(t *testing.T) {
	s := NewStore()
	s.Record("a", t0)
	got := s.Entries()
	got[0].Text = "mutated"
	if s.Texts()[0] != "a" {
		t.Fatal("Entries leaked internal slice")
	}
}

func TestRender(t *testing.T) {
	s := NewStore()
	s.Record("Hello", t0)
	s.Record("World", t0)
	got := s.Render(DefaultSeparator)
	want := "World" + DefaultSeparator + "Hello"
	if got != want {
		t.Fatalf("render = %q, want %q", got, want)
	}
	if !strings.Contains(DefaultSeparator, "\n") {
		t.Fatal("separator must span lines")
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	entries := []Entry{{Text: "World"}, {Text: "Hello"}}
	if err := WriteReport(&buf, entries); err != nil {
		t.Fatal(err)
	}
	want := "Clipboard History:\n1. World\n2. Hello\n"
	if buf.String() != want {
		t.Fatalf("report = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := WriteReport(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "Clipboard History: (empty)\n" {
		t.Fatalf("empty report = %q", buf.String())
	}
}

func TestPreview(t *testing.T) {
	short := "short"
	if Preview(short) != short {
		t.Fatalf("Preview(%q) changed the text", short)
	}
	long := strings.Repeat("é", 130)
	p := Preview(long)
	if !strings.HasSuffix(p, "…") || len([]rune(p)) != 121 {
		t.Fatalf("Preview length = %d runes", len([]rune(p)))
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogCharsCountsRunes(t *testing.T) {
	buf := captureLogs(t)
	text := "héllo wörld"
	LogRecorded(Entry{Text: text, CopiedAt: t0})
	LogDuplicate(text)

	var seen int
	dec := json.NewDecoder(buf)
	for dec.More() {
		var rec map[string]any
		if err := dec.Decode(&rec); err != nil {
			t.Fatal(err)
		}
		chars, ok := rec["chars"]
		if !ok {
			continue
		}
		seen++
		if chars != float64(11) {
			t.Fatalf("%v: chars = %v, want 11", rec["msg"], chars)
		}
	}
	if seen != 2 {
		t.Fatalf("records with chars = %d, want 2", seen)
	}
}
