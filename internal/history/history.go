// Package history holds the ordered, deduplicated record of clipboard text
// seen during a session.
//
// A Store is not safe for concurrent use. It is owned by a single goroutine
// (the manager loop); other goroutines only ever see copies.
package history

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// DefaultSeparator is a visible multi-line gap placed between entries when
// the history is rendered as a single text.
var DefaultSeparator = "\n" + strings.Repeat(" ", 20) + "\n"

// Entry is one distinct clipboard text. Equality is by Text only.
type Entry struct {
	Text     string
	CopiedAt time.Time
}

// Store is the most-recent-first history.
type Store struct {
	entries []Entry
	index   map[string]struct{}
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{index: make(map[string]struct{})}
}

// Normalize returns text with surrounding whitespace removed.
func Normalize(text string) string { return strings.TrimSpace(text) }

// Record inserts text at the front unless it is empty or already present.
// It reports whether the store changed.
func (s *Store) Record(text string, at time.Time) (Entry, bool) {
	text = Normalize(text)
	if text == "" {
		return Entry{}, false
	}
	if _, dup := s.index[text]; dup {
		return Entry{}, false
	}
	e := Entry{Text: text, CopiedAt: at}
	s.entries = append(s.entries, Entry{})
	copy(s.entries[1:], s.entries)
	s.entries[0] = e
	s.index[text] = struct{}{}
	return e, true
}

// Clear empties the store.
func (s *Store) Clear() {
	s.entries = nil
	clear(s.index)
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Contains reports whether text (after normalisation) is in the store.
func (s *Store) Contains(text string) bool {
	_, ok := s.index[Normalize(text)]
	return ok
}

// Entries returns a copy of the entries, most recent first.
func (s *Store) Entries() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Texts returns the entry texts, most recent first.
func (s *Store) Texts() []string {
	return Texts(s.entries)
}

// Render joins all entry texts in store order with sep.
func (s *Store) Render(sep string) string {
	return strings.Join(s.Texts(), sep)
}

// Texts extracts the text of each entry.
func Texts(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Text
	}
	return out
}

// WriteReport writes the final session summary: a header followed by one
// 1-indexed line per entry.
func WriteReport(w io.Writer, entries []Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "Clipboard History: (empty)")
		return err
	}
	if _, err := fmt.Fprintln(w, "Clipboard History:"); err != nil {
		return err
	}
	for i, e := range entries {
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, e.Text); err != nil {
			return err
		}
	}
	return nil
}
