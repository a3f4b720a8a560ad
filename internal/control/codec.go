package control

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"go.klb.dev/clipmaster/internal/history"
)

const (
	fieldText     = "text"
	fieldCopiedAt = "copied_at"
)

func encodeEntry(e history.Entry) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldText: structpb.NewStringValue(e.Text),
	}
	if !e.CopiedAt.IsZero() {
		fields[fieldCopiedAt] = structpb.NewStringValue(e.CopiedAt.UTC().Format(time.RFC3339Nano))
	}
	return &structpb.Struct{Fields: fields}
}

func encodeEntries(entries []history.Entry) *structpb.ListValue {
	values := make([]*structpb.Value, len(entries))
	for i, e := range entries {
		values[i] = structpb.NewStructValue(encodeEntry(e))
	}
	return &structpb.ListValue{Values: values}
}

func decodeEntry(s *structpb.Struct) (history.Entry, error) {
	var e history.Entry
	text, ok := s.GetFields()[fieldText]
	if !ok {
		return e, fmt.Errorf("entry without %q field", fieldText)
	}
	e.Text = text.GetStringValue()
	if at, ok := s.GetFields()[fieldCopiedAt]; ok {
		t, err := time.Parse(time.RFC3339Nano, at.GetStringValue())
		if err != nil {
			return e, fmt.Errorf("entry %s: %w", fieldCopiedAt, err)
		}
		e.CopiedAt = t
	}
	return e, nil
}

func decodeEntries(l *structpb.ListValue) ([]history.Entry, error) {
	out := make([]history.Entry, 0, len(l.GetValues()))
	for i, v := range l.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("history item %d is not a struct", i)
		}
		e, err := decodeEntry(s)
		if err != nil {
			return nil, fmt.Errorf("history item %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}
