package evidence

import (
	"strings"
	"testing"
	"time"
)

var recorded = time.Date(2025, 12, 6, 10, 0, 0, 0, time.UTC)

func TestNew_Valid(t *testing.T) {
	e, err := New("e1", "Prints WhatsApp - Ameaças", Image, 2400000, "", recorded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID() != "e1" || e.Kind() != Image || e.SizeBytes() != 2400000 {
		t.Errorf("unexpected evidence: %+v", e)
	}
	if !e.RecordedAt().Equal(recorded) {
		t.Errorf("RecordedAt() = %v", e.RecordedAt())
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		title string
		kind  Kind
		size  int64
		note  string
		at    time.Time
		want  string
	}{
		{"no id", "", "t", Text, 0, "", recorded, "id is required"},
		{"no title", "e", "", Text, 0, "", recorded, "title is required"},
		{"long title", "e", strings.Repeat("a", MaxTitleLength+1), Text, 0, "", recorded, "title too long"},
		{"bad kind", "e", "t", Kind("video"), 0, "", recorded, "invalid evidence type"},
		{"negative size", "e", "t", Text, -1, "", recorded, "negative"},
		{"long note", "e", "t", Text, 0, strings.Repeat("a", MaxNoteLength+1), recorded, "note too long"},
		{"zero time", "e", "t", Text, 0, "", time.Time{}, "recorded_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.id, tt.title, tt.kind, tt.size, tt.note, tt.at)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestAsRecord(t *testing.T) {
	e, err := New("e2", "Áudio da discussão", Audio, 5100000, "gravado na cozinha", recorded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, err := e.AsRecord()
	if err != nil {
		t.Fatalf("AsRecord: %v", err)
	}
	if r.ID() != "e2" || r.Category() != "audio" {
		t.Errorf("record = %s/%s", r.ID(), r.Category())
	}
	sf := r.SearchableFields()
	if len(sf) != 2 || sf[0] != "Áudio da discussão" || sf[1] != "gravado na cozinha" {
		t.Errorf("SearchableFields() = %v", sf)
	}
}
