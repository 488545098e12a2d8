package evidence

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/civica/internal/domain/record"
)

// Kind is the media type of an evidence item.
type Kind string

// Evidence kinds.
const (
	Image Kind = "image"
	Audio Kind = "audio"
	Text  Kind = "text"
)

// IsValid checks if the kind is supported.
func (k Kind) IsValid() bool {
	return k == Image || k == Audio || k == Text
}

// Limits on evidence attributes.
const (
	MaxTitleLength = 256
	MaxNoteLength  = 16384
)

// SearchableFields are the evidence attributes matched by list filters.
var SearchableFields = []string{"title", "note"}

// Evidence is a vault item (immutable value object).
type Evidence struct {
	id         string
	title      string
	kind       Kind
	sizeBytes  int64
	note       string
	recordedAt time.Time
}

// New validates and creates an Evidence item.
func New(id, title string, kind Kind, sizeBytes int64, note string, recordedAt time.Time) (Evidence, error) {
	if id == "" {
		return Evidence{}, fmt.Errorf("evidence id is required")
	}
	if title == "" {
		return Evidence{}, fmt.Errorf("title is required")
	}
	if len(title) > MaxTitleLength {
		return Evidence{}, fmt.Errorf("title too long (max %d)", MaxTitleLength)
	}
	if !kind.IsValid() {
		return Evidence{}, fmt.Errorf("invalid evidence type %q", kind)
	}
	if sizeBytes < 0 {
		return Evidence{}, fmt.Errorf("size must not be negative")
	}
	if len(note) > MaxNoteLength {
		return Evidence{}, fmt.Errorf("note too long (max %d)", MaxNoteLength)
	}
	if recordedAt.IsZero() {
		return Evidence{}, fmt.Errorf("recorded_at is required")
	}
	return Reconstruct(id, title, kind, sizeBytes, note, recordedAt), nil
}

// Reconstruct creates an Evidence without validation (storage hydration).
func Reconstruct(id, title string, kind Kind, sizeBytes int64, note string, recordedAt time.Time) Evidence {
	return Evidence{
		id:         id,
		title:      title,
		kind:       kind,
		sizeBytes:  sizeBytes,
		note:       note,
		recordedAt: recordedAt.UTC(),
	}
}

// ID returns the evidence identifier.
func (e Evidence) ID() string { return e.id }

// Title returns the title.
func (e Evidence) Title() string { return e.title }

// Kind returns the media type.
func (e Evidence) Kind() Kind { return e.kind }

// SizeBytes returns the payload size as reported by the client.
func (e Evidence) SizeBytes() int64 { return e.sizeBytes }

// Note returns the free-text note.
func (e Evidence) Note() string { return e.note }

// RecordedAt returns when the evidence was captured.
func (e Evidence) RecordedAt() time.Time { return e.recordedAt }

// AsRecord projects the evidence onto a catalog record so list filters apply:
// the kind is the category, title and note are searchable.
func (e Evidence) AsRecord() (record.Record, error) {
	r, err := record.New(e.id, string(e.kind), map[string]string{
		"title": e.title,
		"note":  e.note,
	}, nil)
	if err != nil {
		return record.Record{}, fmt.Errorf("evidence %s as record: %w", e.id, err)
	}
	return r.WithSearchable(SearchableFields), nil
}
