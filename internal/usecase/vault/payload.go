package vault

import (
	"encoding/json"
	"fmt"
	"time"

	domev "github.com/kailas-cloud/civica/internal/domain/evidence"
)

// payload is the plaintext stored inside a sealed blob.
type payload struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Kind       string    `json:"kind"`
	SizeBytes  int64     `json:"size_bytes"`
	Note       string    `json:"note,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

func marshalEvidence(e domev.Evidence) ([]byte, error) {
	data, err := json.Marshal(payload{
		ID:         e.ID(),
		Title:      e.Title(),
		Kind:       string(e.Kind()),
		SizeBytes:  e.SizeBytes(),
		Note:       e.Note(),
		RecordedAt: e.RecordedAt(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal evidence: %w", err)
	}
	return data, nil
}

func unmarshalEvidence(data []byte) (domev.Evidence, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return domev.Evidence{}, fmt.Errorf("unmarshal evidence: %w", err)
	}
	return domev.Reconstruct(p.ID, p.Title, domev.Kind(p.Kind), p.SizeBytes, p.Note, p.RecordedAt), nil
}
