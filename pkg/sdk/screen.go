package civica

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	domev "github.com/kailas-cloud/civica/internal/domain/evidence"
	"github.com/kailas-cloud/civica/internal/domain/gate"
	screenuc "github.com/kailas-cloud/civica/internal/usecase/screen"
	vaultuc "github.com/kailas-cloud/civica/internal/usecase/vault"
)

// Screen is a mounted list or vault view. Events on one screen are
// serialized; different screens are independent. Safe for concurrent use.
type Screen struct {
	id     string
	client *Client
	closed atomic.Bool
}

// ID returns the screen id.
func (s *Screen) ID() string { return s.id }

// View returns the current state without changing it.
func (s *Screen) View(ctx context.Context) (View, error) {
	return s.event("screen.view", func() (screenuc.View, error) {
		return s.client.screens.View(ctx, s.id)
	})
}

// OnTextChange replaces the search text and re-filters.
func (s *Screen) OnTextChange(ctx context.Context, text string) (View, error) {
	return s.event("screen.text_change", func() (screenuc.View, error) {
		return s.client.screens.OnTextChange(ctx, s.id, text)
	})
}

// OnCategorySelect replaces the category and re-filters. The catalog's
// "all" label and "" both mean AllCategories.
func (s *Screen) OnCategorySelect(ctx context.Context, category string) (View, error) {
	return s.event("screen.category_select", func() (screenuc.View, error) {
		return s.client.screens.OnCategorySelect(ctx, s.id, category)
	})
}

// OnItemTap toggles the details of a record (or vault item).
func (s *Screen) OnItemTap(ctx context.Context, recordID string) (View, error) {
	return s.event("screen.item_tap", func() (screenuc.View, error) {
		return s.client.screens.OnItemTap(ctx, s.id, recordID)
	})
}

// OnPassphraseSubmit attempts to unlock a vault screen. A wrong passphrase
// returns Rejected with a nil error; throttling returns ErrAttemptsThrottled.
func (s *Screen) OnPassphraseSubmit(ctx context.Context, passphrase string) (UnlockResult, error) {
	const op = "screen.passphrase_submit"
	start := time.Now()
	if s.closed.Load() {
		s.client.obs.observe(op, start, ErrClosed)
		return "", ErrClosed
	}

	_, res, err := s.client.screens.OnPassphraseSubmit(ctx, s.id, passphrase)
	if err != nil {
		s.client.obs.observe(op, start, err)
		return "", fmt.Errorf("unlock: %w", err)
	}
	if res == gate.Rejected {
		s.client.obs.observeStatus(op, "rejected", start, nil)
		return Rejected, nil
	}
	s.client.obs.observe(op, start, nil)
	return Unlocked, nil
}

// Lock relocks a vault screen.
func (s *Screen) Lock(ctx context.Context) (View, error) {
	return s.event("screen.lock", func() (screenuc.View, error) {
		return s.client.screens.Lock(ctx, s.id)
	})
}

// AddContact appends a trusted contact. Name and number are both required,
// otherwise ErrInvalidContact is returned.
func (s *Screen) AddContact(ctx context.Context, name, number string) (View, error) {
	return s.event("screen.contact_add", func() (screenuc.View, error) {
		return s.client.screens.AddContact(ctx, s.id, name, number)
	})
}

// RemoveContact deletes a trusted contact by id.
func (s *Screen) RemoveContact(ctx context.Context, contactID string) (View, error) {
	return s.event("screen.contact_remove", func() (screenuc.View, error) {
		return s.client.screens.RemoveContact(ctx, s.id, contactID)
	})
}

// AddEvidence seals a new item into the vault. The screen must be unlocked.
func (s *Screen) AddEvidence(ctx context.Context, in EvidenceInput) (_ Evidence, err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("screen.evidence_add", start, err) }()

	if s.closed.Load() {
		return Evidence{}, ErrClosed
	}
	ev, err := s.client.screens.AddEvidence(ctx, s.id, vaultuc.Input{
		Title:      in.Title,
		Kind:       domev.Kind(in.Kind),
		SizeBytes:  in.SizeBytes,
		Note:       in.Note,
		RecordedAt: in.RecordedAt,
	})
	if err != nil {
		return Evidence{}, fmt.Errorf("add evidence: %w", err)
	}
	return fromEvidence(ev, false), nil
}

// DeleteEvidence removes a vault item. The screen must be unlocked.
func (s *Screen) DeleteEvidence(ctx context.Context, evidenceID string) (err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("screen.evidence_delete", start, err) }()

	if s.closed.Load() {
		return ErrClosed
	}
	if err = s.client.screens.DeleteEvidence(ctx, s.id, evidenceID); err != nil {
		return fmt.Errorf("delete evidence %q: %w", evidenceID, err)
	}
	return nil
}

// Close unmounts the screen. Closing twice is a no-op.
func (s *Screen) Close(ctx context.Context) (err error) {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	start := time.Now()
	defer func() { s.client.obs.observe("screen.unmount", start, err) }()

	s.client.obs.screenMounted(-1)
	if err = s.client.screens.Unmount(ctx, s.id); err != nil {
		return fmt.Errorf("unmount: %w", err)
	}
	return nil
}

func (s *Screen) event(op string, fn func() (screenuc.View, error)) (_ View, err error) {
	start := time.Now()
	defer func() { s.client.obs.observe(op, start, err) }()

	if s.closed.Load() {
		return View{}, ErrClosed
	}
	v, err := fn()
	if err != nil {
		return View{}, fmt.Errorf("%s: %w", op, err)
	}
	return fromView(v), nil
}
