// Package screen owns per-screen list state: filter query, disclosure map and gate.
package screen

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/civica/internal/domain"
	"github.com/kailas-cloud/civica/internal/domain/contact"
	"github.com/kailas-cloud/civica/internal/domain/disclosure"
	domev "github.com/kailas-cloud/civica/internal/domain/evidence"
	"github.com/kailas-cloud/civica/internal/domain/gate"
	"github.com/kailas-cloud/civica/internal/domain/query"
	"github.com/kailas-cloud/civica/internal/metrics"
	"github.com/kailas-cloud/civica/internal/usecase/filter"
	"github.com/kailas-cloud/civica/internal/usecase/vault"
)

const (
	defaultIdleTTL   = 30 * time.Minute
	defaultMaxActive = 1000
)

// Service holds mounted screens in memory.
type Service struct {
	catalogs  CatalogSource
	engine    *filter.Engine
	vault     Vault
	verifier  gate.Verifier
	logger    *zap.Logger
	idleTTL   time.Duration
	maxActive int
	now       func() time.Time
	newID     func() string

	mu      sync.RWMutex
	screens map[string]*screen
}

// New creates a screen service without vault support.
func New(catalogs CatalogSource, engine *filter.Engine, logger *zap.Logger) *Service {
	return &Service{
		catalogs:  catalogs,
		engine:    engine,
		logger:    logger,
		idleTTL:   defaultIdleTTL,
		maxActive: defaultMaxActive,
		now:       time.Now,
		newID:     uuid.NewString,
		screens:   make(map[string]*screen),
	}
}

// WithVault enables vault screens gated by verifier.
func (s *Service) WithVault(v Vault, verifier gate.Verifier) *Service {
	s.vault = v
	s.verifier = verifier
	return s
}

// WithLimits configures eviction and the live screen cap. Zero keeps the default.
func (s *Service) WithLimits(idleTTL time.Duration, maxActive int) *Service {
	if idleTTL > 0 {
		s.idleTTL = idleTTL
	}
	if maxActive > 0 {
		s.maxActive = maxActive
	}
	return s
}

// Mount creates a screen over a snapshot of the named catalog.
// Vault screens may omit the catalog.
func (s *Service) Mount(ctx context.Context, catalogName string, kind Kind) (View, error) {
	sc := &screen{
		kind:       kind,
		query:      query.New(),
		disclosure: disclosure.New(),
		contacts:   contact.NewList(nil),
	}

	switch kind {
	case KindList:
		if catalogName == "" {
			return View{}, fmt.Errorf("%w: catalog is required for list screens", domain.ErrValidation)
		}
	case KindVault:
		if s.vault == nil {
			return View{}, fmt.Errorf("mount vault screen: %w", domain.ErrNotVaultScreen)
		}
		sc.gate = gate.New(s.verifier)
	default:
		return View{}, fmt.Errorf("%w: unknown screen kind %q", domain.ErrValidation, kind)
	}

	if catalogName != "" {
		c, err := s.catalogs.Get(ctx, catalogName)
		if err != nil {
			return View{}, fmt.Errorf("mount %s: %w", catalogName, err)
		}
		sc.catalog, sc.hasCatalog = c, true
		sc.contacts = contact.NewList(c.Contacts())
	}

	s.mu.Lock()
	if len(s.screens) >= s.maxActive {
		s.mu.Unlock()
		return View{}, domain.ErrTooManyScreens
	}
	sc.id = s.newID()
	sc.lastSeen.Store(s.now().UnixNano())
	s.screens[sc.id] = sc
	active := len(s.screens)
	s.mu.Unlock()

	metrics.ScreensActive.Set(float64(active))
	metrics.ScreenEventsTotal.WithLabelValues("mount").Inc()
	s.logger.Debug("Screen mounted",
		zap.String("screen", sc.id),
		zap.String("catalog", catalogName),
		zap.String("kind", string(kind)),
	)

	sc.mu.Lock()
	defer sc.mu.Unlock()
	return s.view(ctx, sc)
}

// Unmount destroys a screen and all its state.
func (s *Service) Unmount(_ context.Context, id string) error {
	s.mu.Lock()
	sc, ok := s.screens[id]
	if ok {
		delete(s.screens, id)
	}
	active := len(s.screens)
	s.mu.Unlock()
	if !ok {
		return domain.ErrScreenNotFound
	}

	sc.mu.Lock()
	sc.disclosure.Reset()
	if sc.gate != nil {
		sc.gate.Lock()
	}
	sc.mu.Unlock()

	metrics.ScreensActive.Set(float64(active))
	metrics.ScreenEventsTotal.WithLabelValues("unmount").Inc()
	return nil
}

// Len returns the number of mounted screens.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.screens)
}

// View returns the current state of a screen.
func (s *Service) View(ctx context.Context, id string) (View, error) {
	return s.event(ctx, id, "", func(*screen) error { return nil })
}

// OnTextChange replaces the search text.
func (s *Service) OnTextChange(ctx context.Context, id, text string) (View, error) {
	return s.event(ctx, id, "text", func(sc *screen) error {
		sc.query = sc.query.WithText(text)
		return nil
	})
}

// OnCategorySelect replaces the category; the catalog's "all" label selects ALL.
func (s *Service) OnCategorySelect(ctx context.Context, id, category string) (View, error) {
	return s.event(ctx, id, "category", func(sc *screen) error {
		sc.query = sc.query.WithCategory(category).Localize(sc.allLabel())
		return nil
	})
}

// OnItemTap toggles the disclosure state of a record (or, on vault screens, an evidence item).
func (s *Service) OnItemTap(ctx context.Context, id, recordID string) (View, error) {
	return s.event(ctx, id, "tap", func(sc *screen) error {
		if sc.hasCatalog && sc.catalog.Has(recordID) {
			sc.disclosure.Toggle(recordID)
			return nil
		}
		if sc.kind == KindVault {
			if _, err := s.vault.Get(ctx, sc.gate, recordID); err != nil {
				return err
			}
			sc.disclosure.Toggle(recordID)
			return nil
		}
		return fmt.Errorf("toggle %s: %w", recordID, domain.ErrRecordNotFound)
	})
}

// OnPassphraseSubmit submits the passphrase field of a vault screen.
func (s *Service) OnPassphraseSubmit(ctx context.Context, id, passphrase string) (View, gate.Result, error) {
	var result gate.Result
	v, err := s.event(ctx, id, "passphrase", func(sc *screen) error {
		if sc.kind != KindVault {
			return domain.ErrNotVaultScreen
		}
		r, err := s.vault.Unlock(ctx, sc.gate, passphrase)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	return v, result, err
}

// Lock re-locks a vault screen.
func (s *Service) Lock(ctx context.Context, id string) (View, error) {
	return s.event(ctx, id, "lock", func(sc *screen) error {
		if sc.kind != KindVault {
			return domain.ErrNotVaultScreen
		}
		sc.gate.Lock()
		return nil
	})
}

// AddContact appends a trusted contact to the screen's list.
// Name and number are both required.
func (s *Service) AddContact(ctx context.Context, id, name, number string) (View, error) {
	return s.event(ctx, id, "contact_add", func(sc *screen) error {
		c, err := contact.New(s.newID(), name, number)
		if err != nil {
			return err
		}
		return sc.contacts.Add(c)
	})
}

// RemoveContact deletes a trusted contact by id.
func (s *Service) RemoveContact(ctx context.Context, id, contactID string) (View, error) {
	return s.event(ctx, id, "contact_remove", func(sc *screen) error {
		return sc.contacts.Remove(contactID)
	})
}

// AddEvidence stores a new item in the vault of an unlocked screen.
func (s *Service) AddEvidence(ctx context.Context, id string, in vault.Input) (domev.Evidence, error) {
	var ev domev.Evidence
	err := s.withVault(ctx, id, func(sc *screen) error {
		var err error
		ev, err = s.vault.Add(ctx, sc.gate, in)
		return err
	})
	return ev, err
}

// GetEvidence returns one vault item.
func (s *Service) GetEvidence(ctx context.Context, id, evidenceID string) (domev.Evidence, error) {
	var ev domev.Evidence
	err := s.withVault(ctx, id, func(sc *screen) error {
		var err error
		ev, err = s.vault.Get(ctx, sc.gate, evidenceID)
		return err
	})
	return ev, err
}

// ListEvidence filters vault items with q; a nil q uses the screen's own query.
func (s *Service) ListEvidence(ctx context.Context, id string, q *query.Query) ([]domev.Evidence, error) {
	var out []domev.Evidence
	err := s.withVault(ctx, id, func(sc *screen) error {
		eff := sc.query
		if q != nil {
			eff = *q
		}
		var err error
		out, err = s.vault.List(ctx, sc.gate, eff)
		return err
	})
	return out, err
}

// DeleteEvidence removes one vault item and its disclosure state.
func (s *Service) DeleteEvidence(ctx context.Context, id, evidenceID string) error {
	return s.withVault(ctx, id, func(sc *screen) error {
		if err := s.vault.Delete(ctx, sc.gate, evidenceID); err != nil {
			return err
		}
		if sc.disclosure.IsOpen(evidenceID) {
			sc.disclosure.Toggle(evidenceID)
		}
		return nil
	})
}

// Run evicts idle screens until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	interval := s.idleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Screen janitor started",
		zap.Duration("idle_ttl", s.idleTTL),
		zap.Int("max_active", s.maxActive),
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.EvictIdle()
		}
	}
}

// EvictIdle removes screens without events for longer than the idle TTL.
func (s *Service) EvictIdle() int {
	cutoff := s.now().Add(-s.idleTTL).UnixNano()

	s.mu.Lock()
	evicted := 0
	for id, sc := range s.screens {
		if sc.lastSeen.Load() < cutoff {
			delete(s.screens, id)
			evicted++
		}
	}
	active := len(s.screens)
	s.mu.Unlock()

	if evicted > 0 {
		metrics.ScreensActive.Set(float64(active))
		metrics.ScreenEventsTotal.WithLabelValues("evict").Add(float64(evicted))
		s.logger.Info("Idle screens evicted", zap.Int("evicted", evicted), zap.Int("active", active))
	}
	return evicted
}

func (s *Service) lookup(id string) (*screen, error) {
	s.mu.RLock()
	sc, ok := s.screens[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrScreenNotFound
	}
	sc.lastSeen.Store(s.now().UnixNano())
	return sc, nil
}

// event applies fn under the screen mutex and renders the resulting view.
// The screen is rolled back when either step fails. An empty name is a read
// and is not counted.
func (s *Service) event(ctx context.Context, id, name string, fn func(*screen) error) (View, error) {
	sc, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()

	snap := sc.snapshot()
	if err := fn(sc); err != nil {
		sc.restore(snap)
		return View{}, err
	}
	v, err := s.view(ctx, sc)
	if err != nil {
		sc.restore(snap)
		return View{}, err
	}
	if name != "" {
		metrics.ScreenEventsTotal.WithLabelValues(name).Inc()
	}
	return v, nil
}

func (s *Service) withVault(_ context.Context, id string, fn func(*screen) error) error {
	sc, err := s.lookup(id)
	if err != nil {
		return err
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.kind != KindVault {
		return domain.ErrVaultLocked
	}
	return fn(sc)
}

// view renders sc; caller holds sc.mu.
func (s *Service) view(ctx context.Context, sc *screen) (View, error) {
	v := View{
		ID:       sc.id,
		Kind:     sc.kind,
		Query:    sc.query,
		OpenIDs:  sc.disclosure.OpenIDs(),
		Contacts: sc.contacts.All(),
	}
	if sc.hasCatalog {
		v.Catalog = sc.catalog.Name()
		v.Total = sc.catalog.Len()
		v.Records = s.engine.Catalog(sc.catalog, sc.query)
	}
	if sc.kind == KindVault {
		v.Gate = sc.gate.Status()
		if sc.gate.IsUnlocked() {
			items, err := s.vault.List(ctx, sc.gate, sc.query)
			if err != nil {
				return View{}, fmt.Errorf("render vault: %w", err)
			}
			v.Evidence = items
		}
	}
	return v, nil
}
