// Package vault manages encrypted evidence behind a passphrase gate.
package vault

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/civica/internal/domain"
	domev "github.com/kailas-cloud/civica/internal/domain/evidence"
	"github.com/kailas-cloud/civica/internal/domain/gate"
	"github.com/kailas-cloud/civica/internal/domain/query"
	"github.com/kailas-cloud/civica/internal/domain/record"
	"github.com/kailas-cloud/civica/internal/metrics"
	"github.com/kailas-cloud/civica/internal/repository/evidence"
	"github.com/kailas-cloud/civica/internal/usecase/filter"
)

// metricsSource labels filter metrics of vault listings.
const metricsSource = "vault"

// Input carries the client-provided attributes of a new evidence item.
type Input struct {
	Title      string
	Kind       domev.Kind
	SizeBytes  int64
	Note       string
	RecordedAt time.Time // zero means now
}

// Service seals evidence and applies unlock throttling for one vault.
type Service struct {
	vaultID   string
	repo      Repository
	attempts  AttemptCounter
	cipher    *Cipher
	engine    *filter.Engine
	maxFailed int64
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string

	// unlockMu serializes check, verify and record so concurrent guesses
	// from different screens cannot pass the limit together.
	unlockMu sync.Mutex
}

// New creates a vault service. Throttling is off until WithThrottle is applied.
func New(vaultID string, repo Repository, c *Cipher, engine *filter.Engine, logger *zap.Logger) *Service {
	return &Service{
		vaultID: vaultID,
		repo:    repo,
		cipher:  c,
		engine:  engine,
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// WithThrottle enables failed-attempt counting. maxFailed <= 0 disables it.
func (s *Service) WithThrottle(attempts AttemptCounter, maxFailed int) *Service {
	if maxFailed <= 0 || attempts == nil {
		s.attempts, s.maxFailed = nil, 0
		return s
	}
	s.attempts = attempts
	s.maxFailed = int64(maxFailed)
	return s
}

// ID returns the vault identifier.
func (s *Service) ID() string { return s.vaultID }

// Unlock submits a passphrase to g. A wrong passphrase is a Rejected result, not an error.
// While throttled the verifier is not consulted and ThrottledError is returned.
func (s *Service) Unlock(ctx context.Context, g Gate, passphrase string) (gate.Result, error) {
	if s.maxFailed > 0 {
		s.unlockMu.Lock()
		defer s.unlockMu.Unlock()

		n, retryAfter, err := s.attempts.Failures(ctx, s.vaultID)
		if err != nil {
			return "", fmt.Errorf("read failed attempts: %w", err)
		}
		if n >= s.maxFailed {
			metrics.GateAttemptsTotal.WithLabelValues("throttled").Inc()
			s.logger.Warn("Vault unlock throttled",
				zap.String("vault", s.vaultID),
				zap.Int64("failures", n),
				zap.Duration("retry_after", retryAfter),
			)
			return "", domain.NewThrottled(retryAfter)
		}
	}

	result := g.AttemptUnlock(passphrase)
	metrics.GateAttemptsTotal.WithLabelValues(string(result)).Inc()

	if s.maxFailed == 0 {
		return result, nil
	}
	switch result {
	case gate.Unlocked:
		if err := s.attempts.Reset(ctx, s.vaultID); err != nil {
			s.logger.Warn("Failed to reset attempt counter", zap.String("vault", s.vaultID), zap.Error(err))
		}
	case gate.Rejected:
		if err := s.attempts.RecordFailure(ctx, s.vaultID); err != nil {
			s.logger.Warn("Failed to record failed attempt", zap.String("vault", s.vaultID), zap.Error(err))
		}
	}
	return result, nil
}

// Add seals and stores a new evidence item.
func (s *Service) Add(ctx context.Context, g Gate, in Input) (domev.Evidence, error) {
	if !g.IsUnlocked() {
		return domev.Evidence{}, s.observe("add", domain.ErrVaultLocked)
	}
	recordedAt := in.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = s.now()
	}
	ev, err := domev.New(s.newID(), in.Title, in.Kind, in.SizeBytes, in.Note, recordedAt)
	if err != nil {
		return domev.Evidence{}, s.observe("add", fmt.Errorf("%w: %w", domain.ErrInvalidEvidence, err))
	}

	if err := s.put(ctx, ev); err != nil {
		return domev.Evidence{}, s.observe("add", err)
	}
	s.logger.Info("Evidence added", zap.String("vault", s.vaultID), zap.String("id", ev.ID()))
	return ev, s.observe("add", nil)
}

// Get returns one evidence item.
func (s *Service) Get(ctx context.Context, g Gate, id string) (domev.Evidence, error) {
	if !g.IsUnlocked() {
		return domev.Evidence{}, s.observe("get", domain.ErrVaultLocked)
	}
	sealed, err := s.repo.Get(ctx, s.vaultID, id)
	if err != nil {
		return domev.Evidence{}, s.observe("get", fmt.Errorf("get evidence: %w", err))
	}
	ev, err := s.open(sealed)
	return ev, s.observe("get", err)
}

// List returns the evidence matching q, oldest first.
func (s *Service) List(ctx context.Context, g Gate, q query.Query) ([]domev.Evidence, error) {
	if !g.IsUnlocked() {
		return nil, s.observe("list", domain.ErrVaultLocked)
	}
	sealed, err := s.repo.List(ctx, s.vaultID)
	if err != nil {
		return nil, s.observe("list", fmt.Errorf("list evidence: %w", err))
	}

	items := make([]domev.Evidence, 0, len(sealed))
	for _, b := range sealed {
		ev, err := s.open(b)
		if err != nil {
			return nil, s.observe("list", err)
		}
		items = append(items, ev)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].RecordedAt().Equal(items[j].RecordedAt()) {
			return items[i].RecordedAt().Before(items[j].RecordedAt())
		}
		return items[i].ID() < items[j].ID()
	})

	out, err := s.filter(items, q)
	return out, s.observe("list", err)
}

// Delete removes one evidence item.
func (s *Service) Delete(ctx context.Context, g Gate, id string) error {
	if !g.IsUnlocked() {
		return s.observe("delete", domain.ErrVaultLocked)
	}
	if err := s.repo.Delete(ctx, s.vaultID, id); err != nil {
		return s.observe("delete", fmt.Errorf("delete evidence: %w", err))
	}
	s.logger.Info("Evidence deleted", zap.String("vault", s.vaultID), zap.String("id", id))
	return s.observe("delete", nil)
}

func (s *Service) filter(items []domev.Evidence, q query.Query) ([]domev.Evidence, error) {
	byID := make(map[string]domev.Evidence, len(items))
	records := make([]record.Record, 0, len(items))
	for _, ev := range items {
		r, err := ev.AsRecord()
		if err != nil {
			return nil, err
		}
		byID[ev.ID()] = ev
		records = append(records, r)
	}

	matched := s.engine.Records(metricsSource, records, q)
	out := make([]domev.Evidence, 0, len(matched))
	for _, r := range matched {
		out = append(out, byID[r.ID()])
	}
	return out, nil
}

func (s *Service) put(ctx context.Context, ev domev.Evidence) error {
	plain, err := marshalEvidence(ev)
	if err != nil {
		return err
	}
	data, err := s.cipher.Seal(plain, s.aad(ev.ID()))
	if err != nil {
		return fmt.Errorf("seal evidence: %w", err)
	}
	if err := s.repo.Put(ctx, s.vaultID, evidence.Sealed{ID: ev.ID(), Data: data}); err != nil {
		return fmt.Errorf("store evidence: %w", err)
	}
	return nil
}

func (s *Service) open(b evidence.Sealed) (domev.Evidence, error) {
	plain, err := s.cipher.Open(b.Data, s.aad(b.ID))
	if err != nil {
		return domev.Evidence{}, fmt.Errorf("evidence %s: %w", b.ID, err)
	}
	ev, err := unmarshalEvidence(plain)
	if err != nil {
		return domev.Evidence{}, fmt.Errorf("evidence %s: %w", b.ID, err)
	}
	if ev.ID() != b.ID {
		return domev.Evidence{}, fmt.Errorf("evidence %s: payload id mismatch", b.ID)
	}
	return ev, nil
}

// aad binds a ciphertext to its vault and id so blobs cannot be swapped.
func (s *Service) aad(id string) []byte {
	return []byte(s.vaultID + ":" + id)
}

func (s *Service) observe(op string, err error) error {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrVaultLocked):
		status = "locked"
	case errors.Is(err, domain.ErrEvidenceNotFound):
		status = "not_found"
	case errors.Is(err, domain.ErrInvalidEvidence):
		status = "invalid"
	default:
		status = "error"
	}
	metrics.VaultOperationsTotal.WithLabelValues(op, status).Inc()
	return err
}
