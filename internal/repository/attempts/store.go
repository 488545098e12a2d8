// Package attempts persists failed unlock attempts per vault in a fixed window.
package attempts

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/civica/internal/db"
)

// store is the consumer interface for attempt counters (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	Del(ctx context.Context, key string) error
}

// Store counts failures with INCRBY and opens the window with EXPIRE NX,
// so the window starts at the first failure and is not extended by later ones.
type Store struct {
	store  store
	window time.Duration
}

// New creates an attempt store with the given failure window.
func New(s store, window time.Duration) *Store {
	return &Store{store: s, window: window}
}

func key(vaultID string) string {
	return "civica:attempts:" + vaultID
}

// RecordFailure increments the failure counter of a vault.
func (s *Store) RecordFailure(ctx context.Context, vaultID string) error {
	k := key(vaultID)
	if err := s.store.IncrBy(ctx, k, 1); err != nil {
		return fmt.Errorf("attempts INCRBY %s: %w", k, err)
	}
	if err := s.store.Expire(ctx, k, s.window, true); err != nil {
		return fmt.Errorf("attempts EXPIRE %s: %w", k, err)
	}
	return nil
}

// Failures returns the failures in the current window and the time until it closes.
// A vault without failures returns 0.
func (s *Store) Failures(ctx context.Context, vaultID string) (int64, time.Duration, error) {
	k := key(vaultID)
	data, err := s.store.Get(ctx, k)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("attempts GET %s: %w", k, err)
	}

	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("attempts GET %s parse: %w", k, err)
	}

	ttl, err := s.store.TTL(ctx, k)
	switch {
	case errors.Is(err, db.ErrKeyNotFound):
		// expired between GET and PTTL
		return 0, 0, nil
	case err != nil:
		return 0, 0, fmt.Errorf("attempts PTTL %s: %w", k, err)
	case ttl == db.NoExpiry:
		ttl = s.window
	}
	return n, ttl, nil
}

// Reset clears the counter after a successful unlock.
func (s *Store) Reset(ctx context.Context, vaultID string) error {
	k := key(vaultID)
	if err := s.store.Del(ctx, k); err != nil {
		return fmt.Errorf("attempts DEL %s: %w", k, err)
	}
	return nil
}
