// Package memory implements db.Store in process memory.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kailas-cloud/civica/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type entry struct {
	value     []byte
	hash      map[string]string
	expiresAt time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store keeps every key in a mutex-guarded map. Expired keys are dropped lazily.
type Store struct {
	mu   sync.Mutex
	data map[string]*entry
	now  func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{data: make(map[string]*entry), now: time.Now}
}

// WithClock overrides the time source (tests).
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// lookup returns the live entry for key, evicting it when expired. Caller holds mu.
func (s *Store) lookup(key string) (*entry, bool) {
	e, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if e.expired(s.now()) {
		delete(s.data, key)
		return nil, false
	}
	return e, true
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close drops all data.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]*entry)
}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// HSet sets hash fields.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		e = &entry{hash: make(map[string]string, len(fields))}
		s.data[key] = e
	}
	if e.hash == nil {
		return &db.Error{Op: db.OpHSet, Err: db.ErrWrongType}
	}
	for k, v := range fields {
		e.hash[k] = v
	}
	return nil
}

// HGetAll returns a copy of all hash fields.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if e.hash == nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: db.ErrWrongType}
	}
	out := make(map[string]string, len(e.hash))
	for k, v := range e.hash {
		out[k] = v
	}
	return out, nil
}

// Del deletes a key.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lookup(key)
	return ok, nil
}

// Scan returns the keys matching a glob pattern, sorted.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, &db.Error{Op: db.OpScan, Err: doublestar.ErrBadPattern}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for key := range s.data {
		if _, ok := s.lookup(key); !ok {
			continue
		}
		if ok, _ := doublestar.Match(pattern, key); ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if e.hash != nil {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrWrongType}
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a value at the given key and clears any TTL.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = &entry{value: append([]byte{}, value...)}
	return nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = &entry{value: append([]byte{}, value...), expiresAt: s.now().Add(ttl)}
	return nil
}

// IncrBy atomically increments a key by the given amount, keeping its TTL.
func (s *Store) IncrBy(_ context.Context, key string, val int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		s.data[key] = &entry{value: []byte(strconv.FormatInt(val, 10))}
		return nil
	}
	if e.hash != nil {
		return &db.Error{Op: db.OpIncrBy, Err: db.ErrWrongType}
	}
	cur, err := strconv.ParseInt(string(e.value), 10, 64)
	if err != nil {
		return &db.Error{Op: db.OpIncrBy, Err: db.ErrNotInteger}
	}
	e.value = []byte(strconv.FormatInt(cur+val, 10))
	return nil
}

// Expire sets TTL on a key. When nx=true, sets TTL only if the key has no expiry yet.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return nil
	}
	if nx && !e.expiresAt.IsZero() {
		return nil
	}
	e.expiresAt = s.now().Add(ttl)
	return nil
}

// TTL returns the remaining time to live of a key.
func (s *Store) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(key)
	if !ok {
		return 0, db.ErrKeyNotFound
	}
	if e.expiresAt.IsZero() {
		return db.NoExpiry, nil
	}
	return e.expiresAt.Sub(s.now()), nil
}
