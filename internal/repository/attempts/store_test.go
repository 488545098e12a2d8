package attempts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/civica/internal/db"
	"github.com/kailas-cloud/civica/internal/db/dbtest"
	"github.com/kailas-cloud/civica/internal/db/memory"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn    func(ctx context.Context, key string) ([]byte, error)
	incrFn   func(ctx context.Context, key string, val int64) error
	expireFn func(ctx context.Context, key string, ttl time.Duration, nx bool) error
	ttlFn    func(ctx context.Context, key string) (time.Duration, error)
	delFn    func(ctx context.Context, key string) error
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) IncrBy(ctx context.Context, key string, val int64) error {
	if m.incrFn != nil {
		return m.incrFn(ctx, key, val)
	}
	return nil
}

func (m *mockStore) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	if m.expireFn != nil {
		return m.expireFn(ctx, key, ttl, nx)
	}
	return nil
}

func (m *mockStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	if m.ttlFn != nil {
		return m.ttlFn(ctx, key)
	}
	return db.NoExpiry, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

func TestRecordFailure_SetsWindowWithNX(t *testing.T) {
	var gotKey string
	var gotTTL time.Duration
	var gotNX bool
	s := New(&mockStore{
		expireFn: func(_ context.Context, key string, ttl time.Duration, nx bool) error {
			gotKey, gotTTL, gotNX = key, ttl, nx
			return nil
		},
	}, 15*time.Minute)

	if err := s.RecordFailure(context.Background(), "default"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "civica:attempts:default" || gotTTL != 15*time.Minute || !gotNX {
		t.Errorf("Expire(%q, %v, nx=%v)", gotKey, gotTTL, gotNX)
	}
}

func TestRecordFailure_IncrError(t *testing.T) {
	s := New(&mockStore{
		incrFn: func(context.Context, string, int64) error { return &db.Error{Op: db.OpIncrBy, Err: errors.New("down")} },
	}, time.Minute)
	if err := s.RecordFailure(context.Background(), "v"); err == nil {
		t.Fatal("expected error")
	}
}

func TestFailures_MissingKey(t *testing.T) {
	s := New(&mockStore{}, time.Minute)
	n, ttl, err := s.Failures(context.Background(), "v")
	if err != nil || n != 0 || ttl != 0 {
		t.Errorf("Failures = %d, %v, %v", n, ttl, err)
	}
}

func TestFailures_ParseError(t *testing.T) {
	s := New(&mockStore{
		getFn: func(context.Context, string) ([]byte, error) { return []byte("x"), nil },
	}, time.Minute)
	if _, _, err := s.Failures(context.Background(), "v"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFailures_NoExpiryFallsBackToWindow(t *testing.T) {
	s := New(&mockStore{
		getFn: func(context.Context, string) ([]byte, error) { return []byte("2"), nil },
	}, time.Minute)
	n, ttl, err := s.Failures(context.Background(), "v")
	if err != nil || n != 2 || ttl != time.Minute {
		t.Errorf("Failures = %d, %v, %v", n, ttl, err)
	}
}

func TestStore_WindowOnMemoryStore(t *testing.T) {
	ctx := context.Background()
	clock := &dbtest.Clock{T: time.Date(2025, 12, 6, 10, 0, 0, 0, time.UTC)}
	s := New(memory.NewStore().WithClock(clock.Now), time.Minute)

	for i := 0; i < 3; i++ {
		if err := s.RecordFailure(ctx, "default"); err != nil {
			t.Fatal(err)
		}
		clock.Advance(10 * time.Second)
	}
	n, ttl, err := s.Failures(ctx, "default")
	if err != nil || n != 3 || ttl != 30*time.Second {
		t.Fatalf("Failures = %d, %v, %v; want 3, 30s", n, ttl, err)
	}

	if err := s.Reset(ctx, "default"); err != nil {
		t.Fatal(err)
	}
	if n, _, _ := s.Failures(ctx, "default"); n != 0 {
		t.Errorf("after Reset = %d", n)
	}

	_ = s.RecordFailure(ctx, "default")
	clock.Advance(time.Minute)
	if n, _, _ := s.Failures(ctx, "default"); n != 0 {
		t.Errorf("after window = %d, want 0", n)
	}
}
