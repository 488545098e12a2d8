// Package dbtest holds behavior checks shared by every db.Store driver.
package dbtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/civica/internal/db"
)

// Clock is a settable time source for drivers that accept one.
type Clock struct{ T time.Time }

// Now returns the current fake time.
func (c *Clock) Now() time.Time { return c.T }

// Advance moves the clock forward.
func (c *Clock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// Run exercises the db.Store contract. newStore must return an empty store
// driven by clock.
func Run(t *testing.T, newStore func(t *testing.T, clock *Clock) db.Store) {
	t.Helper()
	ctx := context.Background()
	fresh := func(t *testing.T) (db.Store, *Clock) {
		t.Helper()
		clock := &Clock{T: time.Date(2025, 12, 6, 10, 0, 0, 0, time.UTC)}
		s := newStore(t, clock)
		t.Cleanup(s.Close)
		return s, clock
	}

	t.Run("ping", func(t *testing.T) {
		s, _ := fresh(t)
		if err := s.Ping(ctx); err != nil {
			t.Fatalf("Ping: %v", err)
		}
		if err := s.WaitForReady(ctx, time.Second); err != nil {
			t.Fatalf("WaitForReady: %v", err)
		}
	})

	t.Run("hash round trip", func(t *testing.T) {
		s, _ := fresh(t)
		if err := s.HSet(ctx, "h", map[string]string{"a": "1", "b": "2"}); err != nil {
			t.Fatalf("HSet: %v", err)
		}
		if err := s.HSet(ctx, "h", map[string]string{"b": "3"}); err != nil {
			t.Fatalf("HSet update: %v", err)
		}
		got, err := s.HGetAll(ctx, "h")
		if err != nil {
			t.Fatalf("HGetAll: %v", err)
		}
		if diff := cmp.Diff(map[string]string{"a": "1", "b": "3"}, got); diff != "" {
			t.Errorf("HGetAll mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing keys", func(t *testing.T) {
		s, _ := fresh(t)
		if _, err := s.HGetAll(ctx, "nope"); !errors.Is(err, db.ErrKeyNotFound) {
			t.Errorf("HGetAll: want ErrKeyNotFound, got %v", err)
		}
		if _, err := s.Get(ctx, "nope"); !errors.Is(err, db.ErrKeyNotFound) {
			t.Errorf("Get: want ErrKeyNotFound, got %v", err)
		}
		if _, err := s.TTL(ctx, "nope"); !errors.Is(err, db.ErrKeyNotFound) {
			t.Errorf("TTL: want ErrKeyNotFound, got %v", err)
		}
		if ok, err := s.Exists(ctx, "nope"); err != nil || ok {
			t.Errorf("Exists = %v, %v", ok, err)
		}
		if err := s.Del(ctx, "nope"); err != nil {
			t.Errorf("Del of missing key: %v", err)
		}
	})

	t.Run("del and exists", func(t *testing.T) {
		s, _ := fresh(t)
		_ = s.HSet(ctx, "h", map[string]string{"a": "1"})
		_ = s.Set(ctx, "k", []byte("v"))
		for _, key := range []string{"h", "k"} {
			if ok, _ := s.Exists(ctx, key); !ok {
				t.Errorf("Exists(%s) = false before Del", key)
			}
			if err := s.Del(ctx, key); err != nil {
				t.Fatalf("Del(%s): %v", key, err)
			}
			if ok, _ := s.Exists(ctx, key); ok {
				t.Errorf("Exists(%s) = true after Del", key)
			}
		}
	})

	t.Run("scan", func(t *testing.T) {
		s, _ := fresh(t)
		_ = s.HSet(ctx, "civica:vault:a:evidence:1", map[string]string{"x": "1"})
		_ = s.HSet(ctx, "civica:vault:a:evidence:2", map[string]string{"x": "1"})
		_ = s.HSet(ctx, "civica:vault:b:evidence:1", map[string]string{"x": "1"})
		_ = s.Set(ctx, "civica:attempts:a", []byte("1"))

		got, err := s.Scan(ctx, "civica:vault:a:evidence:*")
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		want := []string{"civica:vault:a:evidence:1", "civica:vault:a:evidence:2"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Scan mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("kv round trip", func(t *testing.T) {
		s, _ := fresh(t)
		if err := s.Set(ctx, "k", []byte("v1")); err != nil {
			t.Fatalf("Set: %v", err)
		}
		got, err := s.Get(ctx, "k")
		if err != nil || string(got) != "v1" {
			t.Fatalf("Get = %q, %v", got, err)
		}
		if ttl, err := s.TTL(ctx, "k"); err != nil || ttl != db.NoExpiry {
			t.Errorf("TTL = %v, %v; want NoExpiry", ttl, err)
		}
	})

	t.Run("ttl expiry", func(t *testing.T) {
		s, clock := fresh(t)
		if err := s.SetWithTTL(ctx, "k", []byte("v"), time.Minute); err != nil {
			t.Fatalf("SetWithTTL: %v", err)
		}
		clock.Advance(20 * time.Second)
		ttl, err := s.TTL(ctx, "k")
		if err != nil || ttl != 40*time.Second {
			t.Errorf("TTL = %v, %v; want 40s", ttl, err)
		}
		clock.Advance(40 * time.Second)
		if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
			t.Errorf("Get after expiry: want ErrKeyNotFound, got %v", err)
		}
	})

	t.Run("counter with nx window", func(t *testing.T) {
		s, clock := fresh(t)
		for i := 0; i < 3; i++ {
			if err := s.IncrBy(ctx, "c", 1); err != nil {
				t.Fatalf("IncrBy: %v", err)
			}
			if err := s.Expire(ctx, "c", time.Minute, true); err != nil {
				t.Fatalf("Expire: %v", err)
			}
			clock.Advance(10 * time.Second)
		}
		got, err := s.Get(ctx, "c")
		if err != nil || string(got) != "3" {
			t.Fatalf("Get = %q, %v; want 3", got, err)
		}
		// NX kept the first expiry: 60s - 30s elapsed.
		if ttl, _ := s.TTL(ctx, "c"); ttl != 30*time.Second {
			t.Errorf("TTL = %v, want 30s", ttl)
		}
		clock.Advance(30 * time.Second)
		if err := s.IncrBy(ctx, "c", 1); err != nil {
			t.Fatalf("IncrBy after window: %v", err)
		}
		if got, _ := s.Get(ctx, "c"); string(got) != "1" {
			t.Errorf("counter after window = %q, want 1", got)
		}
	})

	t.Run("expire without nx resets", func(t *testing.T) {
		s, _ := fresh(t)
		_ = s.SetWithTTL(ctx, "k", []byte("v"), time.Minute)
		if err := s.Expire(ctx, "k", time.Hour, false); err != nil {
			t.Fatalf("Expire: %v", err)
		}
		if ttl, _ := s.TTL(ctx, "k"); ttl != time.Hour {
			t.Errorf("TTL = %v, want 1h", ttl)
		}
	})

	t.Run("incr on non integer", func(t *testing.T) {
		s, _ := fresh(t)
		_ = s.Set(ctx, "k", []byte("abc"))
		if err := s.IncrBy(ctx, "k", 1); !errors.Is(err, db.ErrNotInteger) {
			t.Errorf("want ErrNotInteger, got %v", err)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		s, _ := fresh(t)
		_ = s.HSet(ctx, "h", map[string]string{"a": "1"})
		if _, err := s.Get(ctx, "h"); !errors.Is(err, db.ErrWrongType) {
			t.Errorf("Get on hash: want ErrWrongType, got %v", err)
		}
		_ = s.Set(ctx, "k", []byte("v"))
		if _, err := s.HGetAll(ctx, "k"); !errors.Is(err, db.ErrWrongType) {
			t.Errorf("HGetAll on string: want ErrWrongType, got %v", err)
		}
	})
}
