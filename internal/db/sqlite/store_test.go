package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/civica/internal/db"
	"github.com/kailas-cloud/civica/internal/db/dbtest"
)

func TestStore(t *testing.T) {
	dbtest.Run(t, func(t *testing.T, clock *dbtest.Clock) db.Store {
		s, err := NewStore(context.Background(), Config{Path: ":memory:"})
		if err != nil {
			t.Fatalf("NewStore: %v", err)
		}
		return s.WithClock(clock.Now)
	})
}

func TestNewStore_RequiresPath(t *testing.T) {
	if _, err := NewStore(context.Background(), Config{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vault.db")

	s, err := NewStore(ctx, Config{Path: path})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.HSet(ctx, "civica:vault:default:evidence:e1", map[string]string{"blob": "x"}); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	s.Close()

	s, err = NewStore(ctx, Config{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	m, err := s.HGetAll(ctx, "civica:vault:default:evidence:e1")
	if err != nil || m["blob"] != "x" {
		t.Fatalf("HGetAll after reopen = %v, %v", m, err)
	}
}
