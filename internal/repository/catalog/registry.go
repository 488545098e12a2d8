package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kailas-cloud/civica/internal/domain"
	domcat "github.com/kailas-cloud/civica/internal/domain/catalog"
	"github.com/kailas-cloud/civica/internal/metrics"
)

// loader is the consumer interface for reading catalog sources.
type loader interface {
	Load() (map[string]domcat.Catalog, error)
}

type snapshot struct {
	byName map[string]domcat.Catalog
	names  []string
}

// Registry holds the current immutable catalog set. Readers never block;
// Reload builds a new set and swaps it in atomically.
type Registry struct {
	loader  loader
	logger  *zap.Logger
	current atomic.Pointer[snapshot]
	// serializes reloads so an older read never overwrites a newer one
	reloadMu sync.Mutex
}

// NewRegistry creates a registry and performs the initial load.
func NewRegistry(l loader, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{loader: l, logger: logger}
	if err := r.Reload(context.Background()); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads all sources. On failure the previous set stays active.
func (r *Registry) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("reload catalogs: %w", err)
	}

	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	loaded, err := r.loader.Load()
	if err != nil {
		metrics.CatalogReloadsTotal.WithLabelValues("error").Inc()
		r.logger.Error("Catalog reload failed, keeping previous set", zap.Error(err))
		return fmt.Errorf("reload catalogs: %w", err)
	}

	names := make([]string, 0, len(loaded))
	for name := range loaded {
		names = append(names, name)
	}
	sort.Strings(names)

	r.current.Store(&snapshot{byName: loaded, names: names})
	metrics.CatalogReloadsTotal.WithLabelValues("success").Inc()
	r.logger.Info("Catalogs loaded", zap.Int("count", len(names)), zap.Strings("names", names))
	return nil
}

// Get returns the named catalog.
func (r *Registry) Get(_ context.Context, name string) (domcat.Catalog, error) {
	s := r.current.Load()
	if s == nil {
		return domcat.Catalog{}, fmt.Errorf("catalog %s: %w", name, domain.ErrNotFound)
	}
	c, ok := s.byName[name]
	if !ok {
		return domcat.Catalog{}, fmt.Errorf("catalog %s: %w", name, domain.ErrNotFound)
	}
	return c, nil
}

// List returns all catalogs sorted by name.
func (r *Registry) List(_ context.Context) []domcat.Catalog {
	s := r.current.Load()
	if s == nil {
		return nil
	}
	out := make([]domcat.Catalog, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, s.byName[name])
	}
	return out
}

// Len returns the number of loaded catalogs.
func (r *Registry) Len() int {
	s := r.current.Load()
	if s == nil {
		return 0
	}
	return len(s.names)
}
