package civica

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/civica/internal/db"
	"github.com/kailas-cloud/civica/internal/db/memory"
	domcat "github.com/kailas-cloud/civica/internal/domain/catalog"
	domev "github.com/kailas-cloud/civica/internal/domain/evidence"
	"github.com/kailas-cloud/civica/internal/domain/gate"
	"github.com/kailas-cloud/civica/internal/domain/query"
	"github.com/kailas-cloud/civica/internal/domain/theme"
	"github.com/kailas-cloud/civica/internal/repository/attempts"
	catalogrepo "github.com/kailas-cloud/civica/internal/repository/catalog"
	evidencerepo "github.com/kailas-cloud/civica/internal/repository/evidence"
	"github.com/kailas-cloud/civica/internal/usecase/filter"
	healthuc "github.com/kailas-cloud/civica/internal/usecase/health"
	screenuc "github.com/kailas-cloud/civica/internal/usecase/screen"
	vaultuc "github.com/kailas-cloud/civica/internal/usecase/vault"
)

const (
	defaultVaultID       = "default"
	defaultFailureWindow = 15 * time.Minute
	defaultScreenIdleTTL = 30 * time.Minute
)

// Внутренние интерфейсы для подмены в тестах.
type catalogReader interface {
	Get(ctx context.Context, name string) (domcat.Catalog, error)
	List(ctx context.Context) []domcat.Catalog
}

type screenUseCase interface {
	Mount(ctx context.Context, catalogName string, kind screenuc.Kind) (screenuc.View, error)
	Unmount(ctx context.Context, id string) error
	View(ctx context.Context, id string) (screenuc.View, error)
	OnTextChange(ctx context.Context, id, text string) (screenuc.View, error)
	OnCategorySelect(ctx context.Context, id, category string) (screenuc.View, error)
	OnItemTap(ctx context.Context, id, recordID string) (screenuc.View, error)
	OnPassphraseSubmit(ctx context.Context, id, passphrase string) (screenuc.View, gate.Result, error)
	Lock(ctx context.Context, id string) (screenuc.View, error)
	AddContact(ctx context.Context, id, name, number string) (screenuc.View, error)
	RemoveContact(ctx context.Context, id, contactID string) (screenuc.View, error)
	AddEvidence(ctx context.Context, id string, in vaultuc.Input) (domev.Evidence, error)
	DeleteEvidence(ctx context.Context, id, evidenceID string) error
}

// Client is the civica SDK entry point.
type Client struct {
	store     db.Store
	catalogs  catalogReader
	engine    *filter.Engine
	screens   screenUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New loads catalogs and, when a passphrase is configured, prepares the vault.
// Evidence is held in process memory.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		catalogPattern: catalogrepo.DefaultPattern,
		vaultID:        defaultVaultID,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store := memory.NewStore()
	c, err := wireClient(store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := c.Ping(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func loadCatalogs(cfg *clientConfig) (*catalogrepo.Registry, error) {
	th, err := theme.New(cfg.theme)
	if err != nil {
		return nil, fmt.Errorf("civica: theme: %w", err)
	}

	var sources []catalogrepo.Source
	if !cfg.noBuiltin {
		sources = append(sources, catalogrepo.Source{FS: catalogrepo.Builtin(), Pattern: catalogrepo.DefaultPattern})
	}
	if src, ok := catalogrepo.DirSource(cfg.catalogDir, cfg.catalogPattern); ok {
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return nil, errors.New("civica: no catalog sources (use WithCatalogDir)")
	}

	registry, err := catalogrepo.NewRegistry(catalogrepo.NewLoader(th, sources...), zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("civica: load catalogs: %w", err)
	}
	return registry, nil
}

func buildVault(store db.Store, cfg *clientConfig, engine *filter.Engine) (*vaultuc.Service, gate.Verifier, error) {
	var verifier gate.Verifier = gate.NewPlainVerifier(cfg.passphrase)
	if cfg.passphraseHash != "" {
		bv, err := gate.NewBcryptVerifier(cfg.passphraseHash)
		if err != nil {
			return nil, nil, fmt.Errorf("civica: passphrase hash: %w", err)
		}
		verifier = bv
	}

	key := cfg.encryptionKey
	if key == "" {
		generated, err := vaultuc.GenerateMasterKey()
		if err != nil {
			return nil, nil, fmt.Errorf("civica: %w", err)
		}
		key = generated
	}
	master, err := vaultuc.ParseMasterKey(key)
	if err != nil {
		return nil, nil, fmt.Errorf("civica: encryption key: %w", err)
	}
	ciph, err := vaultuc.NewCipher(master, cfg.vaultID)
	if err != nil {
		return nil, nil, fmt.Errorf("civica: %w", err)
	}

	svc := vaultuc.New(cfg.vaultID, evidencerepo.New(store), ciph, engine, zap.NewNop()).
		WithThrottle(attempts.New(store, defaultFailureWindow), cfg.maxFailed)
	return svc, verifier, nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	registry, err := loadCatalogs(cfg)
	if err != nil {
		return nil, err
	}

	engine := filter.NewEngine()
	screens := screenuc.New(registry, engine, zap.NewNop()).
		WithLimits(defaultScreenIdleTTL, cfg.maxScreens)

	if cfg.passphrase != "" || cfg.passphraseHash != "" {
		vaultSvc, verifier, err := buildVault(store, cfg, engine)
		if err != nil {
			return nil, err
		}
		screens.WithVault(vaultSvc, verifier)
	}

	return &Client{
		store:     store,
		catalogs:  registry,
		engine:    engine,
		screens:   screens,
		healthSvc: healthuc.New(store, registry),
		obs:       obs,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks the evidence store.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Catalogs lists loaded catalogs sorted by name.
func (c *Client) Catalogs(ctx context.Context) []CatalogInfo {
	start := time.Now()
	defer c.obs.observe("catalogs.list", start, nil)

	cats := c.catalogs.List(ctx)
	out := make([]CatalogInfo, len(cats))
	for i, cat := range cats {
		out[i] = fromCatalog(cat)
	}
	return out
}

// Catalog returns one catalog summary.
func (c *Client) Catalog(ctx context.Context, name string) (_ CatalogInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("catalogs.get", start, err) }()

	cat, err := c.catalogs.Get(ctx, name)
	if err != nil {
		return CatalogInfo{}, fmt.Errorf("get catalog %q: %w", name, err)
	}
	return fromCatalog(cat), nil
}

// Filter runs a query against a catalog without mounting a screen.
// The catalog's "all" label is accepted as AllCategories.
func (c *Client) Filter(ctx context.Context, catalogName string, q Query) (_ []Record, err error) {
	start := time.Now()
	defer func() { c.obs.observe("filter", start, err) }()

	cat, err := c.catalogs.Get(ctx, catalogName)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", catalogName, err)
	}
	visible := c.engine.Catalog(cat, query.Of(q.Text, q.Category).Localize(cat.AllLabel()))
	out := make([]Record, len(visible))
	for i, r := range visible {
		out[i] = fromRecord(r, nil)
	}
	return out, nil
}

// Mount opens a list screen over a catalog.
func (c *Client) Mount(ctx context.Context, catalogName string) (*Screen, error) {
	return c.mount(ctx, catalogName, screenuc.KindList)
}

// MountVault opens a locked vault screen. catalogName is optional and only
// supplies the "all" label.
func (c *Client) MountVault(ctx context.Context, catalogName ...string) (*Screen, error) {
	name := ""
	if len(catalogName) > 0 {
		name = catalogName[0]
	}
	return c.mount(ctx, name, screenuc.KindVault)
}

func (c *Client) mount(ctx context.Context, catalogName string, kind screenuc.Kind) (_ *Screen, err error) {
	start := time.Now()
	defer func() { c.obs.observe("screen.mount", start, err) }()

	v, err := c.screens.Mount(ctx, catalogName, kind)
	if err != nil {
		if kind == screenuc.KindVault && errors.Is(err, ErrNotVaultScreen) {
			return nil, ErrVaultDisabled
		}
		return nil, fmt.Errorf("mount %q: %w", catalogName, err)
	}
	c.obs.screenMounted(1)
	return &Screen{id: v.ID, client: c}, nil
}

// HashPassphrase returns a bcrypt hash for WithPassphraseHash.
func HashPassphrase(passphrase string) (string, error) {
	h, err := gate.HashPassphrase(passphrase, 0)
	if err != nil {
		return "", fmt.Errorf("civica: %w", err)
	}
	return h, nil
}

// GenerateEncryptionKey returns a random base64 master key for WithEncryptionKey.
func GenerateEncryptionKey() (string, error) {
	k, err := vaultuc.GenerateMasterKey()
	if err != nil {
		return "", fmt.Errorf("civica: %w", err)
	}
	return k, nil
}
