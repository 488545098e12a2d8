package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/civica/internal/config"
	"github.com/kailas-cloud/civica/internal/db"
	"github.com/kailas-cloud/civica/internal/db/memory"
	dbRedis "github.com/kailas-cloud/civica/internal/db/redis"
	dbSQLite "github.com/kailas-cloud/civica/internal/db/sqlite"
	"github.com/kailas-cloud/civica/internal/domain/gate"
	"github.com/kailas-cloud/civica/internal/domain/theme"
	logpkg "github.com/kailas-cloud/civica/internal/logger"
	"github.com/kailas-cloud/civica/internal/metrics"
	"github.com/kailas-cloud/civica/internal/repository/attempts"
	catalogrepo "github.com/kailas-cloud/civica/internal/repository/catalog"
	evidencerepo "github.com/kailas-cloud/civica/internal/repository/evidence"
	chiTransport "github.com/kailas-cloud/civica/internal/transport/chi"
	"github.com/kailas-cloud/civica/internal/usecase/filter"
	healthuc "github.com/kailas-cloud/civica/internal/usecase/health"
	screenuc "github.com/kailas-cloud/civica/internal/usecase/screen"
	vaultuc "github.com/kailas-cloud/civica/internal/usecase/vault"
	"github.com/kailas-cloud/civica/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting civica API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register domain metrics explicitly (no init())
	metrics.RegisterCoreMetrics()

	th, err := theme.New(cfg.Theme)
	if err != nil {
		logger.Fatal("Invalid theme", zap.Error(err))
	}

	// Catalogs: embedded first, directory overrides
	var sources []catalogrepo.Source
	if cfg.Catalogs.UseEmbedded() {
		sources = append(sources, catalogrepo.Source{FS: catalogrepo.Builtin(), Pattern: catalogrepo.DefaultPattern})
	}
	if src, ok := catalogrepo.DirSource(cfg.Catalogs.Dir, cfg.Catalogs.Pattern); ok {
		sources = append(sources, src)
	}
	registry, err := catalogrepo.NewRegistry(catalogrepo.NewLoader(th, sources...), logger)
	if err != nil {
		logger.Fatal("Failed to load catalogs", zap.Error(err))
	}

	engine := filter.NewEngine()
	screens := screenuc.New(registry, engine, logger).
		WithLimits(time.Duration(cfg.Screens.IdleTTLSec)*time.Second, cfg.Screens.MaxActive)

	if cfg.Vault.IsEnabled() {
		vaultSvc, verifier, err := buildVault(cfg.Vault, store, engine, logger)
		if err != nil {
			logger.Fatal("Failed to configure vault", zap.Error(err))
		}
		screens.WithVault(vaultSvc, verifier)
		logger.Info("Vault enabled",
			zap.String("vault", cfg.Vault.ID),
			zap.Bool("bcrypt", cfg.Vault.PassphraseHash != ""),
			zap.Int("max_failed_attempts", cfg.Vault.MaxFailedAttempts),
		)
	}

	healthSvc := healthuc.New(store, registry)

	// Create chi server
	server := chiTransport.NewServer(registry, engine, screens, healthSvc, th, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter:       r,
		ErrorHandlerFunc: chiTransport.BadRequestHandler,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error { return screens.Run(gctx) })

	if cfg.Catalogs.Watch {
		watcher := catalogrepo.NewWatcher(cfg.Catalogs.Dir, cfg.Catalogs.Pattern, registry, logger).
			WithDebounce(time.Duration(cfg.Catalogs.DebounceMs) * time.Millisecond)
		g.Go(func() error { return watcher.Run(gctx) })
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", zap.Error(err))
		return
	}
	logger.Info("Server stopped gracefully")
}

// openStore creates the database store for the configured driver.
// valkey speaks the Redis protocol and shares the rueidis driver.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case db.DriverMemory:
		return memory.NewStore(), nil
	case db.DriverRedis, db.DriverValkey:
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
	case db.DriverSQLite:
		return dbSQLite.NewStore(ctx, dbSQLite.Config{Path: cfg.Path})
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// buildVault wires the vault service: cipher, evidence repository, throttle and verifier.
func buildVault(
	cfg config.VaultConfig, store db.Store, engine *filter.Engine, logger *zap.Logger,
) (*vaultuc.Service, gate.Verifier, error) {
	master, err := vaultuc.ParseMasterKey(cfg.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("vault.encryption_key: %w", err)
	}
	c, err := vaultuc.NewCipher(master, cfg.ID)
	if err != nil {
		return nil, nil, err
	}

	var verifier gate.Verifier = gate.NewPlainVerifier(cfg.Passphrase)
	if cfg.PassphraseHash != "" {
		bv, err := gate.NewBcryptVerifier(cfg.PassphraseHash)
		if err != nil {
			return nil, nil, fmt.Errorf("vault.passphrase_hash: %w", err)
		}
		verifier = bv
	}

	window := time.Duration(cfg.FailureWindowSec) * time.Second
	svc := vaultuc.New(cfg.ID, evidencerepo.New(store), c, engine, logger).
		WithThrottle(attempts.New(store, window), cfg.MaxFailedAttempts)
	return svc, verifier, nil
}
