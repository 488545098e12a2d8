package civica

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	catalogDir     string
	catalogPattern string
	noBuiltin      bool
	theme          map[string]string

	vaultID        string
	passphrase     string
	passphraseHash string
	encryptionKey  string
	maxFailed      int

	maxScreens int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithCatalogDir loads catalog files from dir on top of the built-in catalogs.
// A file whose catalog name matches a built-in one replaces it.
func WithCatalogDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogDir = dir
	})
}

// WithCatalogPattern sets the doublestar glob used inside the catalog directory.
// Default: **/*.yaml.
func WithCatalogPattern(pattern string) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogPattern = pattern
	})
}

// WithoutBuiltinCatalogs skips the embedded catalogs.
func WithoutBuiltinCatalogs() Option {
	return optionFunc(func(c *clientConfig) {
		c.noBuiltin = true
	})
}

// WithTheme overrides color tokens used to resolve catalog accents.
func WithTheme(tokens map[string]string) Option {
	return optionFunc(func(c *clientConfig) {
		c.theme = tokens
	})
}

// WithPassphrase enables vault screens guarded by a plain passphrase.
func WithPassphrase(passphrase string) Option {
	return optionFunc(func(c *clientConfig) {
		c.passphrase = passphrase
	})
}

// WithPassphraseHash enables vault screens guarded by a bcrypt hash.
// It takes precedence over WithPassphrase.
func WithPassphraseHash(hash string) Option {
	return optionFunc(func(c *clientConfig) {
		c.passphraseHash = hash
	})
}

// WithVaultID names the vault. Default: "default".
func WithVaultID(id string) Option {
	return optionFunc(func(c *clientConfig) {
		c.vaultID = id
	})
}

// WithEncryptionKey sets the base64 master key for sealed evidence.
// Without it a random key is generated and evidence lives only as long as the Client.
func WithEncryptionKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.encryptionKey = key
	})
}

// WithMaxFailedAttempts throttles unlocks after n failures within window
// (15 minutes). Zero disables throttling (default).
func WithMaxFailedAttempts(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxFailed = n
	})
}

// WithMaxScreens caps concurrently mounted screens. Default: 1000.
func WithMaxScreens(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxScreens = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
