package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the civica API configuration.
type Config struct {
	HTTP     HTTPConfig        `yaml:"http"`
	Database DatabaseConfig    `yaml:"database"`
	Auth     AuthConfig        `yaml:"auth"`
	Catalogs CatalogsConfig    `yaml:"catalogs"`
	Screens  ScreensConfig     `yaml:"screens"`
	Vault    VaultConfig       `yaml:"vault"`
	Theme    map[string]string `yaml:"theme"` // token -> #RRGGBB, merged over built-in defaults
	Logging  LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds vault storage settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // memory, redis, valkey, sqlite (default: memory)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Path             string   `yaml:"path"` // sqlite file
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CatalogsConfig holds catalog source settings.
type CatalogsConfig struct {
	Dir      string `yaml:"dir"`     // optional directory overriding built-in catalogs
	Pattern  string `yaml:"pattern"` // doublestar glob relative to dir (default: **/*.yaml)
	Watch    bool   `yaml:"watch"`
	Embedded *bool  `yaml:"embedded"` // load built-in catalogs (default: true)
	// DebounceMs delays a reload after the last file event.
	DebounceMs int `yaml:"debounce_ms"`
}

// UseEmbedded reports whether built-in catalogs are loaded.
func (c CatalogsConfig) UseEmbedded() bool {
	return c.Embedded == nil || *c.Embedded
}

// ScreensConfig holds mounted screen limits.
type ScreensConfig struct {
	IdleTTLSec int `yaml:"idle_ttl_sec"`
	MaxActive  int `yaml:"max_active"`
}

// VaultConfig holds evidence vault settings.
type VaultConfig struct {
	Enabled           *bool  `yaml:"enabled"` // default: true
	ID                string `yaml:"id"`
	Passphrase        string `yaml:"passphrase"`      // plaintext, demo only
	PassphraseHash    string `yaml:"passphrase_hash"` // bcrypt, takes precedence
	EncryptionKey     string `yaml:"encryption_key"`  // base64, 32 bytes
	MaxFailedAttempts int    `yaml:"max_failed_attempts"`
	FailureWindowSec  int    `yaml:"failure_window_sec"`
}

// IsEnabled reports whether vault screens are served.
func (v VaultConfig) IsEnabled() bool {
	return v.Enabled == nil || *v.Enabled
}

var vaultIDRegex = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Catalogs.Pattern == "" {
		c.Catalogs.Pattern = "**/*.yaml"
	}
	if c.Catalogs.DebounceMs <= 0 {
		c.Catalogs.DebounceMs = 250
	}
	if c.Screens.IdleTTLSec <= 0 {
		c.Screens.IdleTTLSec = 1800
	}
	if c.Screens.MaxActive <= 0 {
		c.Screens.MaxActive = 1000
	}
	if c.Vault.ID == "" {
		c.Vault.ID = "default"
	}
	if c.Vault.FailureWindowSec <= 0 {
		c.Vault.FailureWindowSec = 900
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case "memory":
	case "redis", "valkey":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for driver \"sqlite\"")
		}
	default:
		return fmt.Errorf("database.driver must be one of memory, redis, valkey, sqlite, got %q", c.Database.Driver)
	}

	if !c.Catalogs.UseEmbedded() && c.Catalogs.Dir == "" {
		return fmt.Errorf("catalogs.dir is required when catalogs.embedded is false")
	}
	if c.Catalogs.Watch && c.Catalogs.Dir == "" {
		return fmt.Errorf("catalogs.watch requires catalogs.dir")
	}

	if !c.Vault.IsEnabled() {
		return nil
	}
	if !vaultIDRegex.MatchString(c.Vault.ID) {
		return fmt.Errorf("vault.id must match %s, got %q", vaultIDRegex, c.Vault.ID)
	}
	if c.Vault.Passphrase == "" && c.Vault.PassphraseHash == "" {
		return fmt.Errorf("vault.passphrase or vault.passphrase_hash is required")
	}
	if c.Vault.EncryptionKey == "" {
		return fmt.Errorf("vault.encryption_key is required")
	}
	if c.Vault.MaxFailedAttempts < 0 {
		return fmt.Errorf("vault.max_failed_attempts must not be negative, got %d", c.Vault.MaxFailedAttempts)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
