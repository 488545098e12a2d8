package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP: HTTPConfig{Port: 8080},
		Vault: VaultConfig{
			Passphrase:    "1234",
			EncryptionKey: "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Database.Driver != "memory" {
		t.Errorf("driver = %q", cfg.Database.Driver)
	}
	if cfg.Catalogs.Pattern != "**/*.yaml" || !cfg.Catalogs.UseEmbedded() {
		t.Errorf("catalogs = %+v", cfg.Catalogs)
	}
	if cfg.Screens.IdleTTLSec != 1800 || cfg.Screens.MaxActive != 1000 {
		t.Errorf("screens = %+v", cfg.Screens)
	}
	if cfg.Vault.ID != "default" || cfg.Vault.MaxFailedAttempts != 0 || !cfg.Vault.IsEnabled() {
		t.Errorf("vault = %+v", cfg.Vault)
	}
}

func TestValidate(t *testing.T) {
	no := false

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "mongo" }, "database.driver"},
		{"redis without addrs", func(c *Config) { c.Database.Driver = "redis" }, "database.addrs"},
		{"valkey with addrs", func(c *Config) {
			c.Database.Driver = "valkey"
			c.Database.Addrs = []string{"localhost:6379"}
		}, ""},
		{"sqlite without path", func(c *Config) { c.Database.Driver = "sqlite" }, "database.path"},
		{"no catalogs", func(c *Config) { c.Catalogs.Embedded = &no }, "catalogs.dir"},
		{"watch without dir", func(c *Config) { c.Catalogs.Watch = true }, "catalogs.watch"},
		{"vault without passphrase", func(c *Config) { c.Vault.Passphrase = "" }, "vault.passphrase"},
		{"vault hash only", func(c *Config) {
			c.Vault.Passphrase = ""
			c.Vault.PassphraseHash = "$2a$10$abc"
		}, ""},
		{"vault without key", func(c *Config) { c.Vault.EncryptionKey = "" }, "vault.encryption_key"},
		{"vault id with glob", func(c *Config) { c.Vault.ID = "a*" }, "vault.id"},
		{"negative attempts", func(c *Config) { c.Vault.MaxFailedAttempts = -1 }, "vault.max_failed_attempts"},
		{"vault disabled skips checks", func(c *Config) {
			c.Vault.Enabled = &no
			c.Vault.Passphrase = ""
			c.Vault.EncryptionKey = ""
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CIVICA_TEST_KEY", "secret")

	got := string(expandEnvVars([]byte("a: ${CIVICA_TEST_KEY}\nb: ${CIVICA_TEST_MISSING:-fallback}\nc: ${CIVICA_TEST_MISSING}")))
	want := "a: secret\nb: fallback\nc: "
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestLoad_FromWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	yaml := `
http:
  port: 9090
database:
  driver: sqlite
  path: ${CIVICA_TEST_DB:-/tmp/civica.db}
catalogs:
  dir: ./catalogs
  watch: true
vault:
  passphrase: "1234"
  encryption_key: ${CIVICA_TEST_VAULT_KEY}
  max_failed_attempts: 5
theme:
  primary: "#1E88E5"
`
	if err := os.WriteFile(filepath.Join(dir, "config", "unittest.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CIVICA_TEST_VAULT_KEY", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=")
	t.Chdir(dir)

	cfg, err := Load("unittest")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTP.Port != 9090 || cfg.Database.Path != "/tmp/civica.db" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Vault.MaxFailedAttempts != 5 || cfg.Vault.FailureWindowSec != 900 {
		t.Errorf("vault = %+v", cfg.Vault)
	}
	if cfg.Theme["primary"] != "#1E88E5" {
		t.Errorf("theme = %v", cfg.Theme)
	}
}

func TestLoad_Missing(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load("does-not-exist"); err == nil {
		t.Fatal("expected error for missing config")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("GetEnv() = %q", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("GetEnv() = %q", got)
	}
}
