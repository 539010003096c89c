package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	tablewire "github.com/tablewire/telemetry-go"
)

func writeConfig(t *testing.T, yaml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tablewire.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() does not validate: %v", err)
	}
	if cfg.Store.Backend != BackendMemory {
		t.Errorf("Backend = %s, want memory", cfg.Store.Backend)
	}
	if cfg.Secret.Env != DefaultSecretEnv {
		t.Errorf("Secret.Env = %s, want %s", cfg.Secret.Env, DefaultSecretEnv)
	}
}

func TestLoad_Full(t *testing.T) {
	path := writeConfig(t, `
secret:
  env: MY_SECRET
protocol:
  iv_seed: custom-seed
  replay_window_ms: 60000
  identifier_field: orderId
  strict_signatures: true
store:
  backend: sqlite
  sqlite:
    path: /var/lib/tablewire/calls.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Secret.Env != "MY_SECRET" {
		t.Errorf("Secret.Env = %s, want MY_SECRET", cfg.Secret.Env)
	}
	if cfg.Protocol.IVSeed != "custom-seed" {
		t.Errorf("IVSeed = %s, want custom-seed", cfg.Protocol.IVSeed)
	}
	if cfg.ReplayWindow() != time.Minute {
		t.Errorf("ReplayWindow() = %v, want 1m", cfg.ReplayWindow())
	}
	if !cfg.Protocol.StrictSignatures {
		t.Error("StrictSignatures = false, want true")
	}
	if cfg.Store.Backend != BackendSQLite {
		t.Errorf("Backend = %s, want sqlite", cfg.Store.Backend)
	}
	if cfg.Store.SQLite.Path != "/var/lib/tablewire/calls.db" {
		t.Errorf("SQLite.Path = %s", cfg.Store.SQLite.Path)
	}

	if n := len(cfg.IngestOptions()); n != 4 {
		t.Errorf("IngestOptions() returned %d options, want 4", n)
	}
}

func TestLoad_MinimalDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: memory
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Secret.Env != DefaultSecretEnv {
		t.Errorf("Secret.Env = %s, want default %s", cfg.Secret.Env, DefaultSecretEnv)
	}
	if cfg.ReplayWindow() != tablewire.DefaultReplayWindow {
		t.Errorf("ReplayWindow() = %v, want protocol default", cfg.ReplayWindow())
	}
	if len(cfg.IngestOptions()) != 0 {
		t.Errorf("IngestOptions() = %d options, want 0", len(cfg.IngestOptions()))
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of missing file should fail")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "store: [not a mapping")
	if _, err := Load(path); err == nil {
		t.Error("Load() of malformed YAML should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "default is valid",
			mutate: func(c *Config) {},
		},
		{
			name: "two secret sources",
			mutate: func(c *Config) {
				c.Secret.Value = "x"
			},
			wantErr: true,
		},
		{
			name: "keyring missing key",
			mutate: func(c *Config) {
				c.Secret.Env = ""
				c.Secret.Keyring = &KeyringConfig{Service: "tablewire"}
			},
			wantErr: true,
		},
		{
			name: "negative replay window",
			mutate: func(c *Config) {
				c.Protocol.ReplayWindowMS = -1
			},
			wantErr: true,
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Store.Backend = BackendSQLite
			},
			wantErr: true,
		},
		{
			name: "redis without addr",
			mutate: func(c *Config) {
				c.Store.Backend = BackendRedis
			},
			wantErr: true,
		},
		{
			name: "unknown backend",
			mutate: func(c *Config) {
				c.Store.Backend = "etcd"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Validate() = nil, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestSecretSource(t *testing.T) {
	t.Setenv("TABLEWIRE_CONFIG_TEST_SECRET", "from-env")

	cfg := Default()
	cfg.Secret = SecretConfig{Env: "TABLEWIRE_CONFIG_TEST_SECRET"}
	secret, err := cfg.SecretSource().Resolve()
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if secret != "from-env" {
		t.Errorf("secret = %s, want from-env", secret)
	}

	cfg.Secret = SecretConfig{Value: "literal"}
	secret, err = cfg.SecretSource().Resolve()
	if err != nil {
		t.Fatal(err)
	}
	if secret != "literal" {
		t.Errorf("secret = %s, want literal", secret)
	}
}

func TestOpenStore_Memory(t *testing.T) {
	cfg := Default()
	store, closeStore, err := cfg.OpenStore()
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	defer closeStore()

	if store == nil {
		t.Fatal("OpenStore() returned nil store")
	}
}

func TestOpenStore_SQLite_EndToEnd(t *testing.T) {
	cfg := Default()
	cfg.Store.Backend = BackendSQLite
	cfg.Store.SQLite.Path = filepath.Join(t.TempDir(), "calls.db")

	store, closeStore, err := cfg.OpenStore()
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	defer closeStore()

	// The wired store accepts an ingestor end to end.
	ing, err := tablewire.New("test-secret", store, cfg.IngestOptions()...)
	if err != nil {
		t.Fatal(err)
	}
	enc, err := tablewire.NewEncoder("test-secret")
	if err != nil {
		t.Fatal(err)
	}
	raw, err := enc.SealJSON(map[string]any{"callId": "call_cfg"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ing.Ingest(context.Background(), raw); err != nil {
		t.Errorf("Ingest() error = %v", err)
	}
}
