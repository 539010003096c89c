// Package config loads ingest deployment configuration from YAML and turns
// it into wired components: a secret source, ingest options, and a store.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	tablewire "github.com/tablewire/telemetry-go"
	"github.com/tablewire/telemetry-go/memstore"
	"github.com/tablewire/telemetry-go/redisstore"
	"github.com/tablewire/telemetry-go/secrets"
	"github.com/tablewire/telemetry-go/sqlitestore"
)

// DefaultSecretEnv is the environment variable consulted when the
// configuration names no other secret source.
const DefaultSecretEnv = "TABLEWIRE_SECRET"

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the root of the YAML deployment configuration.
type Config struct {
	Secret   SecretConfig   `yaml:"secret"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Store    StoreConfig    `yaml:"store"`
}

// SecretConfig names where the shared ingestion secret lives. At most one
// source may be set; when none is, the TABLEWIRE_SECRET environment variable
// is used.
type SecretConfig struct {
	// Value is a literal secret. Development only.
	Value string `yaml:"value,omitempty"`
	// Env names an environment variable holding the secret.
	Env string `yaml:"env,omitempty"`
	// File points at a file holding the secret.
	File string `yaml:"file,omitempty"`
	// Keyring reads the secret from the operating system keyring.
	Keyring *KeyringConfig `yaml:"keyring,omitempty"`
}

// KeyringConfig addresses an item in the operating system keyring.
type KeyringConfig struct {
	Service string `yaml:"service"`
	Key     string `yaml:"key"`
}

// ProtocolConfig tunes the wire protocol. Zero values keep the defaults;
// iv_seed and replay_window_ms must change only in lockstep with every
// deployed encoder.
type ProtocolConfig struct {
	IVSeed           string `yaml:"iv_seed,omitempty"`
	ReplayWindowMS   int64  `yaml:"replay_window_ms,omitempty"`
	IdentifierField  string `yaml:"identifier_field,omitempty"`
	StrictSignatures bool   `yaml:"strict_signatures,omitempty"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Backend string       `yaml:"backend"`
	SQLite  SQLiteConfig `yaml:"sqlite,omitempty"`
	Redis   RedisConfig  `yaml:"redis,omitempty"`
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig configures the Redis backend.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password,omitempty"`
	DB        int    `yaml:"db,omitempty"`
	KeyPrefix string `yaml:"key_prefix,omitempty"`
	TTLHours  int    `yaml:"ttl_hours,omitempty"`
}

// Default returns the configuration used when no file is given: secret from
// TABLEWIRE_SECRET, protocol defaults, in-memory store.
func Default() *Config {
	return &Config{
		Secret: SecretConfig{Env: DefaultSecretEnv},
		Store:  StoreConfig{Backend: BackendMemory},
	}
}

// Load reads and validates the YAML configuration at path. Omitted sections
// fall back to Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = BackendMemory
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot be wired.
func (c *Config) Validate() error {
	sources := 0
	if c.Secret.Value != "" {
		sources++
	}
	if c.Secret.Env != "" {
		sources++
	}
	if c.Secret.File != "" {
		sources++
	}
	if c.Secret.Keyring != nil {
		sources++
		if c.Secret.Keyring.Service == "" || c.Secret.Keyring.Key == "" {
			return fmt.Errorf("secret.keyring requires both service and key")
		}
	}
	if sources > 1 {
		return fmt.Errorf("configure at most one secret source, got %d", sources)
	}

	if c.Protocol.ReplayWindowMS < 0 {
		return fmt.Errorf("protocol.replay_window_ms must not be negative")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.SQLite.Path == "" {
			return fmt.Errorf("store.sqlite.path is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// SecretSource returns the configured secret source.
func (c *Config) SecretSource() secrets.Source {
	switch {
	case c.Secret.Value != "":
		return secrets.Static(c.Secret.Value)
	case c.Secret.File != "":
		return secrets.File(c.Secret.File)
	case c.Secret.Keyring != nil:
		return secrets.Keyring(c.Secret.Keyring.Service, c.Secret.Keyring.Key)
	case c.Secret.Env != "":
		return secrets.Env(c.Secret.Env)
	}
	return secrets.Env(DefaultSecretEnv)
}

// ReplayWindow returns the configured acceptance window, or the protocol
// default when unset.
func (c *Config) ReplayWindow() time.Duration {
	if c.Protocol.ReplayWindowMS == 0 {
		return tablewire.DefaultReplayWindow
	}
	return time.Duration(c.Protocol.ReplayWindowMS) * time.Millisecond
}

// IngestOptions translates the protocol section into ingestor options.
func (c *Config) IngestOptions() []tablewire.Option {
	var opts []tablewire.Option
	if c.Protocol.IVSeed != "" {
		opts = append(opts, tablewire.WithIVSeed(c.Protocol.IVSeed))
	}
	if c.Protocol.ReplayWindowMS != 0 {
		opts = append(opts, tablewire.WithReplayWindow(c.ReplayWindow()))
	}
	if c.Protocol.IdentifierField != "" {
		opts = append(opts, tablewire.WithIdentifierField(c.Protocol.IdentifierField))
	}
	if c.Protocol.StrictSignatures {
		opts = append(opts, tablewire.WithStrictSignatures())
	}
	return opts
}

// OpenStore constructs the configured store. The returned close function
// releases whatever the backend holds open; for the memory backend it is a
// no-op.
func (c *Config) OpenStore() (tablewire.Store, func() error, error) {
	switch c.Store.Backend {
	case BackendMemory:
		return memstore.New(), func() error { return nil }, nil
	case BackendSQLite:
		s, err := sqlitestore.Open(c.Store.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case BackendRedis:
		s := redisstore.New(redisstore.Options{
			Addr:      c.Store.Redis.Addr,
			Password:  c.Store.Redis.Password,
			DB:        c.Store.Redis.DB,
			KeyPrefix: c.Store.Redis.KeyPrefix,
			TTL:       time.Duration(c.Store.Redis.TTLHours) * time.Hour,
		})
		return s, s.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", c.Store.Backend)
}
