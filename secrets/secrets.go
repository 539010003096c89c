// Package secrets resolves the shared ingestion secret from the places
// deployments keep it: literal configuration values, environment variables,
// files, and the operating system keyring.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/99designs/keyring"
	"github.com/joho/godotenv"
)

// Source yields the shared secret. Resolution happens once at startup: the
// protocol treats the secret as read-only process configuration, never
// transmitted and never logged.
type Source interface {
	Resolve() (string, error)
}

type sourceFunc func() (string, error)

func (f sourceFunc) Resolve() (string, error) { return f() }

// Static returns a Source yielding a literal value.
func Static(value string) Source {
	return sourceFunc(func() (string, error) {
		if value == "" {
			return "", errors.New("static secret is empty")
		}
		return value, nil
	})
}

// Env returns a Source reading the named environment variable.
func Env(name string) Source {
	return sourceFunc(func() (string, error) {
		value := os.Getenv(name)
		if value == "" {
			return "", fmt.Errorf("environment variable %s is not set", name)
		}
		return value, nil
	})
}

// File returns a Source reading the secret from a file, trimming surrounding
// whitespace.
func File(path string) Source {
	return sourceFunc(func() (string, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read secret file: %w", err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("secret file %s is empty", path)
		}
		return secret, nil
	})
}

// WriteFile writes a secret file readable only by the owning user.
func WriteFile(path, secret string) error {
	return os.WriteFile(path, []byte(secret+"\n"), 0o600)
}

// Keyring returns a Source reading the secret from the operating system
// keyring under the given service and key.
func Keyring(service, key string) Source {
	return sourceFunc(func() (string, error) {
		ring, err := keyring.Open(keyring.Config{ServiceName: service})
		if err != nil {
			return "", fmt.Errorf("open keyring: %w", err)
		}
		return fromRing(ring, key)
	})
}

// KeyringFrom returns a Source reading from an already-open keyring.
func KeyringFrom(ring keyring.Keyring, key string) Source {
	return sourceFunc(func() (string, error) {
		return fromRing(ring, key)
	})
}

func fromRing(ring keyring.Keyring, key string) (string, error) {
	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("read keyring item %s: %w", key, err)
	}
	if len(item.Data) == 0 {
		return "", fmt.Errorf("keyring item %s is empty", key)
	}
	return string(item.Data), nil
}

// LoadDotenv loads environment variables from the named file, for deployments
// configured through .env files. A missing file is not an error; variables
// already set in the environment keep their values.
func LoadDotenv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
