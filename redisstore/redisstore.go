// Package redisstore provides a Redis-backed telemetry store for deployments
// where several ingest processes share one record set.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	tablewire "github.com/tablewire/telemetry-go"
)

// DefaultKeyPrefix namespaces record keys in a shared keyspace.
const DefaultKeyPrefix = "tablewire:call:"

// ErrNotFound is returned by Get when no record exists under the given ID.
var ErrNotFound = errors.New("record not found")

// Options configures a Store.
type Options struct {
	// Addr is the host:port of the Redis server.
	Addr string
	// Password authenticates the connection; empty means none.
	Password string
	// DB selects the logical Redis database.
	DB int
	// KeyPrefix replaces DefaultKeyPrefix when non-empty.
	KeyPrefix string
	// TTL expires records after the given duration. Zero keeps them
	// until overwritten or deleted externally.
	TTL time.Duration
}

// Store persists records as JSON values keyed by business identifier. It
// implements tablewire.Store; SET gives the idempotent keyed overwrite the
// ingestor requires.
type Store struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// New creates a Store with its own Redis client.
func New(opts Options) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewFromClient(client, opts)
}

// NewFromClient wraps an existing Redis client. Close closes the client in
// both cases.
func NewFromClient(client *redis.Client, opts Options) *Store {
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, keyPrefix: prefix, ttl: opts.TTL}
}

func (s *Store) key(id string) string {
	return s.keyPrefix + id
}

// Upsert inserts or replaces the record under its ID.
func (s *Store) Upsert(ctx context.Context, rec *tablewire.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(rec.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("set record: %w", err)
	}
	return nil
}

// Get returns the record stored under id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*tablewire.Record, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	var rec tablewire.Record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &rec, nil
}

// Ping verifies connectivity to the Redis server.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
