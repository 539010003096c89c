// Package memstore provides an in-memory telemetry store, used by tests and
// single-process deployments that do not need durability.
package memstore

import (
	"context"
	"sort"
	"sync"

	tablewire "github.com/tablewire/telemetry-go"
)

// Store keeps records in a map keyed by business identifier. It implements
// tablewire.Store and is safe for concurrent use.
//
// Records are cloned on the way in and out, so callers can mutate what they
// hold without racing the store.
type Store struct {
	mu      sync.RWMutex
	records map[string]*tablewire.Record
}

// New creates an empty Store.
func New() *Store {
	return &Store{records: make(map[string]*tablewire.Record)}
}

// Upsert inserts or replaces the record under its ID.
func (s *Store) Upsert(ctx context.Context, rec *tablewire.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec.Clone()
	return nil
}

// Get returns the record stored under id, or false when none exists.
func (s *Store) Get(id string) (*tablewire.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// All returns every stored record, sorted by ID.
func (s *Store) All() []*tablewire.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*tablewire.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
