// Package sqlitestore provides a SQLite-backed telemetry store for durable
// single-node deployments.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	tablewire "github.com/tablewire/telemetry-go"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get when no record exists under the given ID.
var ErrNotFound = errors.New("record not found")

// Store persists records in a SQLite database, one row per business
// identifier. It implements tablewire.Store: Upsert is an idempotent keyed
// overwrite backed by INSERT ... ON CONFLICT.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite database at path, creating it and the schema when
// missing.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s, err := NewFromDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewFromDB wraps an existing database handle and prepares the schema. Close
// closes the handle in both cases.
func NewFromDB(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS call_records (
		call_id     TEXT PRIMARY KEY,
		fields      JSON NOT NULL,
		receipt_id  TEXT NOT NULL,
		received_at TEXT NOT NULL,
		ciphersuite TEXT NOT NULL DEFAULT ''
	);`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

// Upsert inserts or replaces the record under its ID.
func (s *Store) Upsert(ctx context.Context, rec *tablewire.Record) error {
	fieldsJSON, err := json.Marshal(rec.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}

	query := `
	INSERT INTO call_records (call_id, fields, receipt_id, received_at, ciphersuite)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(call_id) DO UPDATE SET
		fields      = excluded.fields,
		receipt_id  = excluded.receipt_id,
		received_at = excluded.received_at,
		ciphersuite = excluded.ciphersuite`

	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		string(fieldsJSON),
		rec.ReceiptID,
		rec.ReceivedAt.UTC().Format(time.RFC3339Nano),
		rec.Ciphersuite,
	)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// Get returns the record stored under id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*tablewire.Record, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT call_id, fields, receipt_id, received_at, ciphersuite
	FROM call_records
	WHERE call_id = ?`, id)
	return scanRecord(row)
}

// List returns up to limit records, most recently received first.
func (s *Store) List(ctx context.Context, limit int) ([]*tablewire.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT call_id, fields, receipt_id, received_at, ciphersuite
	FROM call_records
	ORDER BY received_at DESC
	LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var records []*tablewire.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*tablewire.Record, error) {
	var id, fieldsJSON, receiptID, receivedAt, ciphersuite string
	if err := row.Scan(&id, &fieldsJSON, &receiptID, &receivedAt, &ciphersuite); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(fieldsJSON), &fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, receivedAt)
	if err != nil {
		return nil, fmt.Errorf("parse received_at: %w", err)
	}

	return &tablewire.Record{
		ID:          id,
		Fields:      fields,
		ReceiptID:   receiptID,
		ReceivedAt:  ts,
		Ciphersuite: ciphersuite,
	}, nil
}
