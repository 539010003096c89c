package tablewire

import (
	"context"
	"time"
)

// Record is the unit handed to persistence after a successful ingestion:
// the clean business payload plus receipt metadata derived by the
// orchestrator. Internal protocol fields are already stripped.
type Record struct {
	// ID is the business identifier the record is addressed by.
	ID string `json:"id"`
	// Fields holds the opaque business payload.
	Fields map[string]any `json:"fields"`
	// ReceiptID uniquely identifies this ingestion, distinct from ID,
	// which the encoder controls.
	ReceiptID string `json:"receiptId"`
	// ReceivedAt is the server-side receipt timestamp.
	ReceivedAt time.Time `json:"receivedAt"`
	// Ciphersuite tags the algorithm suite the envelope was opened with.
	Ciphersuite string `json:"ciphersuite"`
}

// Clone returns a deep-enough copy of the record: the field map is copied
// one level down, which is sufficient because stores must not mutate field
// values. Stores use it to decouple persisted state from caller memory.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Fields = make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	return &out
}

// Store is the persistence collaborator. Implementations must treat Upsert
// as an idempotent keyed overwrite: re-submission of an existing ID replaces
// the record rather than erroring, and concurrent upserts of distinct IDs
// must be safe.
type Store interface {
	Upsert(ctx context.Context, rec *Record) error
}
