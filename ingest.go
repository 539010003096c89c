package tablewire

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tablewire/telemetry-go/internal/protocol"
)

// Result summarizes one successful ingestion.
type Result struct {
	// ID is the business identifier the record was persisted under.
	ID string `json:"id"`
	// ReceiptID uniquely identifies this ingestion.
	ReceiptID string `json:"receiptId"`
	// ReceivedAt is the server-side receipt timestamp.
	ReceivedAt time.Time `json:"receivedAt"`
	// Ciphersuite tags the algorithm suite the envelope was opened with.
	Ciphersuite string `json:"ciphersuite"`
	// Version is the advisory protocol version the payload carried.
	Version string `json:"version,omitempty"`
	// SignatureStatus records the envelope signature outcome.
	SignatureStatus SignatureStatus `json:"signatureStatus"`
}

// Ingestor opens encrypted telemetry envelopes and persists the payloads
// exactly once per submission.
//
// An Ingestor is immutable after New and safe for concurrent use: key
// derivation, decryption, and signature verification are pure functions of
// the request, and the only shared mutable resource is the store, which owns
// its own concurrency contract. Nothing is written until every protocol
// check has passed, so a caller cancelling early leaves no partial state.
type Ingestor struct {
	secret          string
	store           Store
	iv              []byte
	replayWindow    time.Duration
	identifierField string
	strict          bool
	clock           func() time.Time
	logger          *slog.Logger

	// Seams for call-count assertions in tests; production code never
	// replaces them.
	deriveKey func(secret string, salt []byte) ([]byte, error)
	decrypt   func(key, iv, ciphertext []byte) ([]byte, error)
}

// New creates an Ingestor that opens envelopes sealed under the given shared
// secret and hands accepted payloads to store.
//
// The secret is process-wide configuration, read-only after startup; it is
// never transmitted and never logged.
func New(secret string, store Store, opts ...Option) (*Ingestor, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if store == nil {
		return nil, ErrMissingStore
	}

	cfg := &ingestConfig{
		ivSeed:          DefaultIVSeed,
		replayWindow:    DefaultReplayWindow,
		identifierField: DefaultIdentifierField,
		clock:           time.Now,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Ingestor{
		secret:          secret,
		store:           store,
		iv:              protocol.IVFromSeed(cfg.ivSeed),
		replayWindow:    cfg.replayWindow,
		identifierField: cfg.identifierField,
		strict:          cfg.strictSignatures,
		clock:           cfg.clock,
		logger:          cfg.logger.With("component", "ingest"),
		deriveKey:       protocol.DeriveKey,
		decrypt:         protocol.Decrypt,
	}, nil
}

// Ingest parses raw JSON input as a wire envelope, opens it, and persists
// the payload. See IngestEnvelope for the pipeline.
func (ing *Ingestor) Ingest(ctx context.Context, raw []byte) (*Result, error) {
	env, err := ParseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	return ing.IngestEnvelope(ctx, env)
}

// IngestEnvelope opens an envelope and persists the payload through the
// store as an idempotent keyed upsert.
//
// The pipeline order fixes error-code precedence:
//
//  1. encrypted flag check (terminal, before any cryptographic work)
//  2. signature verification when present (advisory unless strict)
//  3. key derivation, decryption, plaintext parse (terminal)
//  4. freshness check on the embedded issuance timestamp (terminal)
//  5. mandatory business identifier check (terminal)
//  6. strip internal fields, upsert record
//
// Every failure returns an *IngestError carrying one code of the closed
// taxonomy; nothing panics past this boundary.
func (ing *Ingestor) IngestEnvelope(ctx context.Context, env *Envelope) (*Result, error) {
	payload, err := ing.OpenEnvelope(env)
	if err != nil {
		return nil, err
	}

	rec := &Record{
		ID:          payload.ID,
		Fields:      payload.Fields,
		ReceiptID:   uuid.New().String(),
		ReceivedAt:  ing.clock(),
		Ciphersuite: protocol.Ciphersuite,
	}
	if err := ing.store.Upsert(ctx, rec); err != nil {
		return nil, ingestError(CodePersistenceError, "persist", "", err)
	}

	return &Result{
		ID:              rec.ID,
		ReceiptID:       rec.ReceiptID,
		ReceivedAt:      rec.ReceivedAt,
		Ciphersuite:     rec.Ciphersuite,
		Version:         payload.Version,
		SignatureStatus: payload.SignatureStatus,
	}, nil
}

// Open parses raw JSON input as a wire envelope and opens it without
// persisting anything.
func (ing *Ingestor) Open(raw []byte) (*Payload, error) {
	env, err := ParseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	return ing.OpenEnvelope(env)
}

// OpenEnvelope runs steps 1-5 of the ingestion pipeline and returns the
// decrypted, validated payload with internal fields stripped. Nothing is
// persisted; Ingest callers get the same payload plus an upsert.
func (ing *Ingestor) OpenEnvelope(env *Envelope) (*Payload, error) {
	if env == nil || !env.Encrypted {
		return nil, ingestError(CodeUnencryptedPayload, "envelope", "encrypted flag is absent or false", nil)
	}

	ciphertext, err := protocol.FromHex(env.Ciphertext)
	if err != nil {
		return nil, ingestError(CodeDecryptionError, "decrypt", "ciphertext is not valid hex", err)
	}

	sigStatus, err := ing.verifySignature(env.Signature, ciphertext)
	if err != nil {
		return nil, err
	}

	salt, err := protocol.FromHex(env.Salt)
	if err != nil {
		return nil, ingestError(CodeDecryptionError, "decrypt", "salt is not valid hex", err)
	}

	key, err := ing.deriveKey(ing.secret, salt)
	if err != nil {
		return nil, ingestError(CodeDecryptionError, "decrypt", "", err)
	}

	plaintext, err := ing.decrypt(key, ing.iv, ciphertext)
	if err != nil {
		return nil, ingestError(CodeDecryptionError, "decrypt", "", err)
	}

	fields, err := parsePayload(plaintext)
	if err != nil {
		return nil, err
	}

	issued, err := issuedAt(fields)
	if err != nil {
		return nil, err
	}
	if err := checkFreshness(issued, ing.clock(), ing.replayWindow); err != nil {
		return nil, err
	}

	id, ok := fields[ing.identifierField].(string)
	if !ok || id == "" {
		return nil, ingestError(CodeValidationError, "validate",
			"payload is missing the "+ing.identifierField+" identifier", nil)
	}

	clean, version := stripInternal(fields)

	return &Payload{
		ID:              id,
		Fields:          clean,
		IssuedAt:        issued,
		Version:         version,
		SignatureStatus: sigStatus,
	}, nil
}

// verifySignature implements the advisory signature policy: a missing
// signature skips verification, and a mismatch is logged and flagged but
// does not stop processing unless strict mode is on. The comparison itself
// is constant time.
func (ing *Ingestor) verifySignature(sigHex string, ciphertext []byte) (SignatureStatus, error) {
	if sigHex == "" {
		return SignatureAbsent, nil
	}

	sig, err := protocol.FromHex(sigHex)
	if err == nil && protocol.Verify(ing.secret, ciphertext, sig) {
		return SignatureVerified, nil
	}

	ing.logger.Warn("envelope signature mismatch",
		"ciphertext_bytes", len(ciphertext),
		"strict", ing.strict,
	)
	if ing.strict {
		return SignatureInvalid, ingestError(CodeSignatureMismatch, "signature",
			"signature does not match ciphertext", nil)
	}
	return SignatureInvalid, nil
}
