package tablewire

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
)

func TestNewEncoder_RequiresSecret(t *testing.T) {
	if _, err := NewEncoder(""); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("err = %v, want ErrMissingSecret", err)
	}
}

func TestEncoder_Seal_KnownAnswer(t *testing.T) {
	// With the clock and salt source pinned, the sealed envelope must
	// reproduce the known-answer ciphertext byte for byte: JSON field order
	// is deterministic (sorted keys) and every other input is fixed.
	enc, err := NewEncoder(testSecret,
		WithEncoderClock(testClock),
		WithSaltSource(bytes.NewReader(make([]byte, 16))))
	if err != nil {
		t.Fatalf("NewEncoder() error = %v", err)
	}

	env, err := enc.Seal(map[string]any{"callId": "call_1", "duration": 42})
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	if !env.Encrypted {
		t.Error("Encrypted = false, want true")
	}
	if env.Salt != knownSalt {
		t.Errorf("Salt = %s, want %s", env.Salt, knownSalt)
	}
	if env.Ciphertext != knownCiphertext {
		t.Errorf("Ciphertext = %s, want %s", env.Ciphertext, knownCiphertext)
	}
	if env.Signature != knownSignature {
		t.Errorf("Signature = %s, want %s", env.Signature, knownSignature)
	}
}

func TestEncoder_Seal_DoesNotMutateInput(t *testing.T) {
	enc, err := NewEncoder(testSecret)
	if err != nil {
		t.Fatal(err)
	}

	fields := map[string]any{"callId": "call_m"}
	if _, err := enc.Seal(fields); err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	if len(fields) != 1 {
		t.Errorf("caller map has %d entries after Seal, want 1", len(fields))
	}
}

func TestEncoder_Seal_OwnsInternalFields(t *testing.T) {
	// Caller-supplied _timestamp and _version are overwritten; the encoder
	// owns the internal protocol fields.
	store := newFakeStore()
	ing := newTestIngestor(t, store)

	enc, err := NewEncoder(testSecret, WithEncoderClock(testClock), WithProtocolVersion("2.1"))
	if err != nil {
		t.Fatal(err)
	}
	env, err := enc.Seal(map[string]any{
		"callId":     "call_o",
		"_timestamp": int64(1), // would be hours stale if honored
		"_version":   "0.0",
	})
	if err != nil {
		t.Fatalf("Seal() error = %v", err)
	}

	res, err := ing.IngestEnvelope(context.Background(), env)
	if err != nil {
		t.Fatalf("IngestEnvelope() error = %v", err)
	}
	if res.Version != "2.1" {
		t.Errorf("Version = %s, want 2.1", res.Version)
	}
}

func TestEncoder_Seal_UniqueSalts(t *testing.T) {
	enc, err := NewEncoder(testSecret)
	if err != nil {
		t.Fatal(err)
	}

	first, err := enc.Seal(map[string]any{"callId": "call_s"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := enc.Seal(map[string]any{"callId": "call_s"})
	if err != nil {
		t.Fatal(err)
	}

	if first.Salt == second.Salt {
		t.Error("consecutive seals drew the same salt")
	}
	if first.Ciphertext == second.Ciphertext {
		t.Error("identical payloads must encrypt differently under fresh salts")
	}
}

func TestEncoder_Seal_WithoutSignature(t *testing.T) {
	enc, err := NewEncoder(testSecret, WithoutSignature())
	if err != nil {
		t.Fatal(err)
	}

	env, err := enc.Seal(map[string]any{"callId": "call_u"})
	if err != nil {
		t.Fatal(err)
	}
	if env.Signature != "" {
		t.Errorf("Signature = %s, want empty", env.Signature)
	}

	// An unsigned envelope still ingests, flagged as unverified.
	store := newFakeStore()
	ing := newTestIngestor(t, store)
	res, err := ing.IngestEnvelope(context.Background(), env)
	if err != nil {
		t.Fatalf("IngestEnvelope() error = %v", err)
	}
	if res.SignatureStatus != SignatureAbsent {
		t.Errorf("SignatureStatus = %s, want %s", res.SignatureStatus, SignatureAbsent)
	}
}

func TestEncoder_Seal_UnmarshalableField(t *testing.T) {
	enc, err := NewEncoder(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Seal(map[string]any{"callId": "c", "bad": make(chan int)}); err == nil {
		t.Error("expected marshal error for channel field")
	}
}

func TestEncoder_Seal_SaltSourceExhausted(t *testing.T) {
	enc, err := NewEncoder(testSecret, WithSaltSource(bytes.NewReader(make([]byte, 7))))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := enc.Seal(map[string]any{"callId": "c"}); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestEncoder_SealJSON_Wire(t *testing.T) {
	enc, err := NewEncoder(testSecret, WithEncoderClock(testClock))
	if err != nil {
		t.Fatal(err)
	}

	raw, err := enc.SealJSON(map[string]any{"callId": "call_j", "duration": 7})
	if err != nil {
		t.Fatalf("SealJSON() error = %v", err)
	}

	// The wire bytes feed straight back into the ingestor.
	store := newFakeStore()
	ing := newTestIngestor(t, store)
	res, err := ing.Ingest(context.Background(), raw)
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if res.ID != "call_j" {
		t.Errorf("ID = %s, want call_j", res.ID)
	}
	if res.SignatureStatus != SignatureVerified {
		t.Errorf("SignatureStatus = %s, want %s", res.SignatureStatus, SignatureVerified)
	}
}

func TestEncoder_CustomIVSeed_RoundTrip(t *testing.T) {
	enc, err := NewEncoder(testSecret,
		WithEncoderIVSeed("alternate-seed"),
		WithEncoderClock(testClock))
	if err != nil {
		t.Fatal(err)
	}
	env, err := enc.Seal(map[string]any{"callId": "call_iv"})
	if err != nil {
		t.Fatal(err)
	}

	// A decoder on the default seed cannot open it.
	store := newFakeStore()
	ing := newTestIngestor(t, store)
	if _, err := ing.IngestEnvelope(context.Background(), env); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("err = %v, want ErrDecryptionFailed under mismatched seeds", err)
	}

	// A decoder configured with the same seed can.
	ing = newTestIngestor(t, store, WithIVSeed("alternate-seed"))
	if _, err := ing.IngestEnvelope(context.Background(), env); err != nil {
		t.Errorf("IngestEnvelope() error = %v, want success under matching seeds", err)
	}
}

func BenchmarkEncoder_Seal(b *testing.B) {
	enc, err := NewEncoder(testSecret)
	if err != nil {
		b.Fatal(err)
	}
	fields := map[string]any{"callId": "call_b", "duration": 42}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := enc.Seal(fields); err != nil {
			b.Fatal(err)
		}
	}
}
