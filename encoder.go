package tablewire

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/tablewire/telemetry-go/internal/protocol"
)

// Encoder seals telemetry payloads into wire envelopes that a cooperating
// Ingestor can open. Edge clients embed it to submit call telemetry; the
// test suite uses it to exercise the full round trip.
//
// An Encoder is immutable after construction and safe for concurrent use.
type Encoder struct {
	secret     string
	iv         []byte
	version    string
	sign       bool
	clock      func() time.Time
	saltSource io.Reader
}

// NewEncoder creates an Encoder sealing envelopes under the given shared
// secret.
func NewEncoder(secret string, opts ...EncoderOption) (*Encoder, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}

	cfg := &encoderConfig{
		ivSeed:     DefaultIVSeed,
		version:    protocol.Version,
		clock:      time.Now,
		saltSource: rand.Reader,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Encoder{
		secret:     secret,
		iv:         protocol.IVFromSeed(cfg.ivSeed),
		version:    cfg.version,
		sign:       !cfg.omitSignature,
		clock:      cfg.clock,
		saltSource: cfg.saltSource,
	}, nil
}

// Seal encrypts the given business fields into a wire envelope.
//
// Seal stamps the internal _timestamp and _version fields (overwriting any
// caller-supplied values; the encoder owns them), draws a fresh random salt,
// derives the per-message key, encrypts, and signs the ciphertext. Salt
// uniqueness is this side's obligation: the decoder cannot detect reuse, and
// a repeated salt under the same secret repeats the key and, with the static
// IV, collapses the encryption.
func (e *Encoder) Seal(fields map[string]any) (*Envelope, error) {
	payload := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		payload[k] = v
	}
	payload[timestampField] = e.clock().UnixMilli()
	payload[versionField] = e.version

	plaintext, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	salt := make([]byte, protocol.SaltSize)
	if _, err := io.ReadFull(e.saltSource, salt); err != nil {
		return nil, fmt.Errorf("draw salt: %w", err)
	}

	key, err := protocol.DeriveKey(e.secret, salt)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	ciphertext, err := protocol.Encrypt(key, e.iv, plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	env := &Envelope{
		Encrypted:  true,
		Ciphertext: protocol.ToHex(ciphertext),
		Salt:       protocol.ToHex(salt),
	}
	if e.sign {
		env.Signature = protocol.ToHex(protocol.Sign(e.secret, ciphertext))
	}
	return env, nil
}

// SealJSON is Seal followed by JSON marshaling, for callers that put the
// envelope straight onto the wire.
func (e *Encoder) SealJSON(fields map[string]any) ([]byte, error) {
	env, err := e.Seal(fields)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}
